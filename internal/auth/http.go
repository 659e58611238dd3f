package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"ProductStore/pkg/kit"
)

const (
	adminSubject    = "admin"
	defaultTokenTTL = 15 * time.Minute
)

// Login exchanges the admin password for a short-lived admin token.
type Login struct {
	Log         *zap.Logger
	Tokens      *TokenMaker
	Credentials *Credentials
	TTL         time.Duration
}

type loginReq struct {
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (l *Login) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := l.Credentials.Verify(req.Password); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := l.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	tok, err := l.Tokens.New(adminSubject, RoleAdmin, ttl)
	if err != nil {
		if l.Log != nil {
			l.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresIn: int(ttl.Seconds())})
}
