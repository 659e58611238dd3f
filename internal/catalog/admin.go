package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductStore/internal/auth"
	"ProductStore/pkg/kit"
)

const defaultLoginLimitPerMin = 5

// AdminDeps switches on the write routes. Without it the service is read-only.
type AdminDeps struct {
	Tokens           *auth.TokenMaker
	Login            http.Handler
	LoginLimitPerMin int
}

type skippedResponse struct {
	Skipped bool     `json:"skipped"`
	Missing []string `json:"missing"`
}

func (s *Server) registerAdmin(r chi.Router, admin *AdminDeps) {
	limit := admin.LoginLimitPerMin
	if limit <= 0 {
		limit = defaultLoginLimitPerMin
	}
	loginLimiter := kit.NewIPRateLimiter(limit, time.Minute)

	r.With(loginLimiter.Middleware).Post("/admin/login", admin.Login.ServeHTTP)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(admin.Tokens, auth.RoleAdmin))
		pr.Post("/products", s.create)
		pr.Put("/products/{pid}", s.update)
		pr.Delete("/products/{pid}", s.delete)
	})
}

// create answers 200 with the missing fields when the store skips the draft;
// the store reports that case as success, not as a validation error.
func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := kit.DecodeJSON(w, r, &d); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.Store.Initialize(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	res, err := s.Store.Create(r.Context(), d)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if res.Skipped {
		kit.WriteJSON(w, http.StatusOK, skippedResponse{Skipped: true, Missing: res.Missing})
		return
	}

	s.logger().Info("product created", zap.Int("id", res.Product.ID), zap.String("code", res.Product.Code))
	kit.WriteJSON(w, http.StatusCreated, productResponse{Product: res.Product})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, ErrNotFound.Error(), map[string]any{"pid": chi.URLParam(r, "pid")})
		return
	}

	var p Patch
	if err := kit.DecodeJSON(w, r, &p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.Store.Initialize(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	updated, err := s.Store.Update(r.Context(), id, p)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{Product: updated})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, ErrNotFound.Error(), map[string]any{"pid": chi.URLParam(r, "pid")})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.Store.Initialize(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isNotFound(err):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrDuplicateCode):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	default:
		s.logger().Error("product write failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
	}
}
