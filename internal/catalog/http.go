package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductStore/pkg/kit"
)

const readyTimeout = 1 * time.Second

// Server adapts HTTP requests onto the Store. Every handler reloads the store from
// its document first.
type Server struct {
	Store *Store
	Log   *zap.Logger

	// writeMu serialises reload/mutate/persist sequences of the admin routes.
	writeMu sync.Mutex
}

type listResponse struct {
	Products []Product `json:"products"`
}

type productResponse struct {
	Product Product `json:"product"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.register(r, nil)
	return r
}

func (s *Server) register(r chi.Router, admin *AdminDeps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.list)
	r.Get("/products/{pid}", s.get)

	if admin != nil {
		s.registerAdmin(r, admin)
	}
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	if err := s.Store.Initialize(r.Context()); err != nil {
		s.logger().Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, listResponse{Products: s.Store.List(limit)})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Initialize(r.Context()); err != nil {
		s.logger().Error("get product failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	id, ok := parseID(r)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, ErrNotFound.Error(), map[string]any{"pid": chi.URLParam(r, "pid")})
		return
	}

	p, err := s.Store.Get(id)
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), map[string]any{"pid": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, productResponse{Product: p})
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// parseLimit reads the leading integer of raw ("2abc" and "1.5" give 2 and 1).
// No digits, zero or a negative value mean "no limit".
func parseLimit(raw string) int {
	n, ok := leadingInt(raw)
	if !ok || n <= 0 {
		return 0
	}
	return n
}

// parseID reads the leading integer of the pid segment the same way parseLimit
// does, so "/products/2abc" addresses product 2.
func parseID(r *http.Request) (int, bool) {
	return leadingInt(chi.URLParam(r, "pid"))
}

// leadingInt parses an optional sign followed by as many digits as are present,
// after leading whitespace; a 0x/0X prefix switches to hex. It reports false when
// no digit is found or the value does not fit in an int.
func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base, isDigit := 10, isDecimal
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit = 16, isHex
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], base, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return int(n), true
}

func isDecimal(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
