package kit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zapcore"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	h := l.Middleware(okHandler())

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if c := call("10.0.0.1"); c != http.StatusOK {
		t.Fatalf("first status=%d", c)
	}
	if c := call("10.0.0.1"); c != http.StatusOK {
		t.Fatalf("second status=%d", c)
	}
	if c := call("10.0.0.1"); c != http.StatusTooManyRequests {
		t.Fatalf("third status=%d", c)
	}
	if c := call("10.0.0.2"); c != http.StatusOK {
		t.Fatalf("other ip status=%d", c)
	}

	now = now.Add(61 * time.Second)
	if c := call("10.0.0.1"); c != http.StatusOK {
		t.Fatalf("after window status=%d", c)
	}
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if ip := clientIP(req); ip != "192.0.2.1" {
		t.Fatalf("ip=%q", ip)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if ip := clientIP(req); ip != "192.0.2.1" {
		t.Fatalf("forwarded ip=%q", ip)
	}
}

func TestIPRateLimiter_RotatingForwardedFor(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	h := l.Middleware(okHandler())

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "198.51.100.4:40000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{200, 200, 429, 429, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes=%v want=%v", codes, want)
		}
	}
}

func TestIPRateLimiter_SweepsIdleKeys(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(5, time.Minute)
	l.now = func() time.Time { return now }
	h := l.Middleware(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "10.1.0." + strconv.Itoa(i) + ":1234"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if n := len(l.hits); n != 50 {
		t.Fatalf("keys=%d", n)
	}

	now = now.Add(2 * time.Minute)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.RemoteAddr = "10.2.0.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if n := len(l.hits); n != 1 {
		t.Fatalf("keys after sweep=%d", n)
	}
}

func TestMetricsAuth(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"no token configured", "", "Bearer x", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusForbidden},
		{"wrong token", "s3cret", "Bearer nope", http.StatusForbidden},
		{"ok", "s3cret", "Bearer s3cret", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			MetricsAuth(tc.token)(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("status=%d want=%d", rr.Code, tc.want)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	h := m.Middleware("catalog", func(*http.Request) string { return "/products" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusOK)
		}),
	)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))

	got := testutil.ToFloat64(m.Requests.WithLabelValues("catalog", http.MethodGet, "/products", "404"))
	if got != 1 {
		t.Fatalf("requests{status=404}=%v", got)
	}
}

func TestMetricsMiddleware_DefaultStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	h := m.Middleware("catalog", func(*http.Request) string { return "/healthz" })(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("catalog", http.MethodGet, "/healthz", "200")); got != 1 {
		t.Fatalf("requests{status=200}=%v", got)
	}
}

func TestAccessLevel(t *testing.T) {
	cases := []struct {
		route  string
		status int
		want   zapcore.Level
	}{
		{"/products", http.StatusOK, zapcore.InfoLevel},
		{"/healthz", http.StatusOK, zapcore.DebugLevel},
		{"/readyz", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/products/{pid}", http.StatusNotFound, zapcore.WarnLevel},
		{"/products", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		if got := accessLevel(tc.route, tc.status); got != tc.want {
			t.Errorf("accessLevel(%q, %d)=%v want %v", tc.route, tc.status, got, tc.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	cases := []struct {
		in      string
		wantErr bool
	}{
		{`{"name":"a"}`, false},
		{`{"name":"a"}{}`, true},
		{`{"other":1}`, true},
		{`nope`, true},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.in))
		var b body
		err := DecodeJSON(httptest.NewRecorder(), req, &b)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v", tc.in, err)
		}
	}
}
