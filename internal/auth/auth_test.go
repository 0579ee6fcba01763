package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, cfg Config, path, authHeader string) int {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	Middleware(cfg)(next).ServeHTTP(rec, r)
	return rec.Code
}

func TestMiddlewareDisabled(t *testing.T) {
	cfg := Config{Enabled: false}
	if got := doRequest(t, cfg, "/api/v1/cache/clear", ""); got != http.StatusOK {
		t.Errorf("disabled auth blocked request: %d", got)
	}
}

func TestMiddlewareExemptPaths(t *testing.T) {
	cfg := Config{Enabled: true, Token: "secret"}
	paths := []string{
		"/healthz",
		"/readyz",
		"/metrics",
		"/api/v1/satellites",
		"/api/v1/satellites/25544/passes",
		"/api/v1/tle/metadata",
	}
	for _, p := range paths {
		if got := doRequest(t, cfg, p, ""); got != http.StatusOK {
			t.Errorf("exempt path %s blocked: %d", p, got)
		}
	}
}

func TestMiddlewareProtectsMutatingRoutes(t *testing.T) {
	cfg := Config{Enabled: true, Token: "secret"}
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, path := range []string{"/api/v1/tle/fetch", "/api/v1/cache/clear"} {
		for _, tt := range tests {
			if got := doRequest(t, cfg, path, tt.header); got != tt.want {
				t.Errorf("%s %s: status %d, want %d", path, tt.name, got, tt.want)
			}
		}
	}
}
