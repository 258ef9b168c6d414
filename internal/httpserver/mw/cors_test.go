package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  bool
		wantCode   int
		wantOrigin string
	}{
		{"no origin header", []string{"app.example.com"}, http.MethodGet, "", false, http.StatusOK, ""},
		{"any origin when unrestricted", nil, http.MethodGet, "http://localhost:3000", false, http.StatusOK, "http://localhost:3000"},
		{"exact match", []string{"app.example.com"}, http.MethodGet, "https://app.example.com", false, http.StatusOK, "https://app.example.com"},
		{"wildcard match", []string{"*.example.com"}, http.MethodGet, "https://a.example.com", false, http.StatusOK, "https://a.example.com"},
		{"rejected origin still served", []string{"app.example.com"}, http.MethodGet, "https://evil.test", false, http.StatusOK, ""},
		{"preflight allowed", nil, http.MethodOptions, "https://a.example.com", true, http.StatusNoContent, "https://a.example.com"},
		{"preflight rejected", []string{"app.example.com"}, http.MethodOptions, "https://evil.test", true, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/bookmarks", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestMatchHost(t *testing.T) {
	assert.Equal(t, true, matchHost("example.com", "example.com"))
	assert.Equal(t, true, matchHost("a.example.com", "*.example.com"))
	assert.Equal(t, false, matchHost("example.com", "*.example.com"))
	assert.Equal(t, false, matchHost("example.org", "example.com"))
}
