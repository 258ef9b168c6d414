package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		trustProxy bool
		remoteAddr string
		xff        string
		want       int
	}{
		{"no rules", nil, false, "203.0.113.9:4000", "", http.StatusOK},
		{"inside prefix", []string{"10.0.0.0/8"}, false, "10.1.2.3:4000", "", http.StatusOK},
		{"outside prefix", []string{"10.0.0.0/8"}, false, "192.0.2.1:4000", "", http.StatusForbidden},
		{"single address", []string{"192.0.2.1"}, false, "192.0.2.1:4000", "", http.StatusOK},
		{"mapped ipv4 remote", []string{"192.0.2.0/24"}, false, "[::ffff:192.0.2.7]:4000", "", http.StatusOK},
		{"ipv6 prefix", []string{"2001:db8::/32"}, false, "[2001:db8::1]:4000", "", http.StatusOK},
		{"forwarded ignored without trust", []string{"10.0.0.0/8"}, false, "192.0.2.1:4000", "10.0.0.1", http.StatusForbidden},
		{"forwarded honoured with trust", []string{"10.0.0.0/8"}, true, "127.0.0.1:4000", "10.0.0.1, 127.0.0.1", http.StatusOK},
		{"garbage forwarded falls back to remote", []string{"127.0.0.0/8"}, true, "127.0.0.1:4000", "not-an-ip", http.StatusOK},
		{"only invalid entries deny", []string{"nonsense"}, false, "10.0.0.1:4000", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.Nop())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestEnforceHost(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		host    string
		want    int
	}{
		{"no rules", nil, "anything.test", http.StatusOK},
		{"exact", []string{"bookmarks.example.com"}, "bookmarks.example.com", http.StatusOK},
		{"port ignored", []string{"bookmarks.example.com"}, "bookmarks.example.com:8080", http.StatusOK},
		{"case folded", []string{"Bookmarks.Example.com"}, "BOOKMARKS.example.com", http.StatusOK},
		{"wildcard subdomain", []string{"*.example.com"}, "a.example.com", http.StatusOK},
		{"wildcard excludes apex", []string{"*.example.com"}, "example.com", http.StatusForbidden},
		{"wildcard needs dot boundary", []string{"*.example.com"}, "badexample.com", http.StatusForbidden},
		{"unknown", []string{"bookmarks.example.com"}, "evil.test", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := EnforceHost(tt.allowed, logger.Nop())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDeniedRequestsGetJSON(t *testing.T) {
	h := EnforceHost([]string{"bookmarks.example.com"}, logger.Nop())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	req.Host = "evil.test"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, true, strings.Contains(rec.Body.String(), `"message":"unknown host"`))
}
