package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote only", false, "192.0.2.1:1234", nil, "192.0.2.1"},
		{"remote v6", false, "[2001:db8::1]:1234", nil, "2001:db8::1"},
		{"remote mapped v4", false, "[::ffff:192.0.2.1]:1234", nil, "192.0.2.1"},
		{"headers ignored untrusted", false, "192.0.2.1:1234", map[string]string{"X-Real-IP": "10.0.0.1"}, "192.0.2.1"},
		{"cloudflare first", true, "127.0.0.1:1", map[string]string{"CF-Connecting-IP": "10.0.0.1", "X-Forwarded-For": "10.0.0.2"}, "10.0.0.1"},
		{"left-most forwarded", true, "127.0.0.1:1", map[string]string{"X-Forwarded-For": " 10.0.0.2 , 10.0.0.3"}, "10.0.0.2"},
		{"real ip last", true, "127.0.0.1:1", map[string]string{"X-Real-IP": "10.0.0.4"}, "10.0.0.4"},
		{"invalid header skipped", true, "127.0.0.1:1", map[string]string{"CF-Connecting-IP": "junk", "X-Real-IP": "10.0.0.4"}, "10.0.0.4"},
		{"unparseable remote kept", false, "pipe", nil, "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r, tt.trustProxy))
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m, rejected := NewIPMatcher([]string{"10.0.0.0/8", " 192.0.2.1 ", "2001:db8::/32", "", "nope", "10.1.2.3/33"})
	assert.Equal(t, []string{"nope", "10.1.2.3/33"}, rejected)
	assert.Equal(t, 3, m.Len())

	assert.Equal(t, true, m.Allow("10.9.9.9"))
	assert.Equal(t, true, m.Allow("192.0.2.1"))
	assert.Equal(t, false, m.Allow("192.0.2.2"))
	assert.Equal(t, true, m.Allow("::ffff:10.0.0.1"))
	assert.Equal(t, true, m.Allow("2001:db8:1::1"))
	assert.Equal(t, false, m.Allow(""))
	assert.Equal(t, false, m.Allow("junk"))

	empty, _ := NewIPMatcher(nil)
	assert.Equal(t, true, empty.IsEmpty())
}
