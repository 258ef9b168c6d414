package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/utils"
)

// AllowOnlyCIDRS restricts the bookmark API to callers inside the configured
// addresses or prefixes. An empty list disables the check. Unparseable entries
// are logged and ignored; a list made only of those denies everyone.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, rejected := utils.NewIPMatcher(allowed)
	if len(rejected) > 0 {
		log.Warn("ignoring invalid allowed_cidrs entries", logger.String("entries", strings.Join(rejected, ",")))
	}
	if m.IsEmpty() && len(rejected) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	log.Debug("client address filter enabled", logger.Int("rules", m.Len()), logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("client address rejected",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				deny(w, http.StatusForbidden, "client address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
