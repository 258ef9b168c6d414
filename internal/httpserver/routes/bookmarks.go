package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	api := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		middleware.Timeout(d.RequestTimeout),
	)
	writes := api.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10_000,
		TrustProxy:        d.TrustProxy,
	}))

	api.Get("/api/bookmarks", handlers.ListBookmarks(d))
	writes.Post("/api/bookmarks", handlers.AddBookmark(d))
	writes.Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))
	writes.Post("/api/retry", handlers.Retry(d))
	writes.Post("/api/import", handlers.Import(d))
}
