package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// maxBodyBytes bounds POST /api/bookmarks bodies.
const maxBodyBytes = 64 << 10

// ListBookmarks serves the current state. With ?q= the items are ranked by
// fuzzy score and non-matching items are left out.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Bookmarks.State()
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		items := st.Items
		if query != "" {
			items = domain.SearchBookmarks(query, st.Items)
			d.Logger.Debug("bookmark search",
				logger.String("query", query),
				logger.Int("matches", len(items)))
		}

		out := api.FromState(st, items)
		out.Query = query
		writeJSON(w, d.Logger, http.StatusOK, out)
	}
}

// AddBookmark queues a new bookmark. Blank text is accepted and ignored;
// 503 once the synchronizer has stopped.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.AddRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeMessage(w, d.Logger, http.StatusBadRequest, "invalid request body")
			return
		}

		if domain.IsBlank(req.Text) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if !d.Bookmarks.Add(req.Text) {
			writeMessage(w, d.Logger, http.StatusServiceUnavailable, "synchronizer stopped")
			return
		}

		d.Logger.Info("bookmark add queued",
			logger.Bool("is_url", domain.ClassifyURL(req.Text)),
			logger.String("remote_ip", r.RemoteAddr))
		writeMessage(w, d.Logger, http.StatusAccepted, "bookmark add queued")
	}
}

// DeleteBookmark queues removal of one bookmark. Unknown ids are accepted.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeMessage(w, d.Logger, http.StatusBadRequest, "missing bookmark id")
			return
		}
		if !d.Bookmarks.Delete(id) {
			writeMessage(w, d.Logger, http.StatusServiceUnavailable, "synchronizer stopped")
			return
		}

		d.Logger.Info("bookmark delete queued",
			logger.String("id", id),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, d.Logger, http.StatusAccepted, api.Message{Message: "bookmark delete queued", ID: id})
	}
}

// Retry restarts synchronization with the store.
func Retry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Bookmarks.Retry()
		d.Logger.Info("synchronization retry requested",
			logger.String("remote_ip", r.RemoteAddr))
		writeMessage(w, d.Logger, http.StatusAccepted, "retry triggered")
	}
}

// Import triggers a manual bookmark import
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Importer == nil {
			writeMessage(w, d.Logger, http.StatusNotFound, "import disabled")
			return
		}

		if !d.Importer.Trigger() {
			d.Logger.Warn("bookmark import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeMessage(w, d.Logger, http.StatusTooManyRequests, "import already pending, please wait")
			return
		}

		d.Logger.Info("manual bookmark import triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeMessage(w, d.Logger, http.StatusAccepted, "import triggered")
	}
}
