package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readyz is 200 once the collection is loaded and 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Bookmarks.State()
		resp := readyzResponse{
			Ready:  st.Status == synchronizer.StatusReady,
			Status: st.Status.String(),
		}
		if st.Error != nil {
			resp.Error = st.Error.Message
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, status, resp)
	}
}
