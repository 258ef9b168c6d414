package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/synchronizer"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Mode        string `json:"mode,omitempty"`
	ItemsLoaded *int   `json:"items_loaded,omitempty"`
	LastChange  string `json:"last_change,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Bookmarks.State()
		items := len(st.Items)

		lastChange := "never"
		if st.Version > 0 {
			lastChange = st.UpdatedAt.Format("2006-01-02 15:04:05")
		}

		sync := componentStatus{
			OK:          st.Status == synchronizer.StatusReady,
			Mode:        st.Status.String(),
			ItemsLoaded: &items,
			LastChange:  lastChange,
		}
		if st.Error != nil {
			sync.Error = st.Error.Message
		}

		components := map[string]componentStatus{
			"store":        checkBackend(r.Context(), d),
			"synchronizer": sync,
			"import": {
				OK:   true,
				Mode: importMode(d),
			},
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func importMode(d deps.Deps) string {
	if d.Importer == nil {
		return "disabled"
	}
	return "enabled"
}

func determineSyncMode(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "offline" // no store = no reads or writes
	}

	if sync, exists := components["synchronizer"]; exists && !sync.OK {
		return "degraded" // store reachable but the live view is not current
	}

	return "live"
}

func checkBackend(parent context.Context, d deps.Deps) componentStatus {
	if d.Backend == nil {
		return componentStatus{OK: false, Error: "backend not initialized"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Backend.Ping(ctx); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  d.Backend.Kind(),
			Error: err.Error(),
		}
	}

	return componentStatus{OK: true, Mode: d.Backend.Kind()}
}
