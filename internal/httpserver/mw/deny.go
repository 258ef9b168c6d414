package mw

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
)

// deny ends the request with the same JSON body shape the handlers use.
func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Message{Message: msg})
}
