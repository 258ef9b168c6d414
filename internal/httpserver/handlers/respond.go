package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, log logger.Logger, status int, msg string) {
	writeJSON(w, log, status, api.Message{Message: msg})
}
