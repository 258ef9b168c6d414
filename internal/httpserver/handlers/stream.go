package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/bookmarkd/internal/api"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

const (
	streamWriteTimeout   = 10 * time.Second
	defaultStreamPing    = 30 * time.Second
	streamReadLimitBytes = 4 << 10
)

// Stream pushes the state as JSON over a websocket: once on connect, then on
// every transition. Clients only read; anything they send is discarded.
func Stream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		// Origin is enforced by the CORS and host middlewares.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	pingInterval := d.StreamPingInterval
	if pingInterval <= 0 {
		pingInterval = defaultStreamPing
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}
		defer func() { _ = ws.Close() }()

		connID := uuid.NewString()
		d.Logger.Info("stream client connected",
			logger.String("conn_id", connID),
			logger.String("remote_ip", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		states, stop := d.Bookmarks.Watch()
		defer stop()

		// Reader: detects the client going away and answers control frames.
		ws.SetReadLimit(streamReadLimitBytes)
		_ = ws.SetReadDeadline(time.Now().Add(2 * pingInterval))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(2 * pingInterval))
		})
		go func() {
			defer cancel()
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		sent := 0
		for {
			select {
			case <-ctx.Done():
				d.Logger.Info("stream client disconnected",
					logger.String("conn_id", connID),
					logger.Int("states_sent", sent))
				return
			case st, ok := <-states:
				if !ok {
					_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
					_ = ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
					return
				}
				_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
				if err := ws.WriteJSON(api.FromState(st, st.Items)); err != nil {
					d.Logger.Debug("stream write failed",
						logger.String("conn_id", connID),
						logger.Error(err))
					return
				}
				sent++
			case <-ticker.C:
				_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
