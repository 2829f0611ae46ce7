package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ShadowCodeSoftware/E-sante/internal/events"
)

// ChangesHandler streams collection changes over a websocket
type ChangesHandler struct {
	broker         *events.Broker
	logger         *slog.Logger
	allowedOrigins []string
	pingInterval   time.Duration
}

// NewChangesHandler creates a new change feed handler
func NewChangesHandler(broker *events.Broker, logger *slog.Logger, allowedOrigins []string) *ChangesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangesHandler{
		broker:         broker,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		pingInterval:   15 * time.Second,
	}
}

func (h *ChangesHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/changes
func (h *ChangesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	changes, cancel := h.broker.Subscribe()
	defer cancel()

	// The client never sends anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			h.logger.Debug("change feed client disconnected")
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := ws.WriteJSON(c); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}
