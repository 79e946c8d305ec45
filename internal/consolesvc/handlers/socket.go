package handlers

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// HandleWebSocket upgrades the request and serves console feeds on it until
// the browser disconnects or the session ends.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	// the socket outlives the request
	go h.svc.Hub.Serve(context.WithoutCancel(r.Context()), conn, sess)
}
