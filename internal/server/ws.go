package server

import (
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler pushes every published update to WebSocket clients as a
// JSON text message.
type LandmarksHandler struct {
	hub *Hub
}

// NewLandmarksHandler creates a new LandmarksHandler reading from hub.
func NewLandmarksHandler(hub *Hub) *LandmarksHandler {
	return &LandmarksHandler{hub: hub}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, unsub := h.hub.SubscribeUpdates()
	defer unsub()

	// Reads only serve to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("websocket write failed: %v", err)
				return
			}
		}
	}
}
