package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/VasudevPatil18/full-stack-interview-platform/internal/config"
	"github.com/VasudevPatil18/full-stack-interview-platform/internal/signaling"
)

// NewRouter builds the HTTP surface of the signaling server: the
// websocket upgrade, a health probe, and the internal endpoint the
// session CRUD layer calls when a host ends a session.
func NewRouter(hub *signaling.Hub, cfg *config.Config) *mux.Router {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if cfg.AllowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == cfg.AllowedOrigin
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/ws", serveWs(hub, &upgrader))
	r.HandleFunc("/internal/rooms/{roomID}/evict", handleEvict(hub)).Methods("POST")
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// serveWs upgrades the HTTP connection and hands the client to the hub.
func serveWs(hub *signaling.Hub, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade connection")
			return
		}

		client := signaling.NewClient(hub, conn)
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

// handleEvict lets the CRUD layer force a room closed when a session
// reaches its business-level end. Evicting a room with no live members
// is fine; the hub treats it as a no-op.
func handleEvict(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomID"]
		hub.EvictRoom(roomID)
		w.WriteHeader(http.StatusNoContent)
	}
}
