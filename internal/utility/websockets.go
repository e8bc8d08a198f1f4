package utility

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Chat connections currently open: Map[SessionID] -> Connection
var (
	Clients   = make(map[string]*websocket.Conn)
	ClientsMu sync.Mutex

	allowedOrigins = map[string]bool{}
	allowAll       = true

	Upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
)

// SetAllowedOrigins restricts websocket upgrades to the given origins. An
// empty list or "*" allows every origin.
func SetAllowedOrigins(origins []string) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	allowedOrigins = map[string]bool{}
	allowAll = len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowedOrigins[o] = true
	}
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	return allowAll || allowedOrigins[origin]
}

// Register a new client connection
func RegisterClient(sessionID string, conn *websocket.Conn) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	Clients[sessionID] = conn
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Connected")
}

// Unregister a client (when they close the tab)
func UnregisterClient(sessionID string) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	if conn, ok := Clients[sessionID]; ok {
		conn.Close()
		delete(Clients, sessionID)
		log.Info().Str("session_id", sessionID).Msg("WebSocket Client Disconnected")
	}
}

// ActiveClients is the number of open chat connections.
func ActiveClients() int {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	return len(Clients)
}

// CloseAllClients sends a close frame to every connection, used on shutdown.
func CloseAllClients() {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	for id, conn := range Clients {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		delete(Clients, id)
	}
}
