package panel

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ============================================================================
// LIVE HUB — version feed for open pages
// ============================================================================
// Pages hold a WebSocket to /live and reload when the rendered version
// moves past the one they show. The hub only ever writes version numbers;
// anything a client sends is drained and dropped.
// ============================================================================

type liveUpdate struct {
	Version uint64 `json:"version"`
}

type hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			// The panel is embedded cross-origin; the CORS layer is the
			// policy, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// serve upgrades one client and sends it the current version right away,
// so pages opened mid-push catch up without waiting for the next one.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, version uint64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	err = conn.WriteJSON(liveUpdate{Version: version})
	h.mu.Unlock()
	if err != nil {
		h.drop(conn)
		return
	}

	go h.readUntilClose(conn)
}

// broadcast pushes a new version to every client. Writes happen under the
// hub lock — gorilla allows one writer per connection at a time.
func (h *hub) broadcast(version uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(liveUpdate{Version: version}); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "panel shutting down"))
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *hub) readUntilClose(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
