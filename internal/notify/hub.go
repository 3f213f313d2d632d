package notify

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Hub tracks live websocket subscribers keyed by user ID and implements
// Sink. Bid updates are broadcast to every subscriber; winner
// announcements are additionally sent to the winner's own connections.
// A write failure drops only that connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]bool

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) Name() string { return "websocket" }

// Deliver sends the event to all connected subscribers
func (h *Hub) Deliver(event Event) error {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0)
	for _, set := range h.clients {
		for conn := range set {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[Hub] Write failed, dropping connection: %v", err)
			h.drop(conn)
		}
	}
	return nil
}

// Register adds a connection for a user
func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	log.Printf("[Hub] Client connected userID=%d", userID)
}

// Unregister removes a connection for a user
func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
	log.Printf("[Hub] Client disconnected userID=%d", userID)
}

// SubscriberCount returns the number of live connections
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		if set[conn] {
			delete(set, conn)
			if len(set) == 0 {
				delete(h.clients, userID)
			}
		}
	}
	conn.Close()
}

// ServeWS upgrades an HTTP request to a websocket subscription.
// GET /ws?userID=123
func (h *Hub) ServeWS(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("userID"), 10, 32)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid userID query parameter required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Hub] Upgrade failed: %v", err)
		return
	}

	h.Register(uint(userID), conn)

	// Reader loop detects client disconnect; inbound messages are ignored.
	go func() {
		defer func() {
			h.Unregister(uint(userID), conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
