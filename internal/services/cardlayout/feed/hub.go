package feed

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/louisbranch/tablecards/internal/platform/timeouts"
)

const (
	// Overlay clients only send control frames.
	maxMessageSize = 512
	sendBufferSize = 16
	pingPeriod     = (timeouts.WebsocketPong * 9) / 10
)

// Message is the frame pushed to overlay clients.
type Message struct {
	Type     EventType `json:"type"`
	Slug     string    `json:"slug"`
	EntityID string    `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

type client struct {
	id   string
	slug string
	conn *websocket.Conn
	send chan Message
}

// Hub tracks overlay websocket clients per campaign slug.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub returns a hub accepting websocket upgrades from allowedOrigins. An
// empty list or "*" accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			set[origin] = true
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Clients returns the number of clients watching slug.
func (h *Hub) Clients(slug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[slug])
}

// Run pushes every event from bus to the matching clients until ctx ends.
func (h *Hub) Run(ctx context.Context, bus Bus) error {
	events, err := bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe feed: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case event, ok := <-events:
			if !ok {
				h.closeAll()
				return nil
			}
			h.Broadcast(event)
		}
	}
}

// Broadcast queues event for every client watching its campaign. Clients
// whose buffer is full miss the event.
func (h *Hub) Broadcast(event Event) {
	msg := Message{
		Type:     event.Type,
		Slug:     event.CampaignSlug,
		EntityID: event.EntityID,
		At:       event.At,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[event.CampaignSlug] {
		select {
		case c.send <- msg:
		default:
			log.Printf("feed: client %s is slow, dropping %s", c.id, event.Type)
		}
	}
}

// ServeOverlay upgrades the request and streams change messages for slug
// until the client disconnects.
func (h *Hub) ServeOverlay(w http.ResponseWriter, r *http.Request, slug string) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		http.Error(w, "campaign slug is required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed: websocket upgrade: %v", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		slug: slug,
		conn: conn,
		send: make(chan Message, sendBufferSize),
	}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.slug]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.slug] = set
	}
	set[c] = struct{}{}
	log.Printf("feed: client %s watching %s (total: %d)", c.id, c.slug, len(set))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.slug]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.slug)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for slug, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, slug)
	}
}

// readPump drains control frames so pongs are processed and detects closed
// connections.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(timeouts.WebsocketPong))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(timeouts.WebsocketPong))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("feed: client %s closed: %v", c.id, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeouts.WebsocketWrite))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("feed: write to client %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeouts.WebsocketWrite))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
