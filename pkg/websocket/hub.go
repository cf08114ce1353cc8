package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/pkg/types"
)

const (
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongTimeout    = 60 * time.Second
	sendBufferSize = 64
)

// Hub fans settlement events out to connected websocket subscribers. A slow
// client that cannot drain its send buffer is dropped rather than allowed to
// stall the broadcast path.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Settlement events are public; any origin may subscribe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// HandleUpgrade upgrades an HTTP request into a subscription connection.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	ConnectedClients.Set(float64(count))
	h.logger.Debug("websocket-client-connected", zap.Int("clients", count))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast serializes each event once and queues it to every subscriber.
func (h *Hub) Broadcast(events []*types.SettlementEvent) {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("settlement-event-marshal-failed", zap.Error(err))
			continue
		}

		h.mu.Lock()
		for c := range h.clients {
			select {
			case c.send <- payload:
				EventsBroadcastTotal.Inc()
			default:
				// Buffer full: the client is too slow, cut it loose.
				delete(h.clients, c)
				close(c.send)
				DroppedClientsTotal.Inc()
			}
		}
		ConnectedClients.Set(float64(len(h.clients)))
		h.mu.Unlock()
	}
}

// Close disconnects every subscriber and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	ConnectedClients.Set(0)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeTimeout))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains the connection to process control frames and detect
// disconnects. Subscribers never send application data.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.conn.Close()
	ConnectedClients.Set(float64(count))
	h.logger.Debug("websocket-client-disconnected", zap.Int("clients", count))
}
