package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/metrics"
)

// Hub fans published messages out to connected WebSocket clients.
type Hub struct {
	cfg      config.LiveConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates a hub. Zero durations and queue sizes fall back to defaults.
func NewHub(cfg config.LiveConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = config.DefaultPingInterval
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = config.DefaultPongWait
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultLiveWriteTimeout
	}
	if cfg.InitialQueue <= 0 {
		cfg.InitialQueue = config.DefaultInitialQueue
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = config.DefaultMaxQueue
	}

	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboards are served from other origins; the channel is read-only public data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Publish sends payload to every client subscribed to topic and returns the
// number of clients it was queued for. It never blocks on a slow client: a
// client whose queue is full is disconnected.
func (h *Hub) Publish(topic Topic, payload any) (int, error) {
	if !topic.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	frame, err := json.Marshal(Message{
		Type:   TypeEvent,
		Topic:  topic,
		Data:   payload,
		SentAt: h.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("encode %s message: %w", topic, err)
	}

	var delivered int
	var overflowed []*client

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0, ErrHubClosed
	}
	for _, c := range h.clients {
		if !c.subscribed(topic) {
			continue
		}
		if c.queue.Push(frame) {
			delivered++
		} else {
			overflowed = append(overflowed, c)
		}
	}
	h.mu.RUnlock()

	metrics.LiveMessagesPublished.WithLabelValues(string(topic)).Inc()

	for _, c := range overflowed {
		h.drop(c)
	}
	return delivered, nil
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	metrics.LiveClients.Sub(float64(len(clients)))
	for _, c := range clients {
		c.shutdown(websocket.CloseGoingAway, "server shutting down")
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams the topics
// selected by the optional ?topics=a,b query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topics, err := ParseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		writeError(w, http.StatusServiceUnavailable, ErrHubClosed.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newClient(uuid.NewString(), conn, h, topics)
	if !h.register(c) {
		c.shutdown(websocket.CloseGoingAway, "server shutting down")
		return
	}

	h.logger.Debug("live client connected", "client", c.id, "topics", topics, "remote", r.RemoteAddr)

	c.send(Message{Type: TypeWelcome, Data: welcome{ClientID: c.id, Topics: c.topicList()}})

	go c.writePump()
	go c.pingLoop()
	go c.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	metrics.LiveClients.Inc()
	return true
}

// remove unregisters c and reports whether it was registered.
func (h *Hub) remove(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return false
	}
	delete(h.clients, c.id)
	metrics.LiveClients.Dec()
	return true
}

// drop disconnects a client that cannot keep up.
func (h *Hub) drop(c *client) {
	if !h.remove(c) {
		return
	}
	metrics.LiveClientsDropped.Inc()
	h.logger.Warn("live client dropped, send queue full",
		"client", c.id,
		"max_queue", h.cfg.MaxQueue,
	)
	c.queue.Close()
	go c.shutdown(websocket.ClosePolicyViolation, "send queue overflow")
}

type welcome struct {
	ClientID string  `json:"client_id"`
	Topics   []Topic `json:"topics"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
