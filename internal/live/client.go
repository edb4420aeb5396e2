package live

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxCommandSize bounds frames read from clients; they only send subscription commands.
const maxCommandSize = 4096

// client is one connected WebSocket subscriber.
type client struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	queue *Queue[[]byte]

	mu     sync.RWMutex
	topics map[Topic]bool

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string, conn *websocket.Conn, hub *Hub, topics []Topic) *client {
	c := &client{
		id:     id,
		conn:   conn,
		hub:    hub,
		queue:  NewQueue[[]byte](hub.cfg.InitialQueue, hub.cfg.MaxQueue),
		topics: make(map[Topic]bool, len(topics)),
		done:   make(chan struct{}),
	}
	for _, t := range topics {
		c.topics[t] = true
	}
	return c
}

func (c *client) subscribed(t Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[t]
}

func (c *client) topicList() []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]Topic, 0, len(c.topics))
	for t := range c.topics {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// send queues a control message for this client only.
func (c *client) send(msg Message) {
	msg.SentAt = c.hub.now().UTC()
	frame, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("failed to encode live message", "client", c.id, "error", err)
		return
	}
	if !c.queue.Push(frame) {
		c.hub.drop(c)
	}
}

// writePump is the only goroutine writing data frames to the connection.
func (c *client) writePump() {
	for {
		frame, ok := c.queue.Pop()
		if !ok {
			return
		}

		c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.hub.logger.Debug("live write failed", "client", c.id, "error", err)
			c.disconnect()
			return
		}
	}
}

// pingLoop keeps the connection alive. WriteControl is safe to call
// concurrently with the write pump.
func (c *client) pingLoop() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.hub.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.hub.logger.Debug("failed to send ping", "client", c.id, "error", err)
				c.disconnect()
				return
			}
		}
	}
}

// readPump processes pongs and subscription commands until the peer goes away
// or stops answering pings within the pong wait.
func (c *client) readPump() {
	defer c.disconnect()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("live client read error", "client", c.id, "error", err)
			}
			return
		}
		c.handleCommand(data)
	}
}

func (c *client) handleCommand(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.send(Message{Type: TypeError, Data: "invalid command"})
		return
	}

	topics, err := normalizeTopics(cmd.Topics)
	if err != nil {
		c.send(Message{Type: TypeError, Data: err.Error()})
		return
	}

	c.mu.Lock()
	switch cmd.Action {
	case "subscribe":
		for _, t := range topics {
			c.topics[t] = true
		}
	case "unsubscribe":
		for _, t := range topics {
			delete(c.topics, t)
		}
	default:
		c.mu.Unlock()
		c.send(Message{Type: TypeError, Data: "unknown action " + cmd.Action})
		return
	}
	c.mu.Unlock()

	c.send(Message{Type: TypeSubscriptions, Data: c.topicList()})
}

// disconnect unregisters the client and closes the connection normally.
func (c *client) disconnect() {
	c.hub.remove(c)
	c.shutdown(websocket.CloseNormalClosure, "")
}

// shutdown closes the connection once, sending a close frame with code.
func (c *client) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.queue.Close()
		if c.conn == nil {
			return
		}
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	})
}
