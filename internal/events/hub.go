// Package events fans lifecycle notifications out to WebSocket subscribers.
// Subscriptions are keyed by request id; Firehose receives everything.
package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const Firehose = "*"

type Hub struct {
	Upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
	dead chan *websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: make(map[string]map[*websocket.Conn]struct{}),
		dead: make(chan *websocket.Conn, 1024),
	}
}

func (h *Hub) Subscribe(topic string, c *websocket.Conn) {
	h.mu.Lock()
	set := h.subs[topic]
	if set == nil {
		set = make(map[*websocket.Conn]struct{})
		h.subs[topic] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Broadcast delivers payload to the topic's subscribers and the firehose.
// Write failures are left to the reader goroutine to detect.
func (h *Hub) Broadcast(topic string, payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[topic])+len(h.subs[Firehose]))
	for c := range h.subs[topic] {
		conns = append(conns, c)
	}
	for c := range h.subs[Firehose] {
		if _, dup := h.subs[topic][c]; !dup {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(payload); err != nil {
			logrus.WithError(err).Debug("websocket write failed")
		}
	}
}

// MarkDead queues a connection for removal by the reaper.
func (h *Hub) MarkDead(c *websocket.Conn) {
	h.dead <- c
}

// ReapDead removes and closes dead connections. Run as a goroutine.
func (h *Hub) ReapDead() {
	for c := range h.dead {
		h.mu.Lock()
		for _, set := range h.subs {
			delete(set, c)
		}
		h.mu.Unlock()
		_ = c.Close()
	}
}

// Subscribers reports the subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
