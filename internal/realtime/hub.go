// Package realtime pushes full result sets to subscribers whenever a
// collection changes. A slow subscriber only ever sees the latest snapshot.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Topics
const (
	TopicProducts  = "products"
	TopicAllOrders = "orders"
)

// UserOrdersTopic is the topic carrying the order list of one user
func UserOrdersTopic(userID uuid.UUID) string {
	return "orders:" + userID.String()
}

type subscriber struct {
	ch chan []byte
}

// Hub fans snapshots out to topic subscribers
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers for snapshots on topic. The returned cancel func must be
// called once the subscriber is done; the channel is closed by it.
func (h *Hub) Subscribe(topic string) (<-chan []byte, func()) {
	sub := &subscriber{ch: make(chan []byte, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscriber]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[topic][sub]; !ok {
				return
			}
			delete(h.subs[topic], sub)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish encodes snapshot as JSON and delivers it to every subscriber of topic
func (h *Hub) Publish(topic string, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[topic] {
		deliver(sub.ch, payload)
	}
	h.logger.Debug("Published snapshot",
		zap.String("topic", topic),
		zap.Int("subscribers", len(h.subs[topic])),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// deliver replaces any undelivered snapshot with payload
func deliver(ch chan []byte, payload []byte) {
	for {
		select {
		case ch <- payload:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribers reports how many subscribers topic has
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, topic)
	}
}
