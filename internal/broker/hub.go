package broker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

// DefaultSubscriberBuffer is the number of frames queued per subscriber
// before new frames are dropped.
const DefaultSubscriberBuffer = 256

// Subscription is one subscriber of the broadcast topic.
type Subscription struct {
	ID string

	send chan []byte
}

// C returns the channel frames are delivered on. It is closed by
// Hub.Unsubscribe.
func (s *Subscription) C() <-chan []byte {
	return s.send
}

// Hub fans every broadcast frame out to all current subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	log    logging.LeveledLogger
}

// HubConfig configures a Hub.
type HubConfig struct {
	// SubscriberBuffer defaults to DefaultSubscriberBuffer.
	SubscriberBuffer int

	// LoggerFactory for creating loggers. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// NewHub creates a hub with no subscribers.
func NewHub(config HubConfig) *Hub {
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	buffer := config.SubscriberBuffer
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		log:    factory.NewLogger("broker"),
	}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:   uuid.New().String(),
		send: make(chan []byte, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	h.log.Debugf("subscriber %s added", sub.ID)
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it more than once
// is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.send)
	h.log.Debugf("subscriber %s removed", sub.ID)
}

// Broadcast encodes msg and publishes it to every subscriber.
func (h *Hub) Broadcast(msg models.SignalMessage) {
	frame, err := models.Encode(msg)
	if err != nil {
		h.log.Errorf("dropping %s message: %v", msg.Type, err)
		return
	}
	h.Publish(frame)
}

// Publish delivers an encoded frame to every subscriber without blocking.
// Subscribers whose buffer is full miss the frame.
func (h *Hub) Publish(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		select {
		case sub.send <- frame:
		default:
			h.log.Warnf("failed to send message to subscriber %s, buffer full", id)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
