package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/redis/go-redis/v9"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

const publishTimeout = 5 * time.Second

// RedisRelay broadcasts through a Redis pub/sub channel so that every node
// subscribed to the channel delivers the frame to its local hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     logging.LeveledLogger

	readyOnce sync.Once
	ready     chan struct{}
}

// RedisRelayConfig configures a RedisRelay.
type RedisRelayConfig struct {
	Client  *redis.Client
	Channel string
	Hub     *Hub

	// LoggerFactory for creating loggers. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// NewRedisRelay creates a relay. Run must be called to receive frames.
func NewRedisRelay(config RedisRelayConfig) *RedisRelay {
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	return &RedisRelay{
		client:  config.Client,
		channel: config.Channel,
		hub:     config.Hub,
		log:     factory.NewLogger("broker"),
		ready:   make(chan struct{}),
	}
}

// Broadcast publishes msg on the relay channel.
func (r *RedisRelay) Broadcast(msg models.SignalMessage) {
	frame, err := models.Encode(msg)
	if err != nil {
		r.log.Errorf("dropping %s message: %v", msg.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, frame).Err(); err != nil {
		r.log.Errorf("failed to publish %s message to %s: %v", msg.Type, r.channel, err)
	}
}

// Ready is closed once the relay subscription is active.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run subscribes to the relay channel and forwards every frame to the hub
// until ctx is done or the subscription ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.log.Infof("relaying broadcasts through redis channel %s", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Publish([]byte(m.Payload))
		}
	}
}
