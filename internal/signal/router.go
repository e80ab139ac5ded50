package signal

import (
	"github.com/pion/logging"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

// Broadcaster delivers a message to every current subscriber.
type Broadcaster interface {
	Broadcast(msg models.SignalMessage)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(msg models.SignalMessage)

// Broadcast calls f(msg).
func (f BroadcasterFunc) Broadcast(msg models.SignalMessage) {
	f(msg)
}

// Router decides what each inbound signaling message turns into. It owns the
// presence registry; all other behaviour is a function of the inbound
// message and the registry snapshot.
type Router struct {
	registry *Registry
	out      Broadcaster
	log      logging.LeveledLogger
}

// RouterConfig configures a Router.
type RouterConfig struct {
	// Broadcaster receives every message the router emits. May be nil when
	// only Handle is used.
	Broadcaster Broadcaster

	// LoggerFactory for creating loggers. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// NewRouter creates a router with an empty registry.
func NewRouter(config RouterConfig) *Router {
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	return &Router{
		registry: NewRegistry(),
		out:      config.Broadcaster,
		log:      factory.NewLogger("signal"),
	}
}

// Handle applies the dispatch policy to msg and returns the message to emit.
//
// A join from a new peer yields new_user and a leave from a member yields
// user_left. Anything else, including a duplicate join, a leave from a
// non-member and unknown types, is returned unchanged.
func (r *Router) Handle(msg models.SignalMessage) models.SignalMessage {
	switch msg.Type {
	case models.SignalTypeJoin:
		if r.registry.Add(msg.Sender) {
			return NewUserMessage(r.registry.SnapshotSorted(), msg.Sender)
		}
	case models.SignalTypeLeave:
		if r.registry.Remove(msg.Sender) {
			return UserLeftMessage(r.registry.SnapshotSorted())
		}
	}
	return msg
}

// Dispatch handles msg and broadcasts the result. It returns the emitted
// message.
func (r *Router) Dispatch(msg models.SignalMessage) models.SignalMessage {
	out := r.Handle(msg)
	r.log.Debugf("signal %s from %q -> %s", msg.Type, msg.Sender, out.Type)
	if r.out != nil {
		r.out.Broadcast(out)
	}
	return out
}

// Presence returns the sorted list of joined peers.
func (r *Router) Presence() []string {
	return r.registry.SnapshotSorted()
}

// IsJoined reports whether id is currently joined.
func (r *Router) IsJoined(id string) bool {
	return r.registry.Contains(id)
}
