package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/logging"

	"github.com/mossy-p/mesh-signaling/config"
	"github.com/mossy-p/mesh-signaling/internal/broker"
	"github.com/mossy-p/mesh-signaling/internal/models"
	"github.com/mossy-p/mesh-signaling/internal/signal"
)

const (
	defaultPingInterval   = 54 * time.Second
	defaultReadTimeout    = 60 * time.Second
	defaultPollTimeout    = 25 * time.Second
	defaultPollSessionTTL = 60 * time.Second
)

// Server exposes the signaling router over WebSocket and long-polling.
type Server struct {
	router            *signal.Router
	hub               *broker.Hub
	cfg               config.SignalConfig
	leaveOnDisconnect bool

	pollsMu sync.Mutex
	polls   map[string]*pollSession

	// presenceMu serialises join and leave dispatches with the owners map so
	// ownership always matches the registry.
	presenceMu sync.Mutex
	owners     map[string]*peerSession

	wsLog   logging.LeveledLogger
	pollLog logging.LeveledLogger
	httpLog logging.LeveledLogger
}

// Config configures a Server.
type Config struct {
	Router *signal.Router
	Hub    *broker.Hub
	Signal config.SignalConfig

	// LeaveOnDisconnect makes a closed connection leave on behalf of every
	// peer that joined through it.
	LeaveOnDisconnect bool

	// LoggerFactory for creating loggers. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	signalCfg := cfg.Signal
	if signalCfg.PingInterval <= 0 {
		signalCfg.PingInterval = defaultPingInterval
	}
	if signalCfg.ReadTimeout <= 0 {
		signalCfg.ReadTimeout = defaultReadTimeout
	}
	if signalCfg.PollTimeout <= 0 {
		signalCfg.PollTimeout = defaultPollTimeout
	}
	if signalCfg.PollSessionTTL <= 0 {
		signalCfg.PollSessionTTL = defaultPollSessionTTL
	}
	return &Server{
		router:            cfg.Router,
		hub:               cfg.Hub,
		cfg:               signalCfg,
		leaveOnDisconnect: cfg.LeaveOnDisconnect,
		polls:             make(map[string]*pollSession),
		owners:            make(map[string]*peerSession),
		wsLog:             factory.NewLogger("ws"),
		pollLog:           factory.NewLogger("poll"),
		httpLog:           factory.NewLogger("http"),
	}
}

// RegisterRoutes mounts the signaling endpoints on r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/presence", s.GetPresence)
		api.GET("/info", s.GetInfo)
	}

	endpoint := "/" + strings.Trim(s.cfg.Endpoint, "/")
	r.GET(endpoint, s.HandleSignaling)

	poll := r.Group(endpoint + "/poll")
	{
		poll.POST("", s.OpenPoll)
		poll.POST("/:session", s.SendPoll)
		poll.GET("/:session", s.ReceivePoll)
		poll.DELETE("/:session", s.ClosePoll)
	}
}

// GetPresence returns the currently joined peers.
func (s *Server) GetPresence(c *gin.Context) {
	users := s.router.Presence()
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GetInfo returns the endpoint and destinations clients should use.
func (s *Server) GetInfo(c *gin.Context) {
	endpoint := "/" + strings.Trim(s.cfg.Endpoint, "/")
	c.JSON(http.StatusOK, gin.H{
		"endpoint":             endpoint,
		"pollEndpoint":         endpoint + "/poll",
		"inboundDestination":   s.cfg.InboundDestination,
		"broadcastDestination": s.cfg.BroadcastDestination,
	})
}

// peerSession identifies one connection, WebSocket or long-poll.
type peerSession struct {
	id string
}

func newPeerSession(id string) *peerSession {
	return &peerSession{id: id}
}

// dispatch routes msg on behalf of p. A peer is owned by the session that
// most recently joined it; a leave from any session ends the ownership.
func (s *Server) dispatch(p *peerSession, msg models.SignalMessage) {
	if msg.Type != models.SignalTypeJoin && msg.Type != models.SignalTypeLeave {
		s.router.Dispatch(msg)
		return
	}

	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()

	out := s.router.Dispatch(msg)
	switch {
	case out.Type == models.SignalTypeNewUser:
		s.owners[msg.Sender] = p
	case out.Type == models.SignalTypeUserLeft:
		delete(s.owners, msg.Sender)
	case msg.Type == models.SignalTypeJoin && s.router.IsJoined(msg.Sender):
		// A duplicate join is a peer reconnecting; the old session no
		// longer speaks for it.
		s.owners[msg.Sender] = p
	}
}

// disconnect leaves on behalf of every peer p still owns.
func (s *Server) disconnect(p *peerSession) {
	if !s.leaveOnDisconnect {
		return
	}

	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()

	for id, owner := range s.owners {
		if owner != p {
			continue
		}
		delete(s.owners, id)
		s.router.Dispatch(models.SignalMessage{
			Type:   models.SignalTypeLeave,
			Sender: id,
		})
	}
}
