// Package client is a signaling peer for the mesh relay. It speaks the same
// wire format as the browser clients and leaves media negotiation to the
// caller.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"github.com/mossy-p/mesh-signaling/internal/models"
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("signaling client closed")

// Client is a WebSocket signaling client for one peer.
type Client struct {
	id   string
	conn *websocket.Conn
	log  logging.LeveledLogger

	mu     sync.Mutex
	closed bool

	messages chan models.SignalMessage
	done     chan struct{}
}

// Config configures a Client.
type Config struct {
	// URL of the signaling WebSocket endpoint, e.g. ws://host:8080/ws.
	URL string
	// ID is the sender identifier used for every message.
	ID string

	// Buffer is the number of inbound messages queued before the reader
	// blocks. Defaults to 64.
	Buffer int

	// LoggerFactory for creating loggers. If nil, uses DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// Dial connects to the signaling endpoint and starts reading messages.
func Dial(cfg Config) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("signaling dial: %w", err)
	}

	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	c := &Client{
		id:       cfg.ID,
		conn:     conn,
		log:      factory.NewLogger("client"),
		messages: make(chan models.SignalMessage, buffer),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// ID returns the peer's sender identifier.
func (c *Client) ID() string {
	return c.id
}

// Messages returns every message broadcast by the relay, including the
// client's own. The channel is closed when the connection ends.
func (c *Client) Messages() <-chan models.SignalMessage {
	return c.messages
}

// Join announces the peer.
func (c *Client) Join() error {
	return c.send(models.SignalMessage{Type: models.SignalTypeJoin, Sender: c.id})
}

// Leave withdraws the peer.
func (c *Client) Leave() error {
	return c.send(models.SignalMessage{Type: models.SignalTypeLeave, Sender: c.id})
}

// SendOffer sends a session offer to target.
func (c *Client) SendOffer(target string, offer webrtc.SessionDescription) error {
	return c.sendTo(models.SignalTypeOffer, target, offer)
}

// SendAnswer sends a session answer to target.
func (c *Client) SendAnswer(target string, answer webrtc.SessionDescription) error {
	return c.sendTo(models.SignalTypeAnswer, target, answer)
}

// SendCandidate sends an ICE candidate to target.
func (c *Client) SendCandidate(target string, candidate webrtc.ICECandidateInit) error {
	return c.sendTo(models.SignalTypeCandidate, target, candidate)
}

// Close shuts down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.conn.Close()
}

func (c *Client) sendTo(t models.SignalType, target string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return c.send(models.SignalMessage{
		Type:   t,
		Sender: c.id,
		Target: models.StringPtr(target),
		Data:   data,
	})
}

func (c *Client) send(msg models.SignalMessage) error {
	frame, err := models.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop() {
	defer close(c.messages)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warnf("signaling read error: %v", err)
			}
			return
		}

		msg, err := models.Decode(frame)
		if err != nil {
			c.log.Warnf("dropping frame: %v", err)
			continue
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}
}
