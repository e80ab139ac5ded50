package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/mesh-signaling/internal/broker"
	"github.com/mossy-p/mesh-signaling/internal/models"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	Conn *websocket.Conn

	sub   *broker.Subscription
	peers *peerSession
}

// HandleSignaling upgrades the request and relays signaling messages between
// the connection and the broadcast topic.
func (s *Server) HandleSignaling(c *gin.Context) {
	// Subscribe before the handshake completes so the client cannot miss
	// frames broadcast right after it connects.
	sub := s.hub.Subscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.hub.Unsubscribe(sub)
		s.wsLog.Warnf("failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		Conn:  conn,
		sub:   sub,
		peers: newPeerSession(sub.ID),
	}
	s.wsLog.Infof("connection %s opened from %s", client.sub.ID, c.Request.RemoteAddr)

	go s.writePump(client)
	go s.readPump(client)
}

func (s *Server) readPump(client *Client) {
	defer func() {
		s.disconnect(client.peers)
		s.hub.Unsubscribe(client.sub)
		client.Conn.Close()
		s.wsLog.Infof("connection %s closed", client.sub.ID)
	}()

	if s.cfg.MaxMessageBytes > 0 {
		client.Conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	client.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.wsLog.Warnf("connection %s: %v", client.sub.ID, err)
			}
			return
		}

		msg, err := models.DecodeInbound(message, s.cfg.InboundDestination)
		if err != nil {
			s.wsLog.Warnf("connection %s: %v", client.sub.ID, err)
			continue
		}

		s.dispatch(client.peers, msg)
	}
}

func (s *Server) writePump(client *Client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.sub.C():
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.wsLog.Warnf("connection %s: failed to write message: %v", client.sub.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
