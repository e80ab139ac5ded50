package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/mesh-signaling/internal/broker"
	"github.com/mossy-p/mesh-signaling/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired long-poll sessions.
var ErrSessionNotFound = errors.New("poll session not found")

// pollSession is the long-polling stand-in for a WebSocket connection.
type pollSession struct {
	sub   *broker.Subscription
	peers *peerSession

	// Guarded by Server.pollsMu.
	lastSeen  time.Time
	receiving int
}

// OpenPoll starts a long-poll session.
func (s *Server) OpenPoll(c *gin.Context) {
	sub := s.hub.Subscribe()
	session := &pollSession{
		sub:      sub,
		peers:    newPeerSession(sub.ID),
		lastSeen: time.Now(),
	}

	s.pollsMu.Lock()
	s.polls[session.sub.ID] = session
	s.pollsMu.Unlock()

	s.pollLog.Infof("poll session %s opened from %s", session.sub.ID, c.Request.RemoteAddr)
	c.JSON(http.StatusCreated, gin.H{"session": session.sub.ID})
}

// SendPoll routes one message posted by a long-poll session.
func (s *Server) SendPoll(c *gin.Context) {
	session, err := s.touchPoll(c.Param("session"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	body := c.Request.Body
	if s.cfg.MaxMessageBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, s.cfg.MaxMessageBytes)
	}
	frame, err := io.ReadAll(body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
		return
	}

	msg, err := models.DecodeInbound(frame, s.cfg.InboundDestination)
	if err != nil {
		s.pollLog.Warnf("poll session %s: %v", session.sub.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.dispatch(session.peers, msg)
	c.Status(http.StatusNoContent)
}

// ReceivePoll waits for broadcast frames and returns them as a JSON array.
// An empty array means the poll timed out.
func (s *Server) ReceivePoll(c *gin.Context) {
	id := c.Param("session")
	session, err := s.beginReceive(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer s.endReceive(session)

	frames, open := waitFrames(c.Request.Context(), session.sub, s.cfg.PollTimeout)
	if !open && len(frames) == 0 {
		c.JSON(http.StatusGone, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}

	// Frames are written as received so relayed messages stay byte-identical.
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, frame := range frames {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(frame)
	}
	buf.WriteByte(']')
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// ClosePoll ends a long-poll session.
func (s *Server) ClosePoll(c *gin.Context) {
	s.pollsMu.Lock()
	session, ok := s.polls[c.Param("session")]
	if ok {
		delete(s.polls, session.sub.ID)
	}
	s.pollsMu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	s.closePoll(session)
	c.Status(http.StatusNoContent)
}

// RunPollReaper closes idle long-poll sessions until ctx is done.
func (s *Server) RunPollReaper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollSessionTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.reapIdlePolls(now)
		}
	}
}

// reapIdlePolls closes sessions that have not been seen for longer than the
// session TTL and returns how many were closed.
func (s *Server) reapIdlePolls(now time.Time) int {
	var idle []*pollSession

	s.pollsMu.Lock()
	for id, session := range s.polls {
		if session.receiving == 0 && now.Sub(session.lastSeen) > s.cfg.PollSessionTTL {
			delete(s.polls, id)
			idle = append(idle, session)
		}
	}
	s.pollsMu.Unlock()

	for _, session := range idle {
		s.pollLog.Infof("poll session %s expired", session.sub.ID)
		s.closePoll(session)
	}
	return len(idle)
}

func (s *Server) closePoll(session *pollSession) {
	s.disconnect(session.peers)
	s.hub.Unsubscribe(session.sub)
	s.pollLog.Infof("poll session %s closed", session.sub.ID)
}

func (s *Server) touchPoll(id string) (*pollSession, error) {
	s.pollsMu.Lock()
	defer s.pollsMu.Unlock()

	session, ok := s.polls[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = time.Now()
	return session, nil
}

func (s *Server) beginReceive(id string) (*pollSession, error) {
	s.pollsMu.Lock()
	defer s.pollsMu.Unlock()

	session, ok := s.polls[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.receiving++
	session.lastSeen = time.Now()
	return session, nil
}

func (s *Server) endReceive(session *pollSession) {
	s.pollsMu.Lock()
	defer s.pollsMu.Unlock()
	session.receiving--
	session.lastSeen = time.Now()
}

// waitFrames blocks until at least one frame arrives, the timeout passes or
// ctx is done, then drains whatever else is already queued. open is false
// once the subscription has been closed.
func waitFrames(ctx context.Context, sub *broker.Subscription, timeout time.Duration) (frames [][]byte, open bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame, ok := <-sub.C():
		if !ok {
			return nil, false
		}
		frames = append(frames, frame)
	case <-timer.C:
		return nil, true
	case <-ctx.Done():
		return nil, true
	}

	for {
		select {
		case frame, ok := <-sub.C():
			if !ok {
				return frames, false
			}
			frames = append(frames, frame)
		default:
			return frames, true
		}
	}
}
