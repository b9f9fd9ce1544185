// Package ws is the websocket transport adapter. It gives the relay the
// capability it assumes from its transport: named events, per-connection
// identity and room-style group addressing.
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// session wraps one websocket and serializes outbound writes through a
// buffered channel. Its id is the socket id the presence registry keys on.
type session struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func newSession(ws *websocket.Conn, sendBuffer int) *session {
	return &session{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// start launches the write loop. It must be called exactly once.
func (s *session) start() {
	go s.writeLoop()
}

// enqueue hands a frame to the write loop. A slow consumer whose buffer is
// full gets dropped rather than blocking the relay.
func (s *session) enqueue(payload []byte) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- payload:
		return nil
	default:
		s.close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("send buffer exceeded")
	}
}

func (s *session) close(code int, reason string) {
	s.once.Do(func() {
		close(s.done)
		deadline := time.Now().Add(writeWait)
		_ = s.ws.SetWriteDeadline(deadline)
		_ = s.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.ws.Close()
	})
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) write(messageType int, payload []byte) error {
	if err := s.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.ws.WriteMessage(messageType, payload)
}
