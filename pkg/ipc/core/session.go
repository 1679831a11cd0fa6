// Package core implements the peer session (SPEC_FULL.md §4.D) and
// the router (§4.E): the two pieces that sit on the hot path of every
// frame exchanged between peers.
package core

import (
	"sync"
	"time"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// Conn is the minimal connection surface a Session needs. The
// transport package's WebSocket adapter satisfies it, keeping this
// package free of
// any dependency on a specific transport library — the same
// separation the teacher draws between core.Transport and its relt
// backing implementation.
type Conn interface {
	// SendText writes one text frame. Called only from the session's
	// own writer goroutine, so implementations need not be safe for
	// concurrent use by multiple callers.
	SendText(data []byte) error

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// DefaultOutboxCapacity bounds how many not-yet-written frames a
// Session buffers before it starts reporting back-pressure. It stands
// in for the streaming transport's ~1MiB buffer (SPEC_FULL.md §5);
// capacity is expressed in frames rather than bytes because the
// session never inspects a frame's size once it has been handed off.
const DefaultOutboxCapacity = 256

// Session is one connection's send path: it owns the single writer
// goroutine for its connection, so a peer's outbound frames are
// always written in FIFO order of enqueue (SPEC_FULL.md §5).
type Session struct {
	ID      string
	Group   string
	Version string

	ConnectedAt time.Time

	conn   Conn
	log    types.Logger
	outbox chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// NewSession wraps conn with back-pressure reporting and starts the
// writer goroutine, so frames passed to Send are written from the
// moment it returns.
func NewSession(id, group, version string, conn Conn, log types.Logger, connectedAt time.Time) *Session {
	s := &Session{
		ID:          id,
		Group:       group,
		Version:     version,
		ConnectedAt: connectedAt,
		conn:        conn,
		log:         log,
		outbox:      make(chan []byte, DefaultOutboxCapacity),
		done:        make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Send implements types.Transport. A full outbox is reported as
// back-pressure: the frame is dropped and a warning logged, matching
// the teacher's "transport buffers, beyond its limit it closes" model
// (SPEC_FULL.md §4.D) — here, exceeding the bound closes the session
// outright rather than growing unbounded.
func (s *Session) Send(frame []byte) bool {
	select {
	case s.outbox <- frame:
		return true
	default:
		s.log.Warnf("back-pressure on session %s/%s, closing connection", s.Group, s.ID)
		s.Close()
		return false
	}
}

// Close stops the writer goroutine and closes the underlying
// connection. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Done is closed when the session is closed; the writer goroutine
// returns once it observes this.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SenderID and SenderGroup implement Sender, letting a Session be
// passed directly to Router.HandleIncoming for frames it reads off
// its own connection.
func (s *Session) SenderID() string    { return s.ID }
func (s *Session) SenderGroup() string { return s.Group }

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.outbox:
			if err := s.conn.SendText(frame); err != nil {
				s.log.Debugf("session %s/%s write failed: %v", s.Group, s.ID, err)
				s.Close()
				return
			}
		}
	}
}
