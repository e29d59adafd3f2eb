package runtime

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"syncbridge/contract"
	"syncbridge/domain"
	"syncbridge/errors"
	"time"

	"github.com/google/uuid"
)

type State int32

const (
	Connecting State = iota
	Identifying
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Identifying:
		return "identifying"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session is one live connection. It is owned by the goroutine running Run;
// the registry and broadcaster only reach it through the Peer methods.
type Session struct {
	ID         uuid.UUID
	hub        *Hub
	conn       contract.Conn
	log        *slog.Logger
	outbox     *outbox
	identity   string
	registered bool
	state      atomic.Int32
	closeOnce  sync.Once
	writerDone chan struct{}
}

func newSession(hub *Hub, conn contract.Conn) *Session {
	id := uuid.New()
	return &Session{
		ID:     id,
		hub:    hub,
		conn:   conn,
		log:    hub.log.With("session", id.String(), "remote", conn.RemoteAddr()),
		outbox: newOutbox(hub.queueSize),
	}
}

// Identity is only meaningful once the session is registered.
func (s *Session) Identity() string {
	return s.identity
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Send queues a live line. Overflow or a closed session kicks the peer,
// its own receive loop then performs the departure.
// The transport is closed off the caller's goroutine, Send never waits on I/O.
func (s *Session) Send(line string) error {
	if err := s.outbox.push(line, false); err != nil {
		if errors.Is(err, errors.ErrPeerOverflow) {
			s.log.Warn("Outbound queue full, dropping peer")
			s.outbox.close()
			go s.kick()
		}
		return err
	}
	return nil
}

// Run drives the state machine until the connection is gone.
func (s *Session) Run() {
	graceful := false
	defer func() { s.terminate(graceful) }()

	s.setState(Identifying)
	if err := s.identify(); err != nil {
		s.log.Info("Identification failed", "error", err)
		return
	}

	s.setState(Active)
	s.hub.broadcaster.DeliverExcluding(domain.JoinedLine(s.identity), s.identity)
	graceful = s.receive()
}

// identify expects NICK:<name> as the very first line.
func (s *Session) identify() error {
	line, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrProtocolViolation, err)
	}
	cmd := domain.ParseCommand(line)
	if cmd.Type != domain.NickCommand {
		return errors.ErrProtocolViolation
	}

	identity, ok := domain.NormalizeIdentity(cmd.Payload)
	if !ok {
		s.reject()
		return errors.ErrInvalidIdentity
	}
	s.identity = identity
	s.log = s.log.With("identity", identity)

	if err := s.hub.broadcaster.Admit(s, replayPeer{s}); err != nil {
		s.reject()
		return err
	}
	s.registered = true

	s.writerDone = make(chan struct{})
	go s.writeLoop()
	s.log.Info("Session active")
	return nil
}

// receive reports true when the peer ended the session itself, by QUIT or end of stream.
func (s *Session) receive() bool {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			if err == io.EOF {
				s.log.Info("Connection closed by peer")
				return true
			}
			s.log.Info("Connection lost", "error", err)
			return false
		}
		if !s.dispatch(domain.ParseCommand(line)) {
			s.log.Info("Session quit")
			return true
		}
	}
}

// dispatch applies one command and reports whether the loop goes on.
func (s *Session) dispatch(cmd domain.Command) bool {
	b := s.hub.broadcaster
	switch cmd.Type {
	case domain.QuitCommand:
		return false
	case domain.MessageCommand:
		if cmd.Payload == "" {
			return true
		}
		b.DeliverExcluding(domain.ChatLine(s.identity, s.hub.censor(cmd.Payload)), s.identity)
	case domain.TypingOnCommand:
		b.DeliverExcluding(domain.TypingStartedLine(s.identity), s.identity)
	case domain.TypingOffCommand:
		b.DeliverExcluding(domain.TypingStoppedLine(s.identity), s.identity)
	case domain.ReadCommand:
		b.DeliverToAll(domain.ReadReceiptLine(s.identity))
	case domain.SaveChatCommand:
		b.DeliverToAll(domain.SavedLine(s.identity, cmd.Payload))
	default:
		s.log.Debug("Ignoring line", "command", cmd.Type.String())
	}
	return true
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)
	for {
		batch, ok := s.outbox.take()
		if !ok {
			return
		}
		for _, line := range batch {
			if err := s.conn.WriteLine(line); err != nil {
				s.log.Info("Write failed", "error", err)
				s.outbox.close()
				s.kick()
				return
			}
		}
	}
}

// terminate releases the identity, announces the departure and closes the transport.
// A graceful end first lets the writer flush what is already queued, bounded by the drain timeout.
func (s *Session) terminate(graceful bool) {
	s.setState(Terminated)
	if s.registered && s.hub.registry.Unregister(s.identity) {
		s.hub.broadcaster.DeliverExcluding(domain.DepartedLine(s.identity), s.identity)
	}
	if graceful && s.writerDone != nil {
		s.outbox.seal()
		s.awaitWriter()
	}
	s.outbox.close()
	s.kick()
	if s.writerDone != nil {
		<-s.writerDone
	}
	s.log.Debug("Session terminated")
}

func (s *Session) awaitWriter() {
	timer := time.NewTimer(s.hub.drainTimeout)
	defer timer.Stop()
	select {
	case <-s.writerDone:
	case <-timer.C:
		s.log.Warn("Pending lines not flushed before close", "timeout", s.hub.drainTimeout)
	}
}

func (s *Session) reject() {
	if err := s.conn.WriteLine(domain.RejectedLine()); err != nil {
		s.log.Debug("Rejection notice not delivered", "error", err)
	}
}

// kick closes the transport once. A blocked ReadLine or WriteLine then fails.
func (s *Session) kick() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.log.Debug("Close failed", "error", err)
		}
	})
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// replayPeer sends through the outbox without the pending limit.
type replayPeer struct {
	s *Session
}

func (p replayPeer) Identity() string {
	return p.s.identity
}

func (p replayPeer) Send(line string) error {
	return p.s.outbox.push(line, true)
}
