package runtime

import (
	"context"
	"log/slog"
	"sync"
	"syncbridge/contract"
	"syncbridge/domain"
	"time"
)

// Hub is the server context shared by every listener and session.
// It is built once at startup and passed explicitly.
type Hub struct {
	log         *slog.Logger
	registry    *Registry
	history     *History
	broadcaster contract.IBroadcaster
	censorer    contract.ICensor
	queueSize   int

	// drainTimeout bounds how long a session ending on its own keeps flushing its queue.
	drainTimeout time.Duration

	mu       sync.Mutex
	wg       sync.WaitGroup
	sessions map[*Session]struct{}
	closing  bool
}

type HubOption func(*Hub)

const defaultDrainTimeout = 5 * time.Second

// WithCensor masks chat text before it is formatted and broadcast.
func WithCensor(censorer contract.ICensor) HubOption {
	return func(h *Hub) {
		h.censorer = censorer
	}
}

// WithDrainTimeout sets how long a session that quits keeps writing its pending lines.
func WithDrainTimeout(timeout time.Duration) HubOption {
	return func(h *Hub) {
		h.drainTimeout = timeout
	}
}

// NewHub creates the registry, history and broadcaster of one server.
// queueSize caps the live lines pending for a single session, 0 means unbounded.
func NewHub(log *slog.Logger, events chan<- domain.Entry, queueSize int, opts ...HubOption) *Hub {
	registry := NewRegistry()
	history := NewHistory()
	h := &Hub{
		log:          log,
		registry:     registry,
		history:      history,
		broadcaster:  NewBroadcaster(log, registry, history, events),
		queueSize:    queueSize,
		drainTimeout: defaultDrainTimeout,
		sessions:     make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) History() *History {
	return h.history
}

func (h *Hub) Broadcaster() contract.IBroadcaster {
	return h.broadcaster
}

// Announce records a system line and sends it to every active session.
func (h *Hub) Announce(line string) {
	h.broadcaster.DeliverToAll(line)
}

// Serve runs a session on conn and blocks until it terminates.
// Once Shutdown has started, conn is closed right away.
func (h *Hub) Serve(conn contract.Conn) {
	session := newSession(h, conn)

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		if err := conn.Close(); err != nil {
			h.log.Debug("Close failed", "remote", conn.RemoteAddr(), "error", err)
		}
		return
	}
	h.sessions[session] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.sessions, session)
		h.mu.Unlock()
		h.wg.Done()
	}()

	h.log.Debug("Session opened", "session", session.ID.String(), "remote", conn.RemoteAddr())
	session.Run()
}

// Live returns the number of connections currently served, identified or not.
func (h *Hub) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every live connection and waits for the sessions to finish.
// It returns context.DeadlineExceeded when they are still running after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.mu.Lock()
	h.closing = true
	for session := range h.sessions {
		session.kick()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("All sessions closed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Sessions still running after shutdown timeout", "timeout", timeout)
		return context.DeadlineExceeded
	}
}

func (h *Hub) censor(text string) string {
	if h.censorer == nil {
		return text
	}
	censored, words := h.censorer.Censor(text)
	if len(words) > 0 {
		h.log.Debug("Chat text censored", "words", len(words))
	}
	return censored
}

func (h *Hub) Sessions() int {
	return h.registry.Len()
}

func (h *Hub) HistoryLen() int {
	return h.history.Len()
}
