package runtime

import (
	"log/slog"
	"sync"
	"syncbridge/contract"
	"syncbridge/domain"
	"time"
)

// Broadcaster is the only writer of the history log.
// Every line it records is fanned out in the same critical section, so the
// history order is also the order in which each session receives live lines.
type Broadcaster struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry contract.IRegistry
	history  contract.IHistory
	events   chan<- domain.Entry
	now      func() time.Time
}

// NewBroadcaster wires the registry and history together.
// events may be nil; when set, every appended entry is offered to it without blocking.
func NewBroadcaster(log *slog.Logger, registry contract.IRegistry,
	history contract.IHistory, events chan<- domain.Entry) *Broadcaster {
	return &Broadcaster{
		log:      log,
		registry: registry,
		history:  history,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DeliverExcluding records the line and sends it to every session but the excluded identity.
func (b *Broadcaster) DeliverExcluding(line, excluded string) {
	b.deliver(line, excluded)
}

// DeliverToAll records the line and sends it to every session, sender included.
func (b *Broadcaster) DeliverToAll(line string) {
	b.deliver(line, "")
}

// Admit registers the peer and, before any other delivery can run, sends the
// greeting then the full history through replay. replay is the same session
// seen through an unbounded send path.
func (b *Broadcaster) Admit(peer contract.Peer, replay contract.Peer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.registry.Register(peer.Identity(), peer); err != nil {
		return err
	}
	if err := replay.Send(domain.WelcomeLine(peer.Identity())); err != nil {
		b.log.Warn("Welcome not delivered", "identity", peer.Identity(), "error", err)
		return nil
	}
	if err := b.history.ReplayTo(replay); err != nil {
		b.log.Warn("History replay interrupted", "identity", peer.Identity(), "error", err)
	}
	return nil
}

// deliver is shared by both modes. An empty excluded identity excludes nobody,
// identities are never empty.
func (b *Broadcaster) deliver(line, excluded string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.history.Append(domain.NewEntry(line, b.now()))
	delivered := 0
	for _, peer := range b.registry.Snapshot() {
		if excluded != "" && peer.Identity() == excluded {
			continue
		}
		// A failing peer terminates itself, the others still get the line.
		if err := peer.Send(line); err != nil {
			b.log.Warn("Delivery failed", "identity", peer.Identity(), "error", err)
			continue
		}
		delivered++
	}
	b.log.Info(line, "seq", entry.Seq, "recipients", delivered)
	b.publish(entry)
}

func (b *Broadcaster) publish(entry domain.Entry) {
	if b.events == nil {
		return
	}
	select {
	case b.events <- entry:
	default:
		b.log.Debug("Entry event lost", "seq", entry.Seq)
	}
}
