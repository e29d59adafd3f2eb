package runtime

import (
	"fmt"
	"sync"
	"syncbridge/contract"
	"syncbridge/domain"

	"github.com/samber/lo"
)

// History is the append-only log of every line already broadcast.
// It lives as long as the process and is never trimmed.
type History struct {
	mu      sync.RWMutex
	entries []domain.Entry
}

func NewHistory() *History {
	return &History{}
}

// Append stamps the entry with the next sequence number and stores it.
func (h *History) Append(entry domain.Entry) domain.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry.Seq = uint64(len(h.entries)) + 1
	h.entries = append(h.entries, entry)
	return entry
}

// ReplayTo sends every stored line, in order, to a single peer.
// The sequence sent is the prefix visible when the call started.
func (h *History) ReplayTo(peer contract.Peer) error {
	for i, line := range h.Lines() {
		if err := peer.Send(line); err != nil {
			return fmt.Errorf("replay stopped at line %d for %q: %w", i+1, peer.Identity(), err)
		}
	}
	return nil
}

func (h *History) Lines() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.Map(h.entries, func(item domain.Entry, _ int) string {
		return item.Line
	})
}

func (h *History) Entries() []domain.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]domain.Entry(nil), h.entries...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}
