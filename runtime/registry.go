package runtime

import (
	"fmt"
	"sort"
	"sync"
	"syncbridge/contract"
	"syncbridge/errors"

	"github.com/samber/lo"
)

// Registry maps every active identity to the outbound side of its session.
// It never owns a session: closing connections is the session's own job.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Peer // map identity -> Peer
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.Peer),
	}
}

// Register claims an identity for a peer.
// A second claim for an identity already present fails and leaves the registry untouched.
func (r *Registry) Register(identity string, peer contract.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[identity]; ok {
		return fmt.Errorf("%w: %q", errors.ErrIdentityConflict, identity)
	}
	r.sessions[identity] = peer
	return nil
}

// Unregister releases an identity and reports whether it was present.
func (r *Registry) Unregister(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[identity]; !ok {
		return false
	}
	delete(r.sessions, identity)
	return true
}

// Snapshot copies the current peers so callers can iterate
// while other sessions register or leave.
func (r *Registry) Snapshot() []contract.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.sessions)
}

func (r *Registry) Contains(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[identity]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Identities returns the active identities in lexical order.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	identities := lo.Keys(r.sessions)
	r.mu.RUnlock()

	sort.Strings(identities)
	return identities
}
