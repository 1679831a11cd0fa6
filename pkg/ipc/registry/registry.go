// Package registry implements the per-group peer registry (SPEC_FULL.md
// §4.C): the mapping from a group name to its live, ordered peer set.
package registry

import (
	"sync"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// group holds one database name's peer set, guarded by its own mutex
// so that dispatch to group A never contends with admission into
// group B (SPEC_FULL.md §5).
type group struct {
	mu    sync.Mutex
	peers []types.Peer
}

// Registry maps group names to their peer sets. The zero value is not
// usable; construct with New.
type Registry struct {
	mu     sync.Mutex
	groups map[string]*group
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{groups: make(map[string]*group)}
}

// Ensure creates the group entry for name if it is absent.
func (r *Registry) Ensure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(name)
}

func (r *Registry) ensureLocked(name string) *group {
	g, ok := r.groups[name]
	if !ok {
		g = &group{}
		r.groups[name] = g
	}
	return g
}

// Add inserts peer into its group. If a peer with the same id is
// already present, the incumbent's transport is closed first (the
// router relies on the ensuing close event to drive that peer's
// removal; Add does not wait for it — see SPEC_FULL.md §4.C).
func (r *Registry) Add(peer types.Peer) {
	r.mu.Lock()
	g := r.ensureLocked(peer.Group)
	r.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.peers {
		if existing.ID == peer.ID {
			existing.Transport.Close()
			break
		}
	}
	g.peers = append(g.peers, peer)
}

// Remove deletes the peer with the given (group, id) if present and
// its registered Transport is still transport. The transport check
// matters when a duplicate-id admission has already replaced the
// entry: the evicted connection's own close event must not rip out
// the peer that replaced it. Remove returns true only when it
// actually removed something, so the caller (the router's lifecycle
// helpers) can suppress a second disconnect broadcast for a
// transport that closes more than once (idempotent disconnect,
// SPEC_FULL.md §8).
func (r *Registry) Remove(groupName, id string, transport types.Transport) bool {
	r.mu.Lock()
	g, ok := r.groups[groupName]
	r.mu.Unlock()
	if !ok {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i, existing := range g.peers {
		if existing.ID == id && existing.Transport == transport {
			g.peers = append(g.peers[:i], g.peers[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns the peer with the given id in groupName, if any.
func (r *Registry) FindByID(groupName, id string) (types.Peer, bool) {
	r.mu.Lock()
	g, ok := r.groups[groupName]
	r.mu.Unlock()
	if !ok {
		return types.Peer{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.peers {
		if existing.ID == id {
			return existing, true
		}
	}
	return types.Peer{}, false
}

// AllPeers returns a snapshot of every peer across every group. It
// exists for the server's shutdown path, which must close every
// active session regardless of which group it belongs to.
func (r *Registry) AllPeers() []types.Peer {
	r.mu.Lock()
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	r.mu.Unlock()

	var all []types.Peer
	for _, name := range names {
		all = append(all, r.List(name)...)
	}
	return all
}

// List returns a snapshot of groupName's peers in insertion order. The
// returned slice is a copy: callers may iterate it without holding any
// registry lock, which is what lets a concurrent Add/Remove never
// half-deliver a broadcast (SPEC_FULL.md §5).
func (r *Registry) List(groupName string) []types.Peer {
	r.mu.Lock()
	g, ok := r.groups[groupName]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]types.Peer, len(g.peers))
	copy(out, g.peers)
	return out
}
