package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

// Registry holds the latest snapshot of every monitored server.
// A nil snapshot means "no data yet" or "server presumed down".
type Registry struct {
	mu         sync.RWMutex
	servers    map[string]*domain.ServerSnapshot // address -> snapshot (nil = absent)
	lastUpdate time.Time
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		servers: make(map[string]*domain.ServerSnapshot),
	}
}

// Register makes addr known with no data. Existing entries are left untouched.
func (r *Registry) Register(addr domain.ServerAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := addr.String()
	if _, ok := r.servers[key]; !ok {
		r.servers[key] = nil
	}
}

// Set replaces the snapshot for addr. Passing nil clears it.
func (r *Registry) Set(addr domain.ServerAddress, snap *domain.ServerSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.servers[addr.String()] = snap
	r.lastUpdate = time.Now()
}

// Clear marks addr as having no data.
func (r *Registry) Clear(addr domain.ServerAddress) {
	r.Set(addr, nil)
}

// Get returns the snapshot for addr and whether addr is known at all.
func (r *Registry) Get(addr domain.ServerAddress) (*domain.ServerSnapshot, bool) {
	return r.Lookup(addr.String())
}

// Lookup is Get keyed by the "host:port" string.
func (r *Registry) Lookup(key string) (*domain.ServerSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.servers[key]
	return snap, ok
}

// All returns a copy of the whole registry.
func (r *Registry) All() map[string]*domain.ServerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.ServerSnapshot, len(r.servers))
	for k, v := range r.servers {
		out[k] = v
	}
	return out
}

// Addresses returns every known "host:port", sorted.
func (r *Registry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.servers))
	for k := range r.servers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of known servers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.servers)
}

// Available returns how many servers currently have data.
func (r *Registry) Available() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, snap := range r.servers {
		if snap != nil {
			n++
		}
	}
	return n
}

// LastUpdate returns when any entry was last written.
func (r *Registry) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastUpdate
}
