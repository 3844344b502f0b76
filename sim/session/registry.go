// Package session isolates traffic state machines per caller.
//
// The registry lock guards only the id -> chain map. A chain returned by GetOrCreate
// is advanced by its caller without registry locking, so each session must have a
// single writer at a time.
package session

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MiguelAlmeida05/Ruta-Op/sim"
	"github.com/MiguelAlmeida05/Ruta-Op/sim/markov"
)

// Registry maps session ids to Markov chains.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*markov.Chain
	master   int64
}

// NewRegistry creates an empty registry. Each chain's RNG is derived from masterSeed
// and its session id, so a session replays identically across registries with the same seed.
func NewRegistry(masterSeed int64) *Registry {
	return &Registry{
		sessions: make(map[string]*markov.Chain),
		master:   masterSeed,
	}
}

func (r *Registry) newChain(id string) *markov.Chain {
	seed := sim.DeriveSeed(r.master, sim.SubsystemSession(id))
	return markov.NewChain(rand.New(rand.NewSource(seed)))
}

// GetOrCreate returns the chain for id, creating it on first reference.
func (r *Registry) GetOrCreate(id string) *markov.Chain {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.sessions[id]; ok {
		return c
	}
	c := r.newChain(id)
	r.sessions[id] = c
	logrus.Debugf("session: created %q", id)
	return c
}

// Create registers a new session under a random UUID and returns the id.
func (r *Registry) Create() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = r.newChain(id)
	r.mu.Unlock()
	return id
}

// Delete removes id. Unknown ids are a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Export snapshots the chain for id.
func (r *Registry) Export(id string) (markov.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	if !ok {
		return markov.Snapshot{}, false
	}
	return c.Snapshot(), true
}

// Import replaces (or creates) the session id with a fresh chain restored from snap.
func (r *Registry) Import(id string, snap markov.Snapshot) {
	c := r.newChain(id)
	c.Restore(snap)
	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns the live session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}
