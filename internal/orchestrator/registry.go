package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry serializes turns per session and expires idle sessions. The
// registry lock guards membership and last-seen only; one turn per session
// is ever in flight, so session contents need no further locking.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
}

type registryEntry struct {
	turn     chan struct{} // capacity 1: holding the token = turn in flight
	lastSeen time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{entries: make(map[string]*registryEntry), ttl: ttl}
}

// NewSessionID mints an identifier for requests that arrive without one.
func NewSessionID() string {
	return uuid.NewString()
}

// Acquire blocks until no other turn is running for the session, touches
// its last-seen time, and returns the release function.
func (r *Registry) Acquire(sessionID string) func() {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		e = &registryEntry{turn: make(chan struct{}, 1)}
		r.entries[sessionID] = e
	}
	e.lastSeen = time.Now()
	r.mu.Unlock()

	e.turn <- struct{}{}
	return func() { <-e.turn }
}

// Touch updates last-seen without running a turn.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = time.Now()
	}
	r.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep removes sessions idle past the TTL. It only ever deletes: an entry
// with a turn in flight is skipped, and the registry lock makes deletion
// safe against a concurrent Acquire touch.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.After(cutoff) {
			continue
		}
		select {
		case e.turn <- struct{}{}: // idle, take the token so no turn can start
			delete(r.entries, id)
			removed++
		default: // turn in flight, leave it alone
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					log.Printf("🗑️ Expired %d idle sessions", n)
				}
			}
		}
	}()
}
