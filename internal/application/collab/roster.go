package collab

import (
	"sort"
	"sync"
	"time"

	"github.com/shiptrack/backend/internal/domain/collab"
)

// Roster tracks who is present at a store's grid. It keeps the latest
// announcement per user; entries not refreshed within the TTL are treated
// as departed and pruned on the next read.
type Roster struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]collab.PresenceEntry
}

// NewRoster creates a roster with the given liveness TTL.
func NewRoster(ttl time.Duration) *Roster {
	return &Roster{
		ttl:     ttl,
		entries: make(map[string]collab.PresenceEntry),
	}
}

// Upsert records the latest announcement for a user. A stale announcement
// arriving out of order never overwrites a newer one.
func (r *Roster) Upsert(entry collab.PresenceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[entry.UserID]; ok && existing.LastSeenAt.After(entry.LastSeenAt) {
		return
	}
	r.entries[entry.UserID] = entry
}

// Remove drops a user on explicit disconnect.
func (r *Roster) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// Active returns the live entries, pruning anyone whose last announcement
// is older than the TTL. Results are ordered by user ID for stable output.
func (r *Roster) Active(now time.Time) []collab.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(-r.ttl)
	out := make([]collab.PresenceEntry, 0, len(r.entries))
	for id, entry := range r.entries {
		if entry.LastSeenAt.Before(cutoff) {
			delete(r.entries, id)
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
