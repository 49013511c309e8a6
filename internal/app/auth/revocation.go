package auth

import (
	"sync"
	"time"
)

// Denylist remembers revoked token ids until the tokens would have expired.
type Denylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewDenylist creates an empty denylist.
func NewDenylist() *Denylist {
	return &Denylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks id as revoked until expiresAt.
func (d *Denylist) Revoke(id string, expiresAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, k)
		}
	}
	d.entries[id] = expiresAt
}

// Revoked reports whether id has been revoked.
func (d *Denylist) Revoked(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.entries[id]
	return ok && exp.After(d.now())
}
