package alerts

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper keeps alert claims in process memory. Suitable for a single replica.
type MemoryDeduper struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryDeduper creates an empty in-memory deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Claim implements Deduper.
func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.evictExpired(now)

	if _, ok := d.claims[key]; ok {
		return false, nil
	}
	d.claims[key] = now.Add(ttl)
	return true, nil
}

// Release implements Deduper.
func (d *MemoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.claims, key)
	return nil
}

// Len returns the number of live claims.
func (d *MemoryDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evictExpired(d.now())
	return len(d.claims)
}

func (d *MemoryDeduper) evictExpired(now time.Time) {
	for key, expires := range d.claims {
		if !now.Before(expires) {
			delete(d.claims, key)
		}
	}
}
