package wizard

import (
	"context"
	"sync"
	"time"
)

// Store keeps wizards in memory. Drafts are never persisted; an idle wizard
// is dropped once ttl has passed since it was last used.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Wizard
	ttl   time.Duration
	clock TimeProvider
}

func NewStore(ttl time.Duration, clock TimeProvider) *Store {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &Store{items: map[string]*Wizard{}, ttl: ttl, clock: clock}
}

func (s *Store) Put(w *Wizard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[w.ID] = w
}

func (s *Store) Get(id string) (*Wizard, bool) {
	s.mu.RLock()
	w, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(w, s.clock.Now()) {
		s.Delete(id)
		return nil, false
	}
	return w, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops expired wizards and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, w := range s.items {
		if s.expired(w, now) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done. afterSweep may be nil.
func (s *Store) Run(ctx context.Context, interval time.Duration, afterSweep func(removed, remaining int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if afterSweep != nil {
				afterSweep(removed, s.Len())
			}
		}
	}
}

func (s *Store) expired(w *Wizard, now time.Time) bool {
	return s.ttl > 0 && now.Sub(w.LastSeen()) > s.ttl
}
