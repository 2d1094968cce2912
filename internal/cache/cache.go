package cache

import (
	"sync"
	"time"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
)

// Categories used by the reconciliation workflow.
const (
	CategoryPollForm string = "poll_form"
	CategoryProgram  string = "educational_program"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a process-local TTL cache for read-mostly CRM reference data.
// Expiry is passive: checked on read, no background sweeper. Concurrent use
// is safe; staleness races only cost a redundant remote lookup.
type Store struct {
	mu  sync.RWMutex
	log *logger.Logger
	now func() time.Time

	entries map[string]entry
}

func NewStore(log *logger.Logger) *Store {
	return &Store{
		log:     log.With("component", "ResponseCache"),
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func key(category, identifier string) string {
	return category + ":" + identifier
}

// Get returns the cached value, or false on a miss. An expired entry is
// indistinguishable from a miss and is evicted on the spot.
func (s *Store) Get(category, identifier string) (any, bool) {
	k := key(category, identifier)

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := s.entries[k]; ok && s.now().After(cur.expiresAt) {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(category, identifier string, value any, ttl time.Duration) {
	k := key(category, identifier)
	s.mu.Lock()
	s.entries[k] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Invalidate drops one entry, or the whole category when identifier is "".
func (s *Store) Invalidate(category, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identifier != "" {
		delete(s.entries, key(category, identifier))
		return
	}
	prefix := category + ":"
	removed := 0
	for k := range s.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.entries, k)
			removed++
		}
	}
	s.log.Info("Cache category invalidated", "category", category, "removed", removed)
}

// Stats reports entry counts per category, for the health/diagnostics layer.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for k := range s.entries {
		for i := 0; i < len(k); i++ {
			if k[i] == ':' {
				counts[k[:i]]++
				break
			}
		}
	}
	return counts
}
