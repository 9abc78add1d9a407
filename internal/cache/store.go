package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/parkj/tubelens-go/pkg/errors"
)

// Entry wraps a cached value with the instant its fetch completed. The
// timestamp is set exactly once, at write time, and never touched on read.
type Entry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is an in-memory TTL map mirrored to a durable slot. Expiry is lazy:
// Get treats an over-age entry as absent, and Sweep removes everything
// over-age in one pass. Every mutation (Set, Invalidate, Clear, an effective
// Sweep) is followed by a persistence write; Get never writes.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	slot    string
	slots   SlotStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore builds a store and loads its prior contents from the durable
// slot. An absent, unreadable, or structurally invalid slot yields an empty
// store; persistence failures never reach the caller.
func NewStore[T any](ttl time.Duration, slot string, slots SlotStore, logger *zap.Logger) *Store[T] {
	s := &Store[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		slot:    slot,
		slots:   slots,
		logger:  logger,
		now:     time.Now,
	}
	s.load()
	s.Sweep(s.now())
	return s
}

func (s *Store[T]) load() {
	if s.slots == nil {
		return
	}

	data, err := s.slots.Read(context.Background(), s.slot)
	if err != nil {
		s.logger.Warn("Cache slot unreadable, starting empty",
			zap.String("slot", s.slot), zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}

	var entries map[string]Entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("Cache slot corrupt, starting empty",
			zap.String("slot", s.slot), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("Cache slot loaded",
		zap.String("slot", s.slot), zap.Int("entries", len(entries)))
}

func (s *Store[T]) persist() {
	if s.slots == nil {
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error("Cache marshal failed", zap.String("slot", s.slot), zap.Error(err))
		return
	}

	if err := s.slots.Write(context.Background(), s.slot, data); err != nil {
		perr := apperrors.NewPersistError("cache slot write failed", s.slot, err)
		s.logger.Error("Cache slot write failed", zap.String("slot", s.slot), zap.Error(perr))
	}
}

// Get returns the cached value iff an entry exists and is younger than the
// TTL. An expired entry is dropped from memory but the durable slot is left
// alone; the next mutation or sweep rewrites it.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if s.now().Sub(entry.Timestamp) >= s.ttl {
		s.mu.Lock()
		// A Set may have replaced the entry since the read; only evict the
		// exact entry that was seen expired.
		if cur, ok := s.entries[key]; ok && cur.Timestamp.Equal(entry.Timestamp) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}

	return entry.Data, true
}

// Set writes the value with the current instant, overwriting any prior entry
// unconditionally.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{Data: value, Timestamp: s.now()}
	s.mu.Unlock()

	s.persist()
}

func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	s.persist()
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry[T])
	s.mu.Unlock()

	if s.slots != nil {
		if err := s.slots.Delete(context.Background(), s.slot); err != nil {
			perr := apperrors.NewPersistError("cache slot delete failed", s.slot, err)
			s.logger.Error("Cache slot delete failed", zap.String("slot", s.slot), zap.Error(perr))
		}
	}
}

// Sweep removes every entry whose age meets or exceeds the TTL and returns
// the count removed. Invoked opportunistically (on load, on demand) rather
// than on a timer, since the process may be idle for long stretches.
func (s *Store[T]) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if now.Sub(entry.Timestamp) >= s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("Cache swept",
			zap.String("slot", s.slot), zap.Int("removed", removed))
		s.persist()
	}
	return removed
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
