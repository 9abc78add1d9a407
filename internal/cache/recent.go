package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/parkj/tubelens-go/pkg/errors"
)

// RecentSearches is a small persisted most-recent-first list of distinct
// search queries, capped at a fixed size. Re-entering a known query moves it
// to the front instead of duplicating it.
type RecentSearches struct {
	mu      sync.Mutex
	queries []string
	limit   int
	slot    string
	slots   SlotStore
	logger  *zap.Logger
}

func NewRecentSearches(limit int, slot string, slots SlotStore, logger *zap.Logger) *RecentSearches {
	r := &RecentSearches{
		limit:  limit,
		slot:   slot,
		slots:  slots,
		logger: logger,
	}
	r.load()
	return r
}

func (r *RecentSearches) load() {
	if r.slots == nil {
		return
	}

	data, err := r.slots.Read(context.Background(), r.slot)
	if err != nil || len(data) == 0 {
		if err != nil {
			r.logger.Warn("Recent searches slot unreadable", zap.Error(err))
		}
		return
	}

	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		r.logger.Warn("Recent searches slot corrupt, starting empty", zap.Error(err))
		return
	}
	if len(queries) > r.limit {
		queries = queries[:r.limit]
	}
	r.queries = queries
}

func (r *RecentSearches) persist() {
	if r.slots == nil {
		return
	}

	data, err := json.Marshal(r.queries)
	if err != nil {
		r.logger.Error("Recent searches marshal failed", zap.Error(err))
		return
	}
	if err := r.slots.Write(context.Background(), r.slot, data); err != nil {
		cerr := apperrors.NewCacheError("recent searches write failed", "write", r.slot, err)
		r.logger.Error("Recent searches write failed", zap.Error(cerr))
	}
}

func (r *RecentSearches) Add(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	r.mu.Lock()
	filtered := make([]string, 0, len(r.queries)+1)
	filtered = append(filtered, query)
	for _, q := range r.queries {
		if q != query {
			filtered = append(filtered, q)
		}
	}
	if len(filtered) > r.limit {
		filtered = filtered[:r.limit]
	}
	r.queries = filtered
	r.mu.Unlock()

	r.persist()
}

func (r *RecentSearches) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}

func (r *RecentSearches) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func (r *RecentSearches) Clear() {
	r.mu.Lock()
	r.queries = nil
	r.mu.Unlock()

	if r.slots != nil {
		if err := r.slots.Delete(context.Background(), r.slot); err != nil {
			r.logger.Error("Recent searches delete failed", zap.Error(err))
		}
	}
}
