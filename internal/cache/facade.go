package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/parkj/tubelens-go/pkg/errors"
)

// FetchFunc retrieves a fresh value for the given logical input (a query, a
// video ID) when the cache can't serve it.
type FetchFunc[T any] func(ctx context.Context, input string) (T, error)

type inflight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Facade exposes cache-aware fetch semantics for one data domain. All four
// caches (search, video details, transcript, summary) are instances of this
// one type, differing only in TTL and key function.
//
// Concurrent misses for the same key share a single underlying fetch; the
// losers wait for the winner's result instead of issuing their own call.
type Facade[T any] struct {
	name   string
	keyFn  func(string) string
	store  *Store[T]
	logger *zap.Logger

	mu    sync.Mutex
	calls map[string]*inflight[T]
}

func NewFacade[T any](name string, keyFn func(string) string, store *Store[T], logger *zap.Logger) *Facade[T] {
	return &Facade[T]{
		name:   name,
		keyFn:  keyFn,
		store:  store,
		logger: logger,
		calls:  make(map[string]*inflight[T]),
	}
}

// Resolve returns the cached value for input when present and fresh,
// otherwise invokes fetch and caches the result. A failed fetch is
// propagated without writing anything: the cache is never poisoned with
// partial data, and any still-present entry is left untouched.
func (f *Facade[T]) Resolve(ctx context.Context, input string, fetch FetchFunc[T], force bool) (T, error) {
	key := f.keyFn(input)

	if !force {
		if value, ok := f.store.Get(key); ok {
			f.logger.Debug("Cache hit", zap.String("cache", f.name), zap.String("key", key))
			return value, nil
		}
	}

	f.mu.Lock()
	if call, ok := f.calls[key]; ok && !force {
		f.mu.Unlock()
		f.logger.Debug("Joining in-flight fetch", zap.String("cache", f.name), zap.String("key", key))
		select {
		case <-call.done:
			return call.val, call.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	call := &inflight[T]{done: make(chan struct{})}
	f.calls[key] = call
	f.mu.Unlock()

	f.logger.Debug("Cache miss, fetching", zap.String("cache", f.name), zap.String("key", key))

	value, err := fetch(ctx, input)
	if err == nil {
		f.store.Set(key, value)
	} else {
		err = apperrors.NewFetchError(f.name+" fetch failed", f.name, err)
	}

	call.val, call.err = value, err
	close(call.done)

	f.mu.Lock()
	// A force Resolve may have re-registered the key while this fetch ran;
	// only remove the registration that still belongs to this call.
	if f.calls[key] == call {
		delete(f.calls, key)
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("Fetch failed", zap.String("cache", f.name), zap.String("key", key), zap.Error(err))
		var zero T
		return zero, err
	}
	return value, nil
}

func (f *Facade[T]) Invalidate(input string) {
	f.store.Invalidate(f.keyFn(input))
}

func (f *Facade[T]) Clear() {
	f.store.Clear()
}

func (f *Facade[T]) Sweep() int {
	return f.store.Sweep(f.store.now())
}

func (f *Facade[T]) Len() int {
	return f.store.Len()
}
