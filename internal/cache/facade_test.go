package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/parkj/tubelens-go/pkg/errors"
)

func newTestFacade(t *testing.T, keyFn func(string) string) *Facade[string] {
	t.Helper()
	store := NewStore[string](time.Hour, "facade-slot", newMemSlotStore(), zap.NewNop())
	return NewFacade("test", keyFn, store, zap.NewNop())
}

func TestFacadeMissThenHit(t *testing.T) {
	facade := newTestFacade(t, rawKey)

	var calls atomic.Int32
	fetch := func(ctx context.Context, input string) (string, error) {
		calls.Add(1)
		return "value-for-" + input, nil
	}

	got, err := facade.Resolve(context.Background(), "abc", fetch, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "value-for-abc" {
		t.Errorf("got %q", got)
	}

	got, err = facade.Resolve(context.Background(), "abc", fetch, false)
	if err != nil {
		t.Fatalf("resolve (cached): %v", err)
	}
	if got != "value-for-abc" {
		t.Errorf("got %q from cache", got)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch ran %d times, want 1", calls.Load())
	}
}

func TestFacadeForceBypassesCache(t *testing.T) {
	facade := newTestFacade(t, rawKey)

	var calls atomic.Int32
	fetch := func(ctx context.Context, input string) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	if _, err := facade.Resolve(context.Background(), "k", fetch, false); err != nil {
		t.Fatal(err)
	}
	if _, err := facade.Resolve(context.Background(), "k", fetch, true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("fetch ran %d times, want 2", calls.Load())
	}
}

func TestFacadeFailedFetchWritesNothing(t *testing.T) {
	facade := newTestFacade(t, rawKey)

	boom := errors.New("upstream down")
	_, err := facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
		return "", boom
	}, false)
	if err == nil {
		t.Fatal("expected error")
	}

	var fetchErr *apperrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("error type %T, want *FetchError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("cause not preserved through wrap")
	}
	if facade.Len() != 0 {
		t.Errorf("failed fetch left %d entries in cache", facade.Len())
	}

	// A prior good entry survives a later failed forced refetch.
	if _, err := facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
		return "good", nil
	}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
		return "", boom
	}, true); err == nil {
		t.Fatal("expected forced refetch to fail")
	}
	got, err := facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
		t.Error("fetch ran despite surviving cache entry")
		return "", nil
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "good" {
		t.Errorf("stale overwrite: got %q, want %q", got, "good")
	}
}

func TestFacadeSharesInflightFetch(t *testing.T) {
	facade := newTestFacade(t, rawKey)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(ctx context.Context, input string) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = facade.Resolve(context.Background(), "k", fetch, false)
	}()

	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
			t.Error("second caller ran its own fetch")
			return "", nil
		}, false)
	}()

	// Give the second caller a moment to register as a joiner.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("caller %d got %q", i, results[i])
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch ran %d times, want 1", calls.Load())
	}
}

func TestFacadeForceDoesNotOrphanInflight(t *testing.T) {
	facade := newTestFacade(t, rawKey)
	ctx := context.Background()

	// First fetch: non-force, fails, so nothing lands in the cache.
	started1 := make(chan struct{})
	release1 := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = facade.Resolve(ctx, "k", func(ctx context.Context, input string) (string, error) {
			close(started1)
			<-release1
			return "", errors.New("first fetch failed")
		}, false)
	}()
	<-started1

	// Second fetch: force, re-registers the key while the first is running.
	started2 := make(chan struct{})
	release2 := make(chan struct{})
	result2 := make(chan string, 1)
	go func() {
		v, err := facade.Resolve(ctx, "k", func(ctx context.Context, input string) (string, error) {
			close(started2)
			<-release2
			return "v2", nil
		}, true)
		if err != nil {
			t.Errorf("forced resolve: %v", err)
		}
		result2 <- v
	}()
	<-started2

	// Let the first fetch finish its bookkeeping; it must not remove the
	// second call's registration.
	close(release1)
	<-firstDone

	joined := make(chan string, 1)
	go func() {
		v, err := facade.Resolve(ctx, "k", func(ctx context.Context, input string) (string, error) {
			t.Error("joiner ran its own fetch instead of joining the forced one")
			return "", nil
		}, false)
		if err != nil {
			t.Errorf("joining resolve: %v", err)
		}
		joined <- v
	}()

	// Give the joiner a moment to register against the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release2)

	if v := <-result2; v != "v2" {
		t.Errorf("forced caller got %q, want %q", v, "v2")
	}
	if v := <-joined; v != "v2" {
		t.Errorf("joiner got %q, want %q", v, "v2")
	}
}

func TestFacadeJoinerHonorsContext(t *testing.T) {
	facade := newTestFacade(t, rawKey)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = facade.Resolve(context.Background(), "k", func(ctx context.Context, input string) (string, error) {
			close(started)
			<-release
			return "v", nil
		}, false)
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := facade.Resolve(ctx, "k", nil, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("joiner returned %v, want context.Canceled", err)
	}
}

func TestSearchKeyNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"cats", "search:cats"},
		{"  Cats  ", "search:cats"},
		{"CATS", "search:cats"},
		{"Funny Cats", "search:funny cats"},
	}
	for _, tc := range cases {
		if got := SearchKey(tc.in); got != tc.want {
			t.Errorf("SearchKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Normalization is idempotent: a normalized key normalizes to itself.
	if SearchKey("Foo ") != SearchKey("foo") {
		t.Error("case/whitespace variants mapped to different keys")
	}
}

func TestVideoKey(t *testing.T) {
	if got := VideoKey("dQw4w9WgXcQ"); got != "video:dQw4w9WgXcQ" {
		t.Errorf("VideoKey = %q", got)
	}
}
