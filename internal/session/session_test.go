package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/cache"
	"github.com/parkj/tubelens-go/internal/domain"
)

// fakeProvider scripts every external operation and counts invocations so
// tests can tell a cache hit from a fresh call.
type fakeProvider struct {
	mu sync.Mutex

	searchCalls     int
	detailCalls     int
	transcriptCalls int
	summaryCalls    int

	searchErr     error
	transcriptErr error
	summaryErr    error
}

func (p *fakeProvider) Search(_ context.Context, query string) ([]domain.Suggestion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchCalls++
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	out := make([]domain.Suggestion, 3)
	for i := range out {
		id := fmt.Sprintf("vid%d", i+1)
		out[i] = domain.Suggestion{
			ID:         fmt.Sprintf("%d", i+1),
			Title:      fmt.Sprintf("%s result %d", query, i+1),
			SourceLink: "https://www.youtube.com/watch?v=" + id,
		}
	}
	return out, nil
}

func (p *fakeProvider) VideoDetails(_ context.Context, videoID string) (domain.VideoDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailCalls++
	return domain.VideoDetails{VideoID: videoID, Title: "details for " + videoID}, nil
}

func (p *fakeProvider) Transcript(_ context.Context, videoID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transcriptCalls++
	if p.transcriptErr != nil {
		return "", p.transcriptErr
	}
	return "transcript of " + videoID, nil
}

func (p *fakeProvider) Summarize(_ context.Context, videoID, transcript string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaryCalls++
	if p.summaryErr != nil {
		return "", p.summaryErr
	}
	return "summary of " + videoID, nil
}

func (p *fakeProvider) counts() (search, detail, transcript, summary int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searchCalls, p.detailCalls, p.transcriptCalls, p.summaryCalls
}

type fakeHistory struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (h *fakeHistory) Append(_ context.Context, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func newTestSession(provider *fakeProvider) (*Session, *cache.Caches) {
	caches := cache.NewCaches(nil, zap.NewNop())
	return New(caches, provider, nil, zap.NewNop()), caches
}

func TestSubmitShowsSuggestions(t *testing.T) {
	provider := &fakeProvider{}
	sess, caches := newTestSession(provider)

	if err := sess.Submit(context.Background(), "cats"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := sess.State(); got != StateSuggestionsShown {
		t.Errorf("state = %q, want %q", got, StateSuggestionsShown)
	}

	suggestions := sess.Suggestions()
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(suggestions))
	}
	for i, sug := range suggestions {
		if sug.VideoID == "" {
			t.Errorf("suggestion %d missing derived video ID (link %q)", i, sug.SourceLink)
		}
	}

	messages := sess.Messages()
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[0].Text != "cats" {
		t.Errorf("unexpected first message %+v", messages[0])
	}

	if got := caches.Recent.List(); len(got) != 1 || got[0] != "cats" {
		t.Errorf("recent searches = %v", got)
	}
	if caches.Search.Len() != 1 {
		t.Errorf("search cache holds %d entries, want 1", caches.Search.Len())
	}
}

func TestSubmitServesRepeatFromCache(t *testing.T) {
	provider := &fakeProvider{}
	sess, _ := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	// Case and whitespace variants share the cached result.
	if err := sess.Submit(ctx, "  CATS "); err != nil {
		t.Fatal(err)
	}

	if search, _, _, _ := provider.counts(); search != 1 {
		t.Errorf("search ran %d times, want 1", search)
	}
	if len(sess.Suggestions()) != 3 {
		t.Errorf("repeat submit lost the suggestions")
	}
}

func TestSubmitRejectsInvalidQuery(t *testing.T) {
	provider := &fakeProvider{}
	sess, _ := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "   "); err == nil {
		t.Error("blank query accepted")
	}

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'x'
	}
	if err := sess.Submit(ctx, string(long)); err == nil {
		t.Error("over-length query accepted")
	}

	if search, _, _, _ := provider.counts(); search != 0 {
		t.Errorf("invalid queries reached the provider %d times", search)
	}
	if len(sess.Messages()) != 0 {
		t.Errorf("invalid queries appended %d messages", len(sess.Messages()))
	}
}

func TestSubmitFailurePreservesHistory(t *testing.T) {
	provider := &fakeProvider{searchErr: errors.New("quota exhausted")}
	sess, caches := newTestSession(provider)

	err := sess.Submit(context.Background(), "cats")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := sess.State(); got != StateIdle {
		t.Errorf("state = %q after failure, want %q", got, StateIdle)
	}
	if len(sess.Messages()) != 1 {
		t.Errorf("query message lost on failure: %d messages", len(sess.Messages()))
	}
	if len(sess.Suggestions()) != 0 {
		t.Errorf("failed search produced %d suggestions", len(sess.Suggestions()))
	}
	if caches.Search.Len() != 0 {
		t.Errorf("failed search cached %d entries", caches.Search.Len())
	}
}

func TestSelectDeliversSummary(t *testing.T) {
	provider := &fakeProvider{}
	sess, caches := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	chosen := sess.Suggestions()[1]

	if err := sess.Select(ctx, chosen); err != nil {
		t.Fatalf("select: %v", err)
	}

	if got := sess.State(); got != StateResponded {
		t.Errorf("state = %q, want %q", got, StateResponded)
	}
	if len(sess.Suggestions()) != 0 {
		t.Error("suggestion list not cleared by selection")
	}

	messages := sess.Messages()
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3 (query, echo, summary)", len(messages))
	}
	echo := messages[1]
	if echo.Kind != domain.KindSuggestion || echo.Title != chosen.Title {
		t.Errorf("unexpected echo message %+v", echo)
	}
	final := messages[2]
	if final.Role != domain.RoleAssistant || final.Text != "summary of "+chosen.VideoID {
		t.Errorf("unexpected summary message %+v", final)
	}

	if caches.Transcript.Len() != 1 || caches.Summary.Len() != 1 {
		t.Errorf("transcript/summary not cached: %d/%d",
			caches.Transcript.Len(), caches.Summary.Len())
	}

	// Message IDs are unique and monotonically assigned.
	seen := map[string]bool{}
	for _, m := range messages {
		if seen[m.ID] {
			t.Errorf("duplicate message ID %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSelectRequiresSuggestions(t *testing.T) {
	provider := &fakeProvider{}
	sess, _ := newTestSession(provider)

	err := sess.Select(context.Background(), domain.Suggestion{VideoID: "vid1"})
	if err == nil {
		t.Fatal("select accepted with no suggestions shown")
	}
}

func TestSelectTranscriptFailurePreservesHistory(t *testing.T) {
	provider := &fakeProvider{transcriptErr: errors.New("no captions")}
	sess, caches := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	chosen := sess.Suggestions()[1]

	err := sess.Select(ctx, chosen)
	if err == nil {
		t.Fatal("expected transcript failure to propagate")
	}

	if got := sess.State(); got != StateIdle {
		t.Errorf("state = %q after failure, want %q", got, StateIdle)
	}
	// Query and echo both survive; only the summary is missing.
	if len(sess.Messages()) != 2 {
		t.Errorf("got %d messages after failure, want 2", len(sess.Messages()))
	}
	if caches.Transcript.Len() != 0 || caches.Summary.Len() != 0 {
		t.Error("failed detail flow wrote to caches")
	}
	if _, _, _, summary := provider.counts(); summary != 0 {
		t.Error("summarize ran despite transcript failure")
	}
}

func TestSelectRepeatServedFromCache(t *testing.T) {
	provider := &fakeProvider{}
	sess, _ := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	chosen := sess.Suggestions()[0]
	if err := sess.Select(ctx, chosen); err != nil {
		t.Fatal(err)
	}

	// Search again and reselect the same video: transcript and summary come
	// out of cache.
	if err := sess.Submit(ctx, "cats again"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Select(ctx, chosen); err != nil {
		t.Fatal(err)
	}

	_, _, transcript, summary := provider.counts()
	if transcript != 1 || summary != 1 {
		t.Errorf("transcript/summary fetched %d/%d times, want 1/1", transcript, summary)
	}
}

func TestResetClearsConversation(t *testing.T) {
	provider := &fakeProvider{}
	sess, caches := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	sess.Reset()

	if got := sess.State(); got != StateIdle {
		t.Errorf("state = %q after reset, want %q", got, StateIdle)
	}
	if len(sess.Messages()) != 0 || len(sess.Suggestions()) != 0 {
		t.Error("reset left conversation content behind")
	}
	// The caches outlive the session reset.
	if caches.Search.Len() != 1 {
		t.Errorf("reset touched the search cache: %d entries", caches.Search.Len())
	}
}

func TestClearAllEmptiesEveryCache(t *testing.T) {
	provider := &fakeProvider{}
	sess, caches := newTestSession(provider)
	ctx := context.Background()

	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Select(ctx, sess.Suggestions()[0]); err != nil {
		t.Fatal(err)
	}

	// Let the background detail prefetch finish before clearing, so it can't
	// repopulate the video cache mid-assertion.
	for i := 0; i < 100 && caches.Video.Len() < 3; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	caches.ClearAll()

	stats := caches.Stats()
	if stats.SearchEntries != 0 || stats.VideoEntries != 0 ||
		stats.TranscriptEntries != 0 || stats.SummaryEntries != 0 || stats.RecentSearches != 0 {
		t.Errorf("caches not empty after ClearAll: %+v", stats)
	}

	// The next identical query goes back to the provider.
	if err := sess.Submit(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	if search, _, _, _ := provider.counts(); search != 2 {
		t.Errorf("search ran %d times, want 2", search)
	}
}

func TestHistorySinkReceivesMessages(t *testing.T) {
	provider := &fakeProvider{}
	caches := cache.NewCaches(nil, zap.NewNop())
	history := &fakeHistory{}
	sess := New(caches, provider, history, zap.NewNop())

	if err := sess.Submit(context.Background(), "cats"); err != nil {
		t.Fatal(err)
	}

	// The sink is asynchronous; poll briefly for the append to land.
	var recorded []domain.Message
	for i := 0; i < 100; i++ {
		history.mu.Lock()
		recorded = append(recorded[:0], history.messages...)
		history.mu.Unlock()
		if len(recorded) >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(recorded) == 0 {
		t.Fatal("history sink never received the message")
	}
	if recorded[0].Text != "cats" {
		t.Errorf("sink recorded %+v", recorded[0])
	}
}
