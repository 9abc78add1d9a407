package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/cache"
	"github.com/parkj/tubelens-go/internal/constants"
	"github.com/parkj/tubelens-go/internal/domain"
	apperrors "github.com/parkj/tubelens-go/pkg/errors"
)

type State string

const (
	StateIdle             State = "idle"
	StateSearching        State = "searching"
	StateSuggestionsShown State = "suggestions_shown"
	StateAwaitingDetail   State = "awaiting_detail"
	StateResponded        State = "responded"
)

// Provider supplies the external operations the session consumes. The
// session never cares how they are transported; it only decides whether to
// call out and how long to trust a prior result.
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.Suggestion, error)
	VideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error)
	Transcript(ctx context.Context, videoID string) (string, error)
	Summarize(ctx context.Context, videoID, transcript string) (string, error)
}

// HistorySink receives every appended message for durable storage. Failures
// are the sink's problem; the session never blocks on it.
type HistorySink interface {
	Append(ctx context.Context, msg domain.Message) error
}

// ErrSuperseded reports that a completed fetch belonged to an epoch that a
// newer submission has replaced; its result was discarded.
var ErrSuperseded = apperrors.NewValidationError("response superseded by a newer query", "epoch", nil)

// Session sequences one conversation: query, suggestions, selection,
// response. Submissions are always accepted, whatever the current state; a
// new submission bumps the epoch so responses from superseded requests are
// discarded on arrival instead of corrupting the newer flow.
type Session struct {
	mu          sync.Mutex
	state       State
	messages    []domain.Message
	suggestions []domain.Suggestion
	nextID      int

	epoch    atomic.Int64
	caches   *cache.Caches
	provider Provider
	history  HistorySink
	logger   *zap.Logger
}

func New(caches *cache.Caches, provider Provider, history HistorySink, logger *zap.Logger) *Session {
	return &Session{
		state:    StateIdle,
		caches:   caches,
		provider: provider,
		history:  history,
		logger:   logger,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the conversation in append order.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Suggestions() []domain.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Suggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// append must be called with s.mu held.
func (s *Session) append(msg domain.Message) domain.Message {
	s.nextID++
	msg.ID = strconv.Itoa(s.nextID)
	s.messages = append(s.messages, msg)

	if s.history != nil {
		// Fire-and-forget: history is a convenience, not a dependency.
		go func(m domain.Message) {
			if err := s.history.Append(context.Background(), m); err != nil {
				s.logger.Warn("History append failed", zap.Error(err))
			}
		}(msg)
	}
	return msg
}

// Submit runs the query flow: append the user's message, clear prior
// suggestions, resolve through the search cache. On failure the query stays
// in history, no suggestions are shown, and the error is returned for a
// retryable rendering. An empty result list is not an error; the session
// lands in SuggestionsShown with zero suggestions.
func (s *Session) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return apperrors.NewValidationError("query must not be empty", "query", query)
	}
	if len([]rune(query)) > constants.SearchConfig.MaxQueryLength {
		return apperrors.NewValidationError("query too long", "query", len(query))
	}

	epoch := s.epoch.Add(1)

	s.mu.Lock()
	s.append(domain.Message{Text: query, Role: domain.RoleUser, Kind: domain.KindQuery})
	s.suggestions = nil
	s.state = StateSearching
	s.mu.Unlock()

	s.caches.Recent.Add(query)

	results, err := s.caches.Search.Resolve(ctx, query, s.fetchSearch, false)
	if err != nil {
		if s.stale(epoch) {
			return ErrSuperseded
		}
		s.setState(StateIdle)
		return err
	}

	if s.stale(epoch) {
		return ErrSuperseded
	}

	normalized := make([]domain.Suggestion, len(results))
	for i, sug := range results {
		normalized[i] = sug.Normalize()
	}

	s.mu.Lock()
	s.suggestions = normalized
	s.state = StateSuggestionsShown
	s.mu.Unlock()

	s.logger.Info("Suggestions ready",
		zap.String("query", query), zap.Int("count", len(normalized)))

	s.prefetchDetails(ctx, epoch, normalized)
	return nil
}

// Select runs the detail flow for a chosen suggestion: echo it into the
// conversation, then fetch transcript and summary sequentially (the summary
// depends on transcript content). On failure the echo and all prior history
// survive; only the state returns to Idle.
func (s *Session) Select(ctx context.Context, suggestion domain.Suggestion) error {
	suggestion = suggestion.Normalize()
	if suggestion.VideoID == "" {
		return apperrors.NewValidationError("suggestion has no video ID", "suggestion", suggestion.ID)
	}

	epoch := s.epoch.Load()

	s.mu.Lock()
	if s.state != StateSuggestionsShown {
		s.mu.Unlock()
		return apperrors.NewValidationError("no active suggestion set", "state", string(s.state))
	}
	// At most one active selection: the list is cleared immediately.
	s.suggestions = nil
	s.append(domain.Message{
		Text:  suggestion.Title,
		Role:  domain.RoleAssistant,
		Kind:  domain.KindSuggestion,
		Image: suggestion.ThumbnailURL,
		Title: suggestion.Title,
	})
	s.state = StateAwaitingDetail
	s.mu.Unlock()

	transcript, err := s.caches.Transcript.Resolve(ctx, suggestion.VideoID, s.fetchTranscript, false)
	if err != nil {
		if s.stale(epoch) {
			return ErrSuperseded
		}
		s.setState(StateIdle)
		return err
	}

	summary, err := s.caches.Summary.Resolve(ctx, suggestion.VideoID, func(ctx context.Context, videoID string) (string, error) {
		return s.provider.Summarize(ctx, videoID, transcript)
	}, false)
	if err != nil {
		if s.stale(epoch) {
			return ErrSuperseded
		}
		s.setState(StateIdle)
		return err
	}

	if s.stale(epoch) {
		return ErrSuperseded
	}

	s.mu.Lock()
	s.append(domain.Message{Text: summary, Role: domain.RoleAssistant, Kind: domain.KindQuery})
	s.state = StateResponded
	s.mu.Unlock()

	s.logger.Info("Summary delivered", zap.String("video_id", suggestion.VideoID))
	return nil
}

// Reset returns the session to Idle and discards the whole conversation.
// The epoch bump makes any in-flight request's response stale.
func (s *Session) Reset() {
	s.epoch.Add(1)

	s.mu.Lock()
	s.state = StateIdle
	s.messages = nil
	s.suggestions = nil
	s.mu.Unlock()
}

func (s *Session) stale(epoch int64) bool {
	return s.epoch.Load() != epoch
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) fetchSearch(ctx context.Context, query string) ([]domain.Suggestion, error) {
	return s.provider.Search(ctx, query)
}

func (s *Session) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	return s.provider.Transcript(ctx, videoID)
}

// prefetchDetails warms the video-details cache for the suggestions just
// shown, so a selection renders without a metadata round trip. Runs in the
// background with a bounded pool; a stale epoch abandons the rest.
func (s *Session) prefetchDetails(ctx context.Context, epoch int64, suggestions []domain.Suggestion) {
	if len(suggestions) == 0 {
		return
	}

	go func() {
		p := pool.New().WithMaxGoroutines(constants.APIConfig.PrefetchWorkers)
		for _, sug := range suggestions {
			sug := sug
			if sug.VideoID == "" {
				continue
			}
			p.Go(func() {
				if s.stale(epoch) || ctx.Err() != nil {
					return
				}
				if _, err := s.caches.Video.Resolve(ctx, sug.VideoID, func(ctx context.Context, id string) (domain.VideoDetails, error) {
					return s.provider.VideoDetails(ctx, id)
				}, false); err != nil {
					s.logger.Debug("Detail prefetch failed",
						zap.String("video_id", sug.VideoID), zap.Error(err))
				}
			})
		}
		p.Wait()
	}()
}
