package youtube

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/parkj/tubelens-go/internal/domain"
)

// Service finds videos and loads their metadata through the YouTube Data
// API. Quota is tracked locally so a chatty session degrades before the API
// key does.
type Service struct {
	service    *youtube.Service
	maxResults int64
	logger     *zap.Logger

	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

const (
	dailyQuotaLimit   = 10000
	searchQuotaCost   = 100 // search.list cost
	videosQuotaCost   = 1   // videos.list cost
	quotaSafetyMargin = 500
)

type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d, requested %d, resets %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}

func NewService(apiKey string, maxResults int, logger *zap.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	ctx := context.Background()
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	s := &Service{
		service:    svc,
		maxResults: int64(maxResults),
		logger:     logger,
		quotaReset: nextQuotaReset(),
	}

	logger.Info("YouTube service initialized",
		zap.Int("max_results", maxResults),
		zap.Time("quota_reset", s.quotaReset))
	return s, nil
}

// Quota resets at midnight Pacific, per API policy.
func nextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

func (s *Service) checkQuota(cost int) error {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	now := time.Now()
	if now.After(s.quotaReset) {
		s.quotaUsed = 0
		s.quotaReset = nextQuotaReset()
		s.logger.Info("YouTube API quota auto-reset", zap.Time("next_reset", s.quotaReset))
	}

	if s.quotaUsed+cost > (dailyQuotaLimit - quotaSafetyMargin) {
		return &QuotaExceededError{
			Used:      s.quotaUsed,
			Limit:     dailyQuotaLimit,
			Requested: cost,
			ResetTime: s.quotaReset,
		}
	}
	return nil
}

func (s *Service) consumeQuota(cost int) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	s.quotaUsed += cost
	remaining := dailyQuotaLimit - s.quotaUsed
	s.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", s.quotaUsed),
		zap.Int("remaining", remaining))

	if remaining < quotaSafetyMargin {
		s.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("reset_time", s.quotaReset))
	}
}

// Search finds candidate videos for a free-text query.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Suggestion, error) {
	if err := s.checkQuota(searchQuotaCost); err != nil {
		return nil, err
	}

	call := s.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(s.maxResults).
		Order("relevance")

	response, err := call.Context(ctx).Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 403 {
			return nil, &QuotaExceededError{
				Used:      s.quotaUsed,
				Limit:     dailyQuotaLimit,
				Requested: searchQuotaCost,
				ResetTime: s.quotaReset,
			}
		}
		return nil, fmt.Errorf("YouTube search failed: %w", err)
	}
	s.consumeQuota(searchQuotaCost)

	suggestions := make([]domain.Suggestion, 0, len(response.Items))
	for i, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			ID:           strconv.Itoa(i + 1),
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			SourceLink:   fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id.VideoId),
			VideoID:      item.Id.VideoId,
		})
	}

	s.logger.Info("YouTube search completed",
		zap.String("query", query),
		zap.Int("results", len(suggestions)))
	return suggestions, nil
}

// VideoDetails loads full metadata and statistics for one video.
func (s *Service) VideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error) {
	if err := s.checkQuota(videosQuotaCost); err != nil {
		return domain.VideoDetails{}, err
	}

	call := s.service.Videos.List([]string{"snippet", "statistics"}).Id(videoID)
	response, err := call.Context(ctx).Do()
	if err != nil {
		return domain.VideoDetails{}, fmt.Errorf("YouTube videos.list failed: %w", err)
	}
	s.consumeQuota(videosQuotaCost)

	if len(response.Items) == 0 {
		return domain.VideoDetails{}, fmt.Errorf("video %s not found", videoID)
	}

	item := response.Items[0]
	details := domain.VideoDetails{
		VideoID:  videoID,
		VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
	}
	if item.Snippet != nil {
		details.Title = item.Snippet.Title
		details.Description = item.Snippet.Description
		details.ChannelTitle = item.Snippet.ChannelTitle
		details.PublishedAt = item.Snippet.PublishedAt
		details.ThumbnailURL = thumbnailURL(item.Snippet.Thumbnails)
	}
	if item.Statistics != nil {
		details.ViewCount = int64(item.Statistics.ViewCount)
		details.LikeCount = int64(item.Statistics.LikeCount)
		details.CommentCount = int64(item.Statistics.CommentCount)
	}
	return details, nil
}

func thumbnailURL(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbnails.High, thumbnails.Medium, thumbnails.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
