package cache

import (
	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/constants"
	"github.com/parkj/tubelens-go/internal/domain"
	"github.com/parkj/tubelens-go/internal/util"
)

// Caches bundles the four domain facades plus the recent-search list. Each
// facade owns an independent durable slot; no facade touches another's.
type Caches struct {
	Search     *Facade[[]domain.Suggestion]
	Video      *Facade[domain.VideoDetails]
	Transcript *Facade[string]
	Summary    *Facade[string]
	Recent     *RecentSearches

	logger *zap.Logger
}

type Stats struct {
	SearchEntries     int
	VideoEntries      int
	TranscriptEntries int
	SummaryEntries    int
	RecentSearches    int
}

// SearchKey normalizes the query to lowercase with surrounding whitespace
// trimmed, so case/whitespace variants share one cache entry.
func SearchKey(query string) string {
	return "search:" + util.Normalize(query)
}

func VideoKey(videoID string) string {
	return "video:" + videoID
}

func rawKey(videoID string) string {
	return videoID
}

func NewCaches(slots SlotStore, logger *zap.Logger) *Caches {
	return &Caches{
		Search: NewFacade("search", SearchKey,
			NewStore[[]domain.Suggestion](constants.CacheTTL.Search, constants.CacheSlots.Search, slots, logger), logger),
		Video: NewFacade("video-details", VideoKey,
			NewStore[domain.VideoDetails](constants.CacheTTL.VideoDetails, constants.CacheSlots.VideoDetails, slots, logger), logger),
		Transcript: NewFacade("transcript", rawKey,
			NewStore[string](constants.CacheTTL.Transcript, constants.CacheSlots.Transcript, slots, logger), logger),
		Summary: NewFacade("summary", rawKey,
			NewStore[string](constants.CacheTTL.Summary, constants.CacheSlots.Summary, slots, logger), logger),
		Recent: NewRecentSearches(constants.SearchConfig.RecentSearchLimit,
			constants.CacheSlots.RecentSearches, slots, logger),
		logger: logger,
	}
}

// ClearAll empties every cache, its durable slot, and the recent-search
// list in one operation.
func (c *Caches) ClearAll() {
	c.Search.Clear()
	c.Video.Clear()
	c.Transcript.Clear()
	c.Summary.Clear()
	c.Recent.Clear()
	c.logger.Info("All caches cleared")
}

// SweepAll prunes expired entries across every cache and reports the total
// removed.
func (c *Caches) SweepAll() int {
	removed := c.Search.Sweep() + c.Video.Sweep() + c.Transcript.Sweep() + c.Summary.Sweep()
	if removed > 0 {
		c.logger.Info("Expired cache entries swept", zap.Int("removed", removed))
	}
	return removed
}

func (c *Caches) Stats() Stats {
	return Stats{
		SearchEntries:     c.Search.Len(),
		VideoEntries:      c.Video.Len(),
		TranscriptEntries: c.Transcript.Len(),
		SummaryEntries:    c.Summary.Len(),
		RecentSearches:    c.Recent.Len(),
	}
}
