package constants

import "time"

var CacheTTL = struct {
	Search       time.Duration
	VideoDetails time.Duration
	Transcript   time.Duration
	Summary      time.Duration
}{
	Search:       30 * time.Minute,
	VideoDetails: 60 * time.Minute,
	Transcript:   24 * time.Hour,
	Summary:      24 * time.Hour,
}

// Slot names are the durable key-value slots, one per cache. Each slot is
// exclusively owned by its facade; corrupting one cannot affect another.
var CacheSlots = struct {
	Search         string
	VideoDetails   string
	Transcript     string
	Summary        string
	RecentSearches string
}{
	Search:         "video-search-cache",
	VideoDetails:   "video-details-cache",
	Transcript:     "transcript-cache",
	Summary:        "summary-cache",
	RecentSearches: "recent-searches",
}

var SearchConfig = struct {
	MaxResults        int
	RecentSearchLimit int
	MaxQueryLength    int
}{
	MaxResults:        5,
	RecentSearchLimit: 5,
	MaxQueryLength:    500,
}

var DebounceConfig = struct {
	QueryDelay time.Duration
}{
	QueryDelay: 300 * time.Millisecond,
}

var APIConfig = struct {
	RequestTimeout  time.Duration
	SpeechTimeout   time.Duration
	PrefetchWorkers int
}{
	RequestTimeout:  15 * time.Second,
	SpeechTimeout:   60 * time.Second,
	PrefetchWorkers: 3,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}
