package domain

// VideoDetails is the metadata record for a single video, as returned by the
// backend search service or the YouTube Data API directly.
type VideoDetails struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	VideoURL     string `json:"video_url"`
}

func (v *VideoDetails) Suggestion() Suggestion {
	if v == nil {
		return Suggestion{}
	}
	return Suggestion{
		ID:           v.VideoID,
		Title:        v.Title,
		Description:  v.Description,
		ThumbnailURL: v.ThumbnailURL,
		SourceLink:   v.VideoURL,
		VideoID:      v.VideoID,
	}
}
