package backendapi

// Wire types for the analysis backend's REST surface.

type searchRequest struct {
	Query string `json:"query"`
}

type videoResult struct {
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

type videoRequest struct {
	VideoID string `json:"videoId"`
}

type transcriptResponse struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

type summaryResponse struct {
	VideoID string `json:"video_id"`
	Summary string `json:"summary"`
}

type speechRequest struct {
	Text    string `json:"text"`
	VideoID string `json:"videoId"`
}

type speechResponse struct {
	AudioURL string `json:"audio_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}
