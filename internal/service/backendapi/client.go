package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/constants"
	"github.com/parkj/tubelens-go/internal/domain"
)

// Client talks to the analysis backend's REST API. It covers every provider
// operation plus speech synthesis; any non-2xx response is reported as a
// plain error and treated upstream as a fetch failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: constants.APIConfig.RequestTimeout,
		},
		logger: logger,
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.Suggestion, error) {
	var results []videoResult
	if err := c.doRequest(ctx, "POST", "/api/search", searchRequest{Query: query}, &results); err != nil {
		c.logger.Error("Backend search failed", zap.Error(err), zap.String("query", query))
		return nil, err
	}

	suggestions := make([]domain.Suggestion, 0, len(results))
	for i, r := range results {
		suggestions = append(suggestions, domain.Suggestion{
			ID:           fmt.Sprintf("%d", i+1),
			Title:        r.Title,
			Description:  r.Description,
			ThumbnailURL: r.ThumbnailURL,
			SourceLink:   r.VideoURL,
			VideoID:      r.VideoID,
		}.Normalize())
	}
	return suggestions, nil
}

func (c *Client) VideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error) {
	var result videoResult
	if err := c.doRequest(ctx, "GET", "/api/video/"+videoID, nil, &result); err != nil {
		c.logger.Error("Backend video details failed", zap.Error(err), zap.String("video_id", videoID))
		return domain.VideoDetails{}, err
	}
	return domain.VideoDetails{
		VideoID:      result.VideoID,
		Title:        result.Title,
		Description:  result.Description,
		ThumbnailURL: result.ThumbnailURL,
		ChannelTitle: result.ChannelTitle,
		PublishedAt:  result.PublishedAt,
		ViewCount:    result.ViewCount,
		LikeCount:    result.LikeCount,
		CommentCount: result.CommentCount,
		VideoURL:     result.VideoURL,
	}, nil
}

func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	var resp transcriptResponse
	if err := c.doRequest(ctx, "POST", "/api/transcript", videoRequest{VideoID: videoID}, &resp); err != nil {
		c.logger.Error("Backend transcript failed", zap.Error(err), zap.String("video_id", videoID))
		return "", err
	}
	return resp.Transcript, nil
}

func (c *Client) Summarize(ctx context.Context, videoID, _ string) (string, error) {
	// The backend fetches the transcript itself; only the ID crosses the wire.
	var resp summaryResponse
	if err := c.doRequest(ctx, "POST", "/api/summary", videoRequest{VideoID: videoID}, &resp); err != nil {
		c.logger.Error("Backend summary failed", zap.Error(err), zap.String("video_id", videoID))
		return "", err
	}
	return resp.Summary, nil
}

func (c *Client) Synthesize(ctx context.Context, text, videoID string) (string, error) {
	var resp speechResponse
	if err := c.doRequest(ctx, "POST", "/api/text-to-speech", speechRequest{Text: text, VideoID: videoID}, &resp); err != nil {
		c.logger.Error("Backend speech synthesis failed", zap.Error(err), zap.String("video_id", videoID))
		return "", err
	}
	return resp.AudioURL, nil
}

func (c *Client) Download(ctx context.Context, videoID string) ([]byte, error) {
	body, err := json.Marshal(videoRequest{VideoID: videoID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/text-to-speech/download", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend audio download failed", zap.Error(err), zap.String("video_id", videoID))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("audio download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("backend error: status %d", resp.StatusCode)
	}

	if respBody != nil {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
