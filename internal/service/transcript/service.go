package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	watchURL       = "https://www.youtube.com/watch?v="
	requestTimeout = 15 * time.Second
)

// Service extracts a video's caption track as plain text. The primary path
// scrapes the watch page for the timedtext URL embedded in the player
// config; when that yields nothing and an OAuth captions client is
// configured, the official captions API is tried as a fallback.
type Service struct {
	httpClient *http.Client
	captions   *CaptionsClient
	logger     *zap.Logger
}

func NewService(captions *CaptionsClient, logger *zap.Logger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		captions: captions,
		logger:   logger,
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// Transcript returns the caption text for a video. A video without captions
// yields an empty string, not an error.
func (s *Service) Transcript(ctx context.Context, videoID string) (string, error) {
	text, err := s.scrapeTranscript(ctx, videoID)
	if err == nil {
		return text, nil
	}

	if s.captions != nil {
		s.logger.Warn("Watch-page scrape failed, trying captions API",
			zap.String("video_id", videoID), zap.Error(err))
		return s.captions.Download(ctx, videoID)
	}
	return "", err
}

func (s *Service) scrapeTranscript(ctx context.Context, videoID string) (string, error) {
	page, err := s.fetch(ctx, watchURL+videoID)
	if err != nil {
		return "", fmt.Errorf("watch page fetch failed: %w", err)
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		s.logger.Info("No caption tracks available", zap.String("video_id", videoID))
		return "", nil
	}

	track := pickTrack(tracks)
	body, err := s.fetch(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("timedtext fetch failed: %w", err)
	}

	text, err := parseTimedText(body)
	if err != nil {
		return "", err
	}

	s.logger.Info("Transcript extracted",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.Int("length", len(text)))
	return text, nil
}

func (s *Service) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TubeLens/1.0)")
	req.Header.Set("Accept-Language", "en")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseCaptionTracks pulls the captionTracks array out of the player
// response JSON embedded in the watch page.
func parseCaptionTracks(page string) ([]captionTrack, error) {
	marker := `"captionTracks":`
	start := strings.Index(page, marker)
	if start < 0 {
		return nil, nil
	}
	start += len(marker)

	end := strings.Index(page[start:], "]")
	if end < 0 {
		return nil, fmt.Errorf("malformed caption track list")
	}

	raw := page[start : start+end+1]

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("caption track parse failed: %w", err)
	}
	return tracks, nil
}

// pickTrack prefers a manually-authored track over auto-generated ("asr")
// captions, and English over other languages when both exist.
func pickTrack(tracks []captionTrack) captionTrack {
	best := tracks[0]
	bestScore := -1
	for _, t := range tracks {
		score := 0
		if t.Kind != "asr" {
			score += 2
		}
		if strings.HasPrefix(t.LanguageCode, "en") {
			score++
		}
		if score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

// parseTimedText flattens a timedtext XML document into one plain-text
// string, one space between cue lines.
func parseTimedText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("timedtext parse failed: %w", err)
	}

	var parts []string
	doc.Find("text").Each(func(_ int, sel *goquery.Selection) {
		line := strings.TrimSpace(html.UnescapeString(sel.Text()))
		if line != "" {
			parts = append(parts, line)
		}
	})
	return strings.Join(parts, " "), nil
}
