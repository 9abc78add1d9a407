package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	tokenFile       = "token.json"
	credentialsFile = "credentials.json"
)

// CaptionsClient downloads caption tracks through the official captions API.
// The API requires user OAuth, so the client only comes up when a
// credentials file and a stored token are present.
type CaptionsClient struct {
	service *youtube.Service
	logger  *zap.Logger
}

func NewCaptionsClient(logger *zap.Logger) (*CaptionsClient, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credBytes, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no stored OAuth token: %w", err)
	}

	ctx := context.Background()
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	logger.Info("Captions API client initialized")
	return &CaptionsClient{service: svc, logger: logger}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// Download fetches the first caption track for the video in SRT form and
// strips it down to plain text.
func (c *CaptionsClient) Download(ctx context.Context, videoID string) (string, error) {
	list, err := c.service.Captions.List([]string{"id"}, videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("captions.list failed: %w", err)
	}
	if len(list.Items) == 0 {
		return "", nil
	}

	resp, err := c.service.Captions.Download(list.Items[0].Id).Tfmt("srt").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("captions.download failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	text := stripSRT(string(data))
	c.logger.Info("Caption track downloaded via API",
		zap.String("video_id", videoID), zap.Int("length", len(text)))
	return text, nil
}

var srtTimestamp = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s+-->`)

// stripSRT drops cue indices and timestamps, keeping only the spoken lines.
func stripSRT(srt string) string {
	var parts []string
	for _, line := range strings.Split(srt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || srtTimestamp.MatchString(line) {
			continue
		}
		if _, err := fmt.Sscanf(line, "%d", new(int)); err == nil && !strings.ContainsAny(line, " \t") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
