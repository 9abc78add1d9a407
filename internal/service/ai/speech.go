package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// SpeechService synthesizes spoken audio for summary text and keeps one
// audio file per video so repeat downloads skip the synthesis call.
type SpeechService struct {
	client   *openai.Client
	audioDir string
	logger   *zap.Logger
}

func NewSpeechService(apiKey, audioDir string, logger *zap.Logger) (*SpeechService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for speech synthesis")
	}
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir: %w", err)
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &SpeechService{
		client:   &client,
		audioDir: audioDir,
		logger:   logger,
	}, nil
}

func (s *SpeechService) audioPath(videoID string) string {
	return filepath.Join(s.audioDir, "summary-"+videoID+".mp3")
}

// Synthesize renders text to an MP3 file for the video and returns its path.
// An already-rendered file is reused as-is.
func (s *SpeechService) Synthesize(ctx context.Context, text, videoID string) (string, error) {
	path := s.audioPath(videoID)
	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("Reusing synthesized audio", zap.String("video_id", videoID))
		return path, nil
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Voice:          openai.AudioSpeechNewParamsVoiceAlloy,
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		s.logger.Error("Speech synthesis failed", zap.String("video_id", videoID), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		os.Remove(path)
		return "", err
	}

	s.logger.Info("Speech synthesized",
		zap.String("video_id", videoID),
		zap.Int64("bytes", written))
	return path, nil
}

// Download returns the synthesized audio for a video. Synthesis must have
// happened first; there is no text to render from here.
func (s *SpeechService) Download(_ context.Context, videoID string) ([]byte, error) {
	data, err := os.ReadFile(s.audioPath(videoID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no synthesized audio for video %s", videoID)
	}
	return data, err
}
