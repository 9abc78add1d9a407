package app

import (
	"context"

	"github.com/parkj/tubelens-go/internal/domain"
	"github.com/parkj/tubelens-go/internal/service/ai"
	"github.com/parkj/tubelens-go/internal/service/transcript"
	"github.com/parkj/tubelens-go/internal/service/youtube"
)

// SpeechSynthesizer renders summary text to an audio resource and serves the
// stored bytes back.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, videoID string) (string, error)
	Download(ctx context.Context, videoID string) ([]byte, error)
}

// directProvider implements session.Provider against YouTube and the AI
// services directly, without the hosted backend in between.
type directProvider struct {
	youtube    *youtube.Service
	transcript *transcript.Service
	summarizer *ai.Summarizer
}

func (d *directProvider) Search(ctx context.Context, query string) ([]domain.Suggestion, error) {
	return d.youtube.Search(ctx, query)
}

func (d *directProvider) VideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error) {
	return d.youtube.VideoDetails(ctx, videoID)
}

func (d *directProvider) Transcript(ctx context.Context, videoID string) (string, error) {
	return d.transcript.Transcript(ctx, videoID)
}

func (d *directProvider) Summarize(ctx context.Context, videoID, transcriptText string) (string, error) {
	return d.summarizer.Summarize(ctx, videoID, transcriptText)
}
