package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/parkj/tubelens-go/internal/util"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = openai.ChatModelGPT4oMini

	// Transcripts routinely run past model context budgets; the prompt
	// carries at most this many characters of it.
	maxTranscriptChars = 24000
	summaryMaxTokens   = 1024
)

// Summarizer condenses a video transcript into a readable summary. Gemini is
// the primary model; OpenAI serves as fallback when enabled and the primary
// call fails.
type Summarizer struct {
	gemini         *genai.Client
	geminiModel    string
	openaiClient   *openai.Client
	openaiModel    openai.ChatModel
	enableFallback bool
	logger         *zap.Logger
}

type SummarizerConfig struct {
	GeminiAPIKey   string
	OpenAIAPIKey   string
	EnableFallback bool
}

func NewSummarizer(ctx context.Context, cfg SummarizerConfig, logger *zap.Logger) (*Summarizer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s := &Summarizer{
		gemini:         geminiClient,
		geminiModel:    defaultGeminiModel,
		openaiModel:    defaultOpenAIModel,
		enableFallback: cfg.EnableFallback && cfg.OpenAIAPIKey != "",
		logger:         logger,
	}

	if s.enableFallback {
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		s.openaiClient = &client
	}

	logger.Info("Summarizer initialized",
		zap.String("model", s.geminiModel),
		zap.Bool("openai_fallback", s.enableFallback))
	return s, nil
}

// Summarize turns a transcript into a concise summary. An empty transcript
// yields a fixed explanatory message rather than an error: absence of
// captions is an empty result, not a failure.
func (s *Summarizer) Summarize(ctx context.Context, videoID, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "No transcript is available for this video, so a summary cannot be generated.", nil
	}

	prompt := buildSummaryPrompt(util.TruncateString(transcript, maxTranscriptChars))

	summary, err := s.generateGemini(ctx, prompt)
	if err == nil {
		s.logger.Info("Summary generated",
			zap.String("video_id", videoID),
			zap.String("provider", "Gemini"),
			zap.Int("length", len(summary)))
		return summary, nil
	}

	if !s.enableFallback {
		return "", err
	}

	s.logger.Warn("Gemini summary failed, falling back to OpenAI",
		zap.String("video_id", videoID), zap.Error(err))

	summary, err = s.generateOpenAI(ctx, prompt)
	if err != nil {
		return "", err
	}
	s.logger.Info("Summary generated",
		zap.String("video_id", videoID),
		zap.String("provider", "OpenAI"),
		zap.Int("length", len(summary)))
	return summary, nil
}

func buildSummaryPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Summarize the following video transcript in a few short paragraphs. ")
	b.WriteString("Cover the main topic, the key points in the order they are made, and any conclusion. ")
	b.WriteString("Write for someone deciding whether the video is worth watching.\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

func (s *Summarizer) generateGemini(ctx context.Context, prompt string) (string, error) {
	temp := float32(0.4)
	maxTokens := int32(summaryMaxTokens)

	resp, err := s.gemini.Models.GenerateContent(ctx, s.geminiModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	text := extractGeminiText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

func (s *Summarizer) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := s.openaiClient.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.openaiModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(summaryMaxTokens),
		Temperature:         openai.Float(0.4),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
