package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/parkj/tubelens-go/internal/cache"
	"github.com/parkj/tubelens-go/internal/config"
	"github.com/parkj/tubelens-go/internal/service/ai"
	"github.com/parkj/tubelens-go/internal/service/backendapi"
	"github.com/parkj/tubelens-go/internal/service/history"
	"github.com/parkj/tubelens-go/internal/service/transcript"
	"github.com/parkj/tubelens-go/internal/service/youtube"
	"github.com/parkj/tubelens-go/internal/session"
)

// Container holds the assembled service graph. All heavy-weight
// initialization (slot store, providers, history) happens in Build so the
// session itself stays orchestration-only and independently testable.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Caches  *cache.Caches
	Session *session.Session
	Speech  SpeechSynthesizer
	History *history.PostgresStore

	closers []func()
}

// Close tears down everything Build brought up, in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Durable slots: Redis when configured, local files otherwise.
	var slots cache.SlotStore
	if cfg.UseRedis() {
		redisSlots, rerr := cache.NewRedisSlotStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if rerr != nil {
			return nil, fmt.Errorf("failed to create redis slot store: %w", rerr)
		}
		closers = append(closers, func() {
			_ = redisSlots.Close()
		})
		slots = redisSlots
	} else {
		fileSlots, ferr := cache.NewFileSlotStore(cfg.Cache.Dir, logger)
		if ferr != nil {
			return nil, fmt.Errorf("failed to create file slot store: %w", ferr)
		}
		slots = fileSlots
	}

	caches := cache.NewCaches(slots, logger)
	caches.SweepAll()

	var provider session.Provider
	var speech SpeechSynthesizer

	if cfg.UseBackend() {
		client := backendapi.NewClient(cfg.Backend.BaseURL, logger)
		provider = client
		speech = client
		logger.Info("Using hosted backend", zap.String("base_url", cfg.Backend.BaseURL))
	} else {
		ytService, yerr := youtube.NewService(cfg.YouTube.APIKey, cfg.Search.MaxResults, logger)
		if yerr != nil {
			return nil, fmt.Errorf("failed to create youtube service: %w", yerr)
		}

		var captions *transcript.CaptionsClient
		if cfg.YouTube.EnableCaptions {
			captions, err = transcript.NewCaptionsClient(logger)
			if err != nil {
				logger.Warn("Captions API unavailable, scrape only", zap.Error(err))
				captions = nil
				err = nil
			}
		}

		summarizer, serr := ai.NewSummarizer(ctx, ai.SummarizerConfig{
			GeminiAPIKey:   cfg.Gemini.APIKey,
			OpenAIAPIKey:   cfg.OpenAI.APIKey,
			EnableFallback: cfg.OpenAI.EnableFallback,
		}, logger)
		if serr != nil {
			return nil, fmt.Errorf("failed to create summarizer: %w", serr)
		}

		provider = &directProvider{
			youtube:    ytService,
			transcript: transcript.NewService(captions, logger),
			summarizer: summarizer,
		}

		if cfg.OpenAI.APIKey != "" {
			speechSvc, sperr := ai.NewSpeechService(cfg.OpenAI.APIKey, filepath.Join(cfg.Cache.Dir, "audio"), logger)
			if sperr != nil {
				return nil, fmt.Errorf("failed to create speech service: %w", sperr)
			}
			speech = speechSvc
		}
	}

	var historyStore *history.PostgresStore
	var historySink session.HistorySink
	if cfg.UsePostgres() {
		historyStore, err = history.NewPostgresStore(history.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		closers = append(closers, func() {
			_ = historyStore.Close()
		})
		historySink = historyStore
	}

	sess := session.New(caches, provider, historySink, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Caches:  caches,
		Session: sess,
		Speech:  speech,
		History: historyStore,
		closers: closers,
	}, nil
}
