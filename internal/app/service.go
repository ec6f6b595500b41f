package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/cache"
	"github.com/hyperifyio/goactions/internal/extractor"
	"github.com/hyperifyio/goactions/internal/llm"
	"github.com/hyperifyio/goactions/internal/server"
)

// Service is the reference extraction service.
type Service struct {
	cfg     ServerConfig
	Engine  extractor.Engine
	Metrics *server.Metrics
	Handler *server.Server
}

// NewService validates cfg, prepares the cache and builds the engine. A
// failing model preflight is logged and does not stop startup.
func NewService(ctx context.Context, cfg ServerConfig) (*Service, error) {
	if err := ValidateServerConfig(cfg); err != nil {
		return nil, err
	}
	engine := buildEngine(ctx, cfg, nil)
	metrics := server.NewMetrics()
	return &Service{
		cfg:     cfg,
		Engine:  engine,
		Metrics: metrics,
		Handler: server.New(engine, cfg.CORSOrigins, metrics),
	}, nil
}

// buildEngine returns the configured engine. provider overrides the
// OpenAI-compatible client when non-nil.
func buildEngine(ctx context.Context, cfg ServerConfig, provider llm.Client) extractor.Engine {
	rules := &extractor.Rules{}
	if cfg.Engine != "llm" {
		return rules
	}

	if provider == nil {
		p := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newHTTPClient(120*time.Second))
		preflight(ctx, p)
		provider = p
	}

	e := &extractor.LLM{Client: provider, Model: cfg.LLMModel}
	if cfg.LLMFallback {
		e.Fallback = rules
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		e.Cache = &cache.ResponseCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	return e
}

// preflight lists models to surface an unreachable model server early.
func preflight(ctx context.Context, lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// ListenAndServe serves the extraction API until ctx ends.
func (s *Service) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", s.cfg.Addr).Str("engine", s.Engine.Name()).Msg("extraction service listening")
	return serve(ctx, srv)
}
