package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// parseConfig layers defaults, the config file, the environment and finally
// the flags that were set explicitly.
func parseConfig(fs *flag.FlagSet, args []string) (app.ServerConfig, error) {
	var (
		addr        string
		engine      string
		corsOrigins string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		llmFallback bool
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		cacheStrict bool
		configPath  string
		envFiles    string
		verbose     bool
	)
	def := app.DefaultServerConfig()
	fs.StringVar(&addr, "addr", def.Addr, "Listen address")
	fs.StringVar(&engine, "engine", def.Engine, "Extraction engine: rules or llm")
	fs.StringVar(&corsOrigins, "cors.origins", "*", "Comma-separated allowed CORS origins; '*' allows any")
	fs.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&llmModel, "llm.model", "", "Model name")
	fs.StringVar(&llmKey, "llm.key", "", "API key for OpenAI-compatible server")
	fs.BoolVar(&llmFallback, "llm.fallback", def.LLMFallback, "Fall back to the rules engine when the model fails")
	fs.StringVar(&cacheDir, "cache.dir", "", "Model response cache directory; empty disables caching")
	fs.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory on startup")
	fs.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return app.ServerConfig{}, err
	}

	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		return app.ServerConfig{}, fmt.Errorf("load env: %w", err)
	}
	cfg := def
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.ServerConfig{}, err
		}
		app.ApplyServerFileConfig(&cfg, fc)
	}
	app.ApplyServerEnvOverrides(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = addr
		case "engine":
			cfg.Engine = engine
		case "cors.origins":
			cfg.CORSOrigins = app.SplitList(corsOrigins)
		case "llm.base":
			cfg.LLMBaseURL = llmBaseURL
		case "llm.model":
			cfg.LLMModel = llmModel
		case "llm.key":
			cfg.LLMAPIKey = llmKey
		case "llm.fallback":
			cfg.LLMFallback = llmFallback
		case "cache.dir":
			cfg.CacheDir = cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = cacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = cacheStrict
		case "v":
			cfg.Verbose = verbose
		}
	})
	return cfg, app.ValidateServerConfig(cfg)
}

func run(ctx context.Context, cfg app.ServerConfig) error {
	svc, err := app.NewService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	return svc.ListenAndServe(ctx)
}
