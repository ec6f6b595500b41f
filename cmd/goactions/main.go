package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/app"
	"github.com/hyperifyio/goactions/internal/popup"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitConfig)
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, cfg, os.Stdin, os.Stdout))
}

// parseConfig layers defaults, the config file, the environment and finally
// the flags that were set explicitly.
func parseConfig(fs *flag.FlagSet, args []string) (app.Config, error) {
	var (
		notes      string
		inputPath  string
		endpoint   string
		timeout    time.Duration
		format     string
		outputPath string
		serveAddr  string
		configPath string
		envFiles   string
		verbose    bool
	)
	fs.StringVar(&notes, "notes", "", "Meeting notes to extract from (takes precedence over -input)")
	fs.StringVar(&inputPath, "input", "-", "Path to a notes file; '-' reads stdin")
	fs.StringVar(&endpoint, "endpoint", "", "Extraction endpoint URL (default "+app.DefaultConfig().Endpoint+")")
	fs.DurationVar(&timeout, "timeout", 0, "Request timeout (e.g. 10s); 0 disables")
	fs.StringVar(&format, "format", app.FormatHTML, "Output format: html, text, json or pdf")
	fs.StringVar(&outputPath, "output", "", "Write output to this file (required for pdf)")
	fs.StringVar(&serveAddr, "serve", "", "Serve the popup page on this address instead of a one-shot run")
	fs.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}

	if err := app.LoadEnvFiles(app.SplitList(envFiles)...); err != nil {
		return app.Config{}, fmt.Errorf("load env: %w", err)
	}
	cfg := app.DefaultConfig()
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "notes":
			cfg.Notes, cfg.NotesSet = notes, true
		case "input":
			cfg.InputPath = inputPath
		case "endpoint":
			cfg.Endpoint = endpoint
		case "timeout":
			cfg.Timeout = timeout
		case "format":
			cfg.Format = format
		case "output":
			cfg.OutputPath = outputPath
		case "serve":
			cfg.ServeAddr = serveAddr
		case "v":
			cfg.Verbose = verbose
		}
	})
	return cfg, app.ValidateConfig(cfg)
}

// run executes one popup invocation and returns the process exit code.
func run(ctx context.Context, cfg app.Config, stdin io.Reader, stdout io.Writer) int {
	p, err := app.NewPopup(cfg)
	if err != nil {
		log.Error().Err(err).Msg("init popup")
		return exitConfig
	}

	if cfg.ServeAddr != "" {
		if err := p.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("serve failed")
			return exitFailed
		}
		return exitOK
	}

	notes, err := p.ReadNotes(stdin)
	if err != nil {
		log.Error().Err(err).Msg("read notes")
		return exitConfig
	}
	if err := p.Run(ctx, notes, stdout); err != nil {
		// Extraction failures are logged by the handler.
		if p.Handler.State() != popup.ErrorShown {
			log.Error().Err(err).Msg("write output")
		}
		return exitFailed
	}
	return exitOK
}
