package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goactions/internal/app"
	"github.com/hyperifyio/goactions/internal/render"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("goactions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfig_FlagsOverrideEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "goactions.yaml")
	if err := os.WriteFile(cfgPath, []byte("popup:\n  endpoint: http://127.0.0.1:7001/api/extract\n  format: text\n  timeout: 5s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GOACTIONS_ENDPOINT", "http://127.0.0.1:7002/api/extract")
	t.Setenv("GOACTIONS_FORMAT", "")
	t.Setenv("GOACTIONS_TIMEOUT", "")

	cfg, err := parseConfig(newFlagSet(), []string{"-config", cfgPath, "-env", "", "-format", "json", "-notes", "Bob: book the room"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Endpoint != "http://127.0.0.1:7002/api/extract" {
		t.Fatalf("env should override file, got %q", cfg.Endpoint)
	}
	if cfg.Format != app.FormatJSON || cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected format/timeout %+v", cfg)
	}
	if !cfg.NotesSet || cfg.Notes != "Bob: book the room" {
		t.Fatalf("notes flag not applied: %+v", cfg)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Setenv("GOACTIONS_ENDPOINT", "")
	if _, err := parseConfig(newFlagSet(), []string{"-env", "", "-format", "pdf"}); err == nil {
		t.Fatal("pdf without -output should be rejected")
	}
	if _, err := parseConfig(newFlagSet(), []string{"-env", "", "-endpoint", "localhost"}); err == nil {
		t.Fatal("non-URL endpoint should be rejected")
	}
}

func TestRun_ExitCodes(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer ok.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	cfg := app.DefaultConfig()
	cfg.Endpoint = ok.URL
	var out bytes.Buffer
	if code := run(context.Background(), cfg, strings.NewReader("notes"), &out); code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if strings.TrimSpace(out.String()) != render.EmptyText {
		t.Fatalf("unexpected output %q", out.String())
	}

	cfg.Endpoint = failing.URL
	out.Reset()
	if code := run(context.Background(), cfg, strings.NewReader("notes"), &out); code != exitFailed {
		t.Fatalf("exit %d, want %d", code, exitFailed)
	}
	if strings.TrimSpace(out.String()) != render.Error() {
		t.Fatalf("unexpected output %q", out.String())
	}

	cfg.InputPath = filepath.Join(t.TempDir(), "missing.txt")
	if code := run(context.Background(), cfg, nil, &out); code != exitConfig {
		t.Fatalf("exit %d, want %d", code, exitConfig)
	}
}
