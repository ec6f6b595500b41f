package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/goactions/internal/client"
	"github.com/hyperifyio/goactions/internal/popup"
	"github.com/hyperifyio/goactions/internal/render"
)

func extractServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPopup(t *testing.T, endpoint, format string) *Popup {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Format = format
	p, err := NewPopup(cfg)
	if err != nil {
		t.Fatalf("new popup: %v", err)
	}
	return p
}

const oneItem = `{"items":[{"action":"Ship <b>report</b>","assignee":"Alice","deadline":"2024-06-01"}]}`

func TestPopup_RunHTML(t *testing.T) {
	srv := extractServer(t, http.StatusOK, oneItem)
	p := newTestPopup(t, srv.URL, FormatHTML)
	var out bytes.Buffer
	if err := p.Run(context.Background(), "notes", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "<td>Ship &lt;b&gt;report&lt;/b&gt;</td>") || !strings.HasSuffix(got, "\n") {
		t.Fatalf("unexpected html output %q", got)
	}
	if p.Handler.State() != popup.Rendered {
		t.Fatalf("state %v", p.Handler.State())
	}
}

func TestPopup_RunText(t *testing.T) {
	srv := extractServer(t, http.StatusOK, oneItem)
	p := newTestPopup(t, srv.URL, FormatText)
	var out bytes.Buffer
	if err := p.Run(context.Background(), "notes", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Action", "Assignee", "Deadline", "Ship <b>report</b>", "Alice", "2024-06-01"} {
		if !strings.Contains(got, want) {
			t.Fatalf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestPopup_RunJSONError(t *testing.T) {
	srv := extractServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	p := newTestPopup(t, srv.URL, FormatJSON)
	var out bytes.Buffer
	err := p.Run(context.Background(), "notes", &out)
	if !errors.Is(err, client.ErrServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if payload["error"] != render.ErrorText || payload["kind"] != "server_error" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if p.Handler.State() != popup.ErrorShown {
		t.Fatalf("state %v", p.Handler.State())
	}
}

func TestPopup_RunJSONSuccess(t *testing.T) {
	srv := extractServer(t, http.StatusOK, `{"items":[]}`)
	p := newTestPopup(t, srv.URL, FormatJSON)
	var out bytes.Buffer
	if err := p.Run(context.Background(), "", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"items": []`) {
		t.Fatalf("unexpected json %s", out.String())
	}
}

func TestPopup_RunWritesOutputFile(t *testing.T) {
	srv := extractServer(t, http.StatusOK, `{"items":[]}`)
	cfg := DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.html")
	p, err := NewPopup(cfg)
	if err != nil {
		t.Fatalf("new popup: %v", err)
	}
	var out bytes.Buffer
	if err := p.Run(context.Background(), "notes", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout should be empty, got %q", out.String())
	}
	b, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.TrimSpace(string(b)) != render.Empty() {
		t.Fatalf("unexpected file content %q", b)
	}
}

func TestPopup_RunPDF(t *testing.T) {
	srv := extractServer(t, http.StatusOK, oneItem)
	cfg := DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.Format = FormatPDF
	cfg.OutputPath = filepath.Join(t.TempDir(), "items.pdf")
	p, err := NewPopup(cfg)
	if err != nil {
		t.Fatalf("new popup: %v", err)
	}
	if err := p.Run(context.Background(), "notes", &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", b[:8])
	}
}

func TestPopup_UnreachableShowsError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	p := newTestPopup(t, url, FormatHTML)
	var out bytes.Buffer
	err := p.Run(context.Background(), "notes", &out)
	if !errors.Is(err, client.ErrUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if strings.TrimSpace(out.String()) != render.Error() {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPopup_ReadNotes(t *testing.T) {
	cfg := DefaultConfig()
	p, err := NewPopup(cfg)
	if err != nil {
		t.Fatalf("new popup: %v", err)
	}
	got, err := p.ReadNotes(strings.NewReader("from stdin"))
	if err != nil || got != "from stdin" {
		t.Fatalf("stdin: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.InputPath = path
	p, _ = NewPopup(cfg)
	if got, err := p.ReadNotes(nil); err != nil || got != "from file" {
		t.Fatalf("file: %q %v", got, err)
	}

	cfg.Notes, cfg.NotesSet = "", true
	p, _ = NewPopup(cfg)
	if got, err := p.ReadNotes(strings.NewReader("ignored")); err != nil || got != "" {
		t.Fatalf("flag notes should win even when empty: %q %v", got, err)
	}

	cfg.NotesSet = false
	cfg.InputPath = filepath.Join(t.TempDir(), "missing.txt")
	p, _ = NewPopup(cfg)
	if _, err := p.ReadNotes(nil); err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestNewPopup_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"
	if _, err := NewPopup(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
