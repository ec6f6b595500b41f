package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goactions/internal/client"
	"github.com/hyperifyio/goactions/internal/extractor"
	"github.com/hyperifyio/goactions/internal/items"
)

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }
func (failingEngine) Extract(context.Context, string) (items.ExtractionResponse, error) {
	return items.ExtractionResponse{}, errors.New("model offline")
}

func newTestServer(t *testing.T, engine extractor.Engine, origins ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(engine, origins, nil))
	t.Cleanup(srv.Close)
	return srv
}

func rules() extractor.Engine {
	return &extractor.Rules{Now: func() time.Time { return time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC) }}
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestExtract_Success(t *testing.T) {
	srv := newTestServer(t, rules())
	resp, body := post(t, srv.URL+"/api/extract", `{"notes":"Alice will ship the report tomorrow. Someone should book the room."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var out items.ExtractionResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].Assignee != "Alice" || out.Items[0].Deadline != "2024-05-16" {
		t.Fatalf("unexpected items %#v", out.Items)
	}
	if len(out.GeneralTasks) != 1 {
		t.Fatalf("unexpected general tasks %#v", out.GeneralTasks)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestExtract_EmptyAndMissingNotes(t *testing.T) {
	srv := newTestServer(t, rules())
	for _, body := range []string{`{"notes":""}`, `{}`} {
		resp, out := post(t, srv.URL+"/api/extract", body)
		if resp.StatusCode != http.StatusOK || !strings.Contains(out, `"items":[]`) {
			t.Fatalf("%s: status %d body %s", body, resp.StatusCode, out)
		}
	}
}

func TestExtract_BadRequests(t *testing.T) {
	srv := newTestServer(t, rules())
	cases := map[string]string{
		`{"notes":42}`:   "invalid 'notes' field, must be string",
		`{"notes":null}`: "invalid 'notes' field, must be string",
		`not json`:       "invalid JSON body",
		`null`:           "expected an object",
	}
	for body, want := range cases {
		resp, out := post(t, srv.URL+"/api/extract", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
		var e map[string]string
		if err := json.Unmarshal([]byte(out), &e); err != nil || !strings.Contains(e["error"], want) {
			t.Fatalf("%s: unexpected error body %s", body, out)
		}
	}
}

func TestExtract_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, rules())
	resp, err := http.Get(srv.URL + "/api/extract")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestExtract_EngineFailure(t *testing.T) {
	srv := newTestServer(t, failingEngine{})
	resp, body := post(t, srv.URL+"/api/extract", `{"notes":"x"}`)
	if resp.StatusCode != http.StatusInternalServerError || !strings.Contains(body, "model offline") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, rules())
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out["status"] != "ok" || out["engine"] != "rules" {
		t.Fatalf("unexpected health %#v", out)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, rules())
	post(t, srv.URL+"/api/extract", `{"notes":"Bob will call."}`)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`goactions_http_requests_total{code="200",route="/api/extract"} 1`,
		`goactions_extracted_items_total{engine="rules"} 1`,
		`goactions_extract_duration_seconds_count{engine="rules"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, rules(), "chrome-extension://abc")
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/extract", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "chrome-extension://abc" {
		t.Fatalf("unexpected allow origin %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if resp.Header.Get("X-Request-ID") != "req-1" {
		t.Fatal("request id not echoed")
	}

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/api/extract", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS grant for unknown origin")
	}
}

// The popup client and the reference service agree on the wire contract.
func TestClientRoundTrip(t *testing.T) {
	srv := newTestServer(t, rules())
	c := &client.Client{Endpoint: srv.URL + "/api/extract"}
	resp, err := c.Extract(context.Background(), "Carol must send the invoice by June 3.")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Assignee != "Carol" || resp.Items[0].Deadline != "2024-06-03" {
		t.Fatalf("unexpected items %#v", resp.Items)
	}

	bad := newTestServer(t, failingEngine{})
	_, err = (&client.Client{Endpoint: bad.URL + "/api/extract"}).Extract(context.Background(), "x")
	if !errors.Is(err, client.ErrServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
}
