// Package server is the reference HTTP service behind the popup's extraction
// endpoint: POST /api/extract, GET /health and GET /metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/extractor"
	"github.com/hyperifyio/goactions/internal/items"
)

// DefaultAddr matches the endpoint the popup targets by default.
const DefaultAddr = "127.0.0.1:5000"

const maxRequestBytes = 1 << 20

// Server routes requests to the extraction engine.
type Server struct {
	Engine extractor.Engine
	// CORSOrigins lists allowed origins; empty or "*" allows any origin.
	CORSOrigins []string
	Metrics     *Metrics

	mux *http.ServeMux
}

// New builds a server for engine. A nil metrics set is created on demand.
func New(engine extractor.Engine, corsOrigins []string, metrics *Metrics) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{Engine: engine, CORSOrigins: corsOrigins, Metrics: metrics, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	s.applyCORS(w, r)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	if r.Method == http.MethodOptions {
		rec.WriteHeader(http.StatusNoContent)
	} else {
		s.mux.ServeHTTP(rec, r)
	}

	s.Metrics.Requests.WithLabelValues(route(r.URL.Path), strconv.Itoa(rec.status)).Inc()
	log.Info().
		Str("request_id", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("took", time.Since(start)).
		Msg("request")
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	notes, err := decodeNotes(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := s.Engine.Name()
	start := time.Now()
	resp, err := s.Engine.Extract(r.Context(), notes)
	s.Metrics.Duration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("engine", engine).Msg("extraction failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.Items == nil {
		resp = items.NewResponse(nil)
	}
	s.Metrics.Extracted.WithLabelValues(engine).Add(float64(len(resp.Items)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": s.Engine.Name()})
}

// errInvalidNotes is reported when "notes" is present but not a string.
var errInvalidNotes = errors.New("invalid 'notes' field, must be string")

// decodeNotes reads {"notes": string}. A missing field reads as empty notes.
func decodeNotes(body io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxRequestBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("invalid JSON body: %v", err)
	}
	if fields == nil {
		return "", errors.New("invalid JSON body: expected an object")
	}
	v, ok := fields["notes"]
	if !ok {
		return "", nil
	}
	var notes string
	if err := json.Unmarshal(v, &notes); err != nil || strings.TrimSpace(string(v)) == "null" {
		return "", errInvalidNotes
	}
	return notes, nil
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := ""
	if len(s.CORSOrigins) == 0 {
		allowed = "*"
	}
	for _, o := range s.CORSOrigins {
		if o == "*" {
			allowed = "*"
			break
		}
		if origin != "" && strings.EqualFold(o, origin) {
			allowed = origin
			break
		}
	}
	if allowed == "" {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
}

// route collapses paths to the known routes to keep label cardinality low.
func route(path string) string {
	switch path {
	case "/api/extract", "/health", "/metrics":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

// writeError reports an error as {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
