// Package popup implements the extraction request handler of the popup view:
// it reads the notes, shows a processing placeholder, calls the extraction
// endpoint once and renders the outcome into the results region.
package popup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/client"
	"github.com/hyperifyio/goactions/internal/items"
	"github.com/hyperifyio/goactions/internal/render"
)

// ErrBusy is returned by Activate when an extraction is already in flight.
// The region is left untouched in that case.
var ErrBusy = errors.New("extraction already in progress")

// State is the handler's position in the activation cycle.
type State int

const (
	Idle State = iota
	Processing
	Rendered
	ErrorShown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Rendered:
		return "rendered"
	case ErrorShown:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Extractor is the outbound call the handler depends on. *client.Client
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, notes string) (items.ExtractionResponse, error)
}

// NotesSource yields the current value of the notes field.
type NotesSource interface {
	Notes() string
}

// StaticNotes is a NotesSource with a fixed value.
type StaticNotes string

func (s StaticNotes) Notes() string { return string(s) }

// Handler is the extraction request handler of one popup session.
type Handler struct {
	extractor Extractor
	notes     NotesSource
	region    Region

	busy atomic.Bool

	mu    sync.Mutex
	state State
	last  items.ExtractionResponse
}

// New wires a handler to its collaborators.
func New(extractor Extractor, notes NotesSource, region Region) *Handler {
	return &Handler{extractor: extractor, notes: notes, region: region}
}

// State returns the state reached by the latest activation.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Last returns the response of the latest successful activation.
func (h *Handler) Last() items.ExtractionResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Handler) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Activate runs one extraction cycle with the current value of the notes
// source. The returned error is nil when a table or the empty state was
// rendered, ErrBusy when the activation was ignored, and the extraction
// failure otherwise; in the failure case the fixed error message has already
// been shown.
func (h *Handler) Activate(ctx context.Context) error {
	return h.activate(ctx, nil)
}

// ActivateWith is Activate with the notes supplied by the caller instead of
// the notes source, for one-shot callers such as a form submission.
func (h *Handler) ActivateWith(ctx context.Context, notes string) error {
	return h.activate(ctx, &notes)
}

func (h *Handler) activate(ctx context.Context, given *string) error {
	if !h.busy.CompareAndSwap(false, true) {
		log.Debug().Msg("activation ignored: extraction in flight")
		return ErrBusy
	}
	defer h.busy.Store(false)

	var notes string
	switch {
	case given != nil:
		notes = *given
	case h.notes != nil:
		notes = h.notes.Notes()
	}
	h.setState(Processing)
	h.region.SetContent(render.Processing())

	start := time.Now()
	resp, err := h.extractor.Extract(ctx, notes)
	if err == nil {
		var frag string
		frag, err = render.Result(resp)
		if err == nil {
			h.region.SetContent(frag)
			h.mu.Lock()
			h.state = Rendered
			h.last = resp
			h.mu.Unlock()
			log.Debug().Int("items", len(resp.Items)).Dur("took", time.Since(start)).Msg("extraction rendered")
			return nil
		}
		err = fmt.Errorf("render: %w", err)
	}

	log.Error().Err(err).Str("kind", client.Kind(err)).Dur("took", time.Since(start)).Msg("extraction failed")
	h.region.SetContent(render.Error())
	h.setState(ErrorShown)
	return err
}
