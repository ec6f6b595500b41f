package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goactions/internal/client"
	"github.com/hyperifyio/goactions/internal/popup"
	"github.com/hyperifyio/goactions/internal/render"
	"github.com/hyperifyio/goactions/internal/textview"
)

// UserAgent identifies the popup client to the extraction service.
const UserAgent = "goactions/1.0 (+https://github.com/hyperifyio/goactions)"

// Popup wires the extraction client, the activation handler and the results
// region for one CLI invocation.
type Popup struct {
	cfg     Config
	Client  *client.Client
	Region  *popup.Buffer
	Handler *popup.Handler
}

// NewPopup validates cfg and builds the popup. No request is made yet.
func NewPopup(cfg Config) (*Popup, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	c := &client.Client{
		HTTPClient: newHTTPClient(0),
		Endpoint:   cfg.Endpoint,
		UserAgent:  UserAgent,
		Timeout:    cfg.Timeout,
	}
	region := &popup.Buffer{}
	if cfg.Verbose {
		region.OnWrite = func(fragment string) {
			log.Debug().Int("bytes", len(fragment)).Msg("results region updated")
		}
	}
	return &Popup{
		cfg:     cfg,
		Client:  c,
		Region:  region,
		Handler: popup.New(c, nil, region),
	}, nil
}

// ReadNotes returns the notes from the config, the input file or in when the
// input path is "-".
func (p *Popup) ReadNotes(in io.Reader) (string, error) {
	if p.cfg.NotesSet {
		return p.cfg.Notes, nil
	}
	path := strings.TrimSpace(p.cfg.InputPath)
	if path == "" || path == "-" {
		if in == nil {
			return "", nil
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read notes from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(b), nil
}

// Run activates the popup once and writes the results region in the
// configured format. The activation error is returned after the output has
// been written; the handler state tells rendered output from a shown error.
func (p *Popup) Run(ctx context.Context, notes string, out io.Writer) error {
	actErr := p.Handler.ActivateWith(ctx, notes)

	if p.cfg.Format == FormatPDF {
		if actErr != nil {
			_, err := fmt.Fprintln(out, render.ErrorText)
			if err != nil {
				return err
			}
			return actErr
		}
		if err := render.WritePDF(p.Handler.Last().Items, "Action items", p.cfg.OutputPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", p.cfg.OutputPath).Int("items", len(p.Handler.Last().Items)).Msg("pdf written")
		return nil
	}

	body, err := p.format(actErr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.cfg.OutputPath) != "" {
		if err := os.WriteFile(p.cfg.OutputPath, body, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Info().Str("path", p.cfg.OutputPath).Str("format", p.cfg.Format).Msg("output written")
	} else if _, err := out.Write(body); err != nil {
		return err
	}
	return actErr
}

type jsonError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (p *Popup) format(actErr error) ([]byte, error) {
	switch p.cfg.Format {
	case FormatText:
		return []byte(textview.FromHTML(p.Region.Content()) + "\n"), nil
	case FormatJSON:
		var v any = p.Handler.Last()
		if actErr != nil {
			v = jsonError{Error: render.ErrorText, Kind: client.Kind(actErr)}
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return []byte(p.Region.Content() + "\n"), nil
	}
}

// Serve serves the popup page on the configured address until ctx ends.
func (p *Popup) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              p.cfg.ServeAddr,
		Handler:           &popup.Page{Handler: p.Handler, Region: p.Region},
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", p.cfg.ServeAddr).Str("endpoint", p.Client.Endpoint).Msg("popup page listening")
	return serve(ctx, srv)
}
