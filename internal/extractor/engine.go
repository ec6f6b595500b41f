// Package extractor turns free-text meeting notes into action items. It backs
// the reference extraction service; the popup itself never imports it.
package extractor

import (
	"context"

	"github.com/hyperifyio/goactions/internal/items"
)

// Engine extracts action items from notes.
type Engine interface {
	Name() string
	Extract(ctx context.Context, notes string) (items.ExtractionResponse, error)
}
