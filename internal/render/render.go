// Package render defines the rendering collaborators: turning deck files
// into per-slide thumbnails and text, and assembling new deck files from
// selected slides. Sessions are pooled because starting a renderer process
// is expensive.
package render

import (
	"context"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

// Rendered is the per-slide output of rendering one deck file.
type Rendered struct {
	Thumbnails [][]byte // PNG bytes, one per slide, in slide order
	Texts      []string // concatenated text content, parallel to Thumbnails
	Ratio      domain.Ratio
}

// BuildSlide is one slide going into an assembled deck.
type BuildSlide struct {
	Thumbnail []byte
	Text      string
	// SourceID is the stored identity of the originating slide, used to
	// carry tags onto the assembled deck's slides.
	SourceID int64
}

// AssembleRequest describes a deck to build.
type AssembleRequest struct {
	Name   string
	Ratio  domain.Ratio
	Slides []BuildSlide
	// StyleDeck optionally holds a deck file whose master and theme are
	// applied to the output.
	StyleDeck []byte
}

// Session is one live renderer instance. Sessions are not safe for
// concurrent use; callers acquire one from the Pool per batch of work.
type Session interface {
	// Render renders a deck file. At most maxSlides slides are read.
	Render(ctx context.Context, deck []byte, maxSlides int) (*Rendered, error)

	// Assemble builds a new deck file from the selected slides.
	Assemble(ctx context.Context, req AssembleRequest) ([]byte, error)

	// Close releases the underlying renderer process.
	Close() error
}
