// Package office implements renderer sessions on top of a headless
// LibreOffice install: decks convert to PDF with soffice and rasterize to
// per-slide PNGs with pdftoppm. Text and slide sizing come straight from
// the deck file, assembly is done in-process.
package office

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/render/pptx"
)

// Config points at the conversion binaries.
type Config struct {
	SofficePath  string // default "soffice"
	PdftoppmPath string // default "pdftoppm"
	// RasterDPI controls thumbnail resolution. Thumbnails are compared,
	// not displayed full-size, so a modest DPI keeps renders fast.
	RasterDPI int // default 96
}

func (c Config) withDefaults() Config {
	if c.SofficePath == "" {
		c.SofficePath = "soffice"
	}
	if c.PdftoppmPath == "" {
		c.PdftoppmPath = "pdftoppm"
	}
	if c.RasterDPI == 0 {
		c.RasterDPI = 96
	}
	return c
}

// Session is one renderer instance with a private scratch directory.
// LibreOffice requires a dedicated user profile per concurrent instance,
// which is why sessions are pooled instead of shared.
type Session struct {
	cfg     Config
	workDir string
	logger  *slog.Logger
}

var _ render.Session = (*Session)(nil)

// NewSession creates a session with a fresh scratch directory.
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	workDir, err := os.MkdirTemp("", "presconf-render-*")
	if err != nil {
		return nil, fmt.Errorf("create render scratch dir: %w", err)
	}
	return &Session{cfg: cfg.withDefaults(), workDir: workDir, logger: logger}, nil
}

// Factory returns a pool factory producing office sessions.
func Factory(cfg Config, logger *slog.Logger) render.Factory {
	return func(ctx context.Context) (render.Session, error) {
		return NewSession(cfg, logger)
	}
}

// Render converts the deck to per-slide PNG thumbnails and extracts each
// slide's text. The deck's aspect ratio is classified from its slide size;
// unsupported sizes fail before any conversion work happens.
func (s *Session) Render(ctx context.Context, deck []byte, maxSlides int) (*render.Rendered, error) {
	reader, err := pptx.NewReader(deck)
	if err != nil {
		return nil, err
	}
	ratio, err := reader.Ratio()
	if err != nil {
		return nil, err
	}
	texts, err := reader.SlideTexts(maxSlides)
	if err != nil {
		return nil, err
	}

	deckPath := filepath.Join(s.workDir, "deck.pptx")
	if err := os.WriteFile(deckPath, deck, 0o600); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}
	defer s.cleanScratch()

	// A dedicated profile dir keeps concurrent soffice instances apart.
	profileArg := fmt.Sprintf("-env:UserInstallation=file://%s", filepath.Join(s.workDir, "profile"))
	cmd := exec.CommandContext(ctx, s.cfg.SofficePath,
		profileArg, "--headless", "--convert-to", "pdf", "--outdir", s.workDir, deckPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("convert deck to pdf: %w: %s", err, out)
	}

	pdfPath := filepath.Join(s.workDir, "deck.pdf")
	rasterPrefix := filepath.Join(s.workDir, "slide")
	cmd = exec.CommandContext(ctx, s.cfg.PdftoppmPath,
		"-png", "-r", fmt.Sprint(s.cfg.RasterDPI), pdfPath, rasterPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w: %s", err, out)
	}

	pages, err := filepath.Glob(rasterPrefix + "-*.png")
	if err != nil {
		return nil, err
	}
	// pdftoppm zero-pads page numbers uniformly, so lexical order is page
	// order.
	sort.Strings(pages)
	if maxSlides > 0 && len(pages) > maxSlides {
		pages = pages[:maxSlides]
	}

	thumbs := make([][]byte, 0, len(pages))
	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			return nil, fmt.Errorf("read rendered page: %w", err)
		}
		thumbs = append(thumbs, data)
	}

	if len(thumbs) != len(texts) {
		// Hidden slides render in text extraction but not in the PDF;
		// trust the rendered count and align texts to it.
		s.logger.Debug("slide count mismatch between raster and text",
			"rendered", len(thumbs), "texts", len(texts))
		if len(texts) > len(thumbs) {
			texts = texts[:len(thumbs)]
		} else {
			for len(texts) < len(thumbs) {
				texts = append(texts, "")
			}
		}
	}

	return &render.Rendered{Thumbnails: thumbs, Texts: texts, Ratio: ratio}, nil
}

// Assemble builds an image-only deck from the selected slides, optionally
// re-skinned with the style reference's theme.
func (s *Session) Assemble(_ context.Context, req render.AssembleRequest) ([]byte, error) {
	w := pptx.NewWriter(req.Ratio)
	for _, slide := range req.Slides {
		w.AddSlide(slide.Thumbnail)
	}

	if req.StyleDeck != nil {
		styleReader, err := pptx.NewReader(req.StyleDeck)
		if err != nil {
			return nil, fmt.Errorf("open style reference: %w", err)
		}
		w.SetTheme(styleReader.Theme())
	}

	return w.Bytes()
}

// Close drops the scratch directory.
func (s *Session) Close() error {
	return os.RemoveAll(s.workDir)
}

// cleanScratch removes per-render artifacts, keeping the profile between
// renders so soffice starts faster.
func (s *Session) cleanScratch() {
	entries, err := os.ReadDir(s.workDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.Name() == "profile" {
			continue
		}
		os.Remove(filepath.Join(s.workDir, e.Name()))
	}
}
