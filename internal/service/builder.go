package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

// Selection picks one slide of a stored deck by position.
type Selection struct {
	DeckID     string
	SlideIndex int
}

// BuildRequest describes a deck to assemble from existing slides.
type BuildRequest struct {
	Name        string
	Ratio       domain.Ratio
	Selections  []Selection
	StyleDeckID string // optional deck whose theme re-skins the result
}

// BuildResult reports the outcome of an assembly.
type BuildResult struct {
	Deck       *domain.DeckSummary
	SlideCount int
	Dropped    int // selections skipped as visual duplicates
}

// BuildService assembles new decks out of stored slides, uploads them to
// the user's drive and registers them so they show up like any synced deck.
type BuildService struct {
	db     *sqlite.Store
	drive  remote.Drive
	pool   *render.Pool
	syncer *SyncService
	cmp    *thumbs.Comparator
	cfg    *config.Config
	logger *slog.Logger
}

// NewBuildService creates a new build service.
func NewBuildService(db *sqlite.Store, drive remote.Drive, pool *render.Pool, syncer *SyncService, cmp *thumbs.Comparator, cfg *config.Config, logger *slog.Logger) *BuildService {
	return &BuildService{
		db:     db,
		drive:  drive,
		pool:   pool,
		syncer: syncer,
		cmp:    cmp,
		cfg:    cfg,
		logger: logger,
	}
}

// Build assembles the selected slides into a new deck, skipping visual
// duplicates, uploads it and stores it alongside the synced decks with the
// source slides' tags carried over. The artifact is kept on disk for the
// get-built endpoint.
func (s *BuildService) Build(ctx context.Context, sess *domain.Session, req BuildRequest) (*BuildResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.Validation("presentation name is required")
	}
	if len(req.Selections) == 0 {
		return nil, errors.Validation("at least one slide must be selected")
	}

	slides, err := s.resolveSelections(ctx, sess, req.Selections)
	if err != nil {
		return nil, err
	}

	built, dropped, err := s.dedup(slides)
	if err != nil {
		return nil, err
	}
	if len(built) == 0 {
		return nil, errors.Validation("all selected slides are duplicates of each other")
	}

	var style []byte
	if req.StyleDeckID != "" {
		style, err = s.downloadStyle(ctx, sess, req.StyleDeckID)
		if err != nil {
			return nil, err
		}
	}

	data, err := s.assemble(ctx, render.AssembleRequest{
		Name:      name,
		Ratio:     req.Ratio,
		Slides:    built,
		StyleDeck: style,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to assemble presentation")
	}

	summary, err := s.drive.Upload(ctx, sess.Credentials, remote.Upload{
		Name:    name,
		Content: data,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to upload presentation")
	}

	if err := s.syncer.SyncUploaded(ctx, sess, summary, req.Ratio, built); err != nil {
		return nil, err
	}

	if err := s.saveArtifact(sess.UserID, summary.ID, data); err != nil {
		// The deck is uploaded and registered; a lost artifact only breaks
		// the local download shortcut.
		s.logger.Warn("Failed to store built artifact", "deck_id", summary.ID, "error", err)
	}

	s.logger.Info("Built presentation",
		"user_id", sess.UserID,
		"deck_id", summary.ID,
		"slides", len(built),
		"dropped", dropped)

	return &BuildResult{Deck: summary, SlideCount: len(built), Dropped: dropped}, nil
}

// StylePreview renders one stored slide re-skinned with another deck's
// theme, so the client can show how a style reference would look.
func (s *BuildService) StylePreview(ctx context.Context, sess *domain.Session, slideID int64, styleDeckID string) ([]byte, error) {
	slide, err := s.db.GetSlide(ctx, slideID)
	if err != nil {
		return nil, errors.NotFound("slide not found")
	}
	deck, err := s.db.GetDeck(ctx, slide.DeckID)
	if err != nil || deck.OwnerID != sess.UserID {
		return nil, errors.NotFound("slide not found")
	}

	style, err := s.downloadStyle(ctx, sess, styleDeckID)
	if err != nil {
		return nil, err
	}

	ratio := domain.RatioWidescreen16x9
	if slide.Ratio != nil {
		ratio = *slide.Ratio
	}
	data, err := s.assemble(ctx, render.AssembleRequest{
		Name:      "preview",
		Ratio:     ratio,
		Slides:    []render.BuildSlide{{Thumbnail: slide.Thumbnail, Text: slide.Text}},
		StyleDeck: style,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to assemble preview")
	}

	renderer, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "no renderer available")
	}
	rendered, err := renderer.Render(ctx, data, 1)
	if err != nil {
		s.pool.Discard(renderer)
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to render preview")
	}
	s.pool.Release(renderer)

	if len(rendered.Thumbnails) == 0 {
		return nil, errors.Internal("preview rendered no pages")
	}
	return rendered.Thumbnails[0], nil
}

// GetBuilt returns the stored artifact for a deck built by this user.
func (s *BuildService) GetBuilt(ctx context.Context, sess *domain.Session, deckID string) ([]byte, error) {
	path, err := s.artifactPath(sess.UserID, deckID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("built presentation not found")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read built presentation")
	}
	return data, nil
}

// ClearBuilt removes all of the user's stored build artifacts.
func (s *BuildService) ClearBuilt(ctx context.Context, sess *domain.Session) error {
	if err := os.RemoveAll(s.cfg.BuiltPath(sess.UserID)); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to clear built presentations")
	}
	return nil
}

// resolveSelections maps (deck, index) pairs to stored slides, loading each
// deck's slides once and checking ownership.
func (s *BuildService) resolveSelections(ctx context.Context, sess *domain.Session, selections []Selection) ([]*domain.Slide, error) {
	byDeck := make(map[string][]*domain.Slide)
	resolved := make([]*domain.Slide, 0, len(selections))
	for _, sel := range selections {
		slides, ok := byDeck[sel.DeckID]
		if !ok {
			deck, err := s.db.GetDeck(ctx, sel.DeckID)
			if err != nil {
				return nil, errors.NotFoundf("deck %s not found", sel.DeckID)
			}
			if deck.OwnerID != sess.UserID {
				return nil, errors.Forbidden("deck belongs to another user")
			}
			slides, err = s.db.SlidesByDeck(ctx, sel.DeckID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInternal, "failed to load slides")
			}
			byDeck[sel.DeckID] = slides
		}
		if sel.SlideIndex < 0 || sel.SlideIndex >= len(slides) {
			return nil, errors.Validationf("deck %s has no slide %d", sel.DeckID, sel.SlideIndex)
		}
		resolved = append(resolved, slides[sel.SlideIndex])
	}
	return resolved, nil
}

// dedup drops slides visually similar to an earlier kept one. Selection
// order is preserved; the first of a duplicate group wins.
func (s *BuildService) dedup(slides []*domain.Slide) ([]render.BuildSlide, int, error) {
	kept := make([]render.BuildSlide, 0, len(slides))
	dropped := 0
	for _, sl := range slides {
		dup := false
		for _, k := range kept {
			same, err := s.cmp.Similar(sl.Thumbnail, k.Thumbnail)
			if err != nil {
				return nil, 0, errors.Wrap(err, errors.CodeInternal, "failed to compare slides")
			}
			if same {
				dup = true
				break
			}
		}
		if dup {
			dropped++
			continue
		}
		kept = append(kept, render.BuildSlide{
			Thumbnail: sl.Thumbnail,
			Text:      sl.Text,
			SourceID:  sl.ID,
		})
	}
	return kept, dropped, nil
}

func (s *BuildService) downloadStyle(ctx context.Context, sess *domain.Session, deckID string) ([]byte, error) {
	deck, err := s.db.GetDeck(ctx, deckID)
	if err != nil {
		return nil, errors.NotFound("style deck not found")
	}
	if deck.OwnerID != sess.UserID {
		return nil, errors.Forbidden("style deck belongs to another user")
	}
	data, err := s.drive.Download(ctx, sess.Credentials, deckID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to download style deck")
	}
	return data, nil
}

func (s *BuildService) assemble(ctx context.Context, req render.AssembleRequest) ([]byte, error) {
	renderer, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Assemble(ctx, req)
	if err != nil {
		s.pool.Discard(renderer)
		return nil, err
	}
	s.pool.Release(renderer)
	return data, nil
}

func (s *BuildService) saveArtifact(userID, deckID string, data []byte) error {
	path, err := s.artifactPath(userID, deckID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// artifactPath rejects identifiers that would escape the user's directory.
func (s *BuildService) artifactPath(userID, deckID string) (string, error) {
	file := fmt.Sprintf("%s.pptx", deckID)
	if deckID == "" || filepath.Base(file) != file {
		return "", errors.Validation("invalid presentation id")
	}
	return filepath.Join(s.cfg.BuiltPath(userID), file), nil
}
