package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
	"github.com/lisashushakova/PresentationConfigurator/internal/tagquery"
)

// SlideView is a slide paired with its display label ("<deck name> <n>").
type SlideView struct {
	Slide    *domain.Slide
	DeckName string
	Label    string
}

// SlideFilters narrows a slide search. Empty fields mean "no filter".
type SlideFilters struct {
	DeckQuery  string // tag query over decks
	SlideQuery string // tag query over slides
	Text       string // case-insensitive substring of slide text
	Ratio      *domain.Ratio
}

// SlideService answers slide lookups and filtered searches.
type SlideService struct {
	db     *sqlite.Store
	tags   *TagService
	logger *slog.Logger
}

// NewSlideService creates a new slide service.
func NewSlideService(db *sqlite.Store, tags *TagService, logger *slog.Logger) *SlideService {
	return &SlideService{db: db, tags: tags, logger: logger}
}

// ByDeck returns one deck's slides in index order.
func (s *SlideService) ByDeck(ctx context.Context, sess *domain.Session, deckID string) ([]*domain.Slide, error) {
	deck, err := s.db.GetDeck(ctx, deckID)
	if err != nil {
		return nil, errors.NotFound("deck not found")
	}
	if deck.OwnerID != sess.UserID {
		return nil, errors.Forbidden("deck belongs to another user")
	}

	slides, err := s.db.SlidesByDeck(ctx, deckID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load slides")
	}
	return slides, nil
}

// Get returns one slide, checking it belongs to the session's user.
func (s *SlideService) Get(ctx context.Context, sess *domain.Session, slideID int64) (*domain.Slide, error) {
	slide, err := s.db.GetSlide(ctx, slideID)
	if err != nil {
		return nil, errors.NotFound("slide not found")
	}
	deck, err := s.db.GetDeck(ctx, slide.DeckID)
	if err != nil {
		return nil, errors.NotFound("slide's deck not found")
	}
	if deck.OwnerID != sess.UserID {
		return nil, errors.Forbidden("slide belongs to another user")
	}
	return slide, nil
}

// ByFilters searches the user's slides. Filters compose conjunctively:
// decks narrowed by the deck query, then slides by the slide query, text
// substring, and ratio. Results are ordered by (deck, identity), so labels
// group by deck and stay stable across searches.
func (s *SlideService) ByFilters(ctx context.Context, sess *domain.Session, filters SlideFilters) ([]SlideView, error) {
	decks, err := s.tags.DecksByQuery(ctx, sess, filters.DeckQuery)
	if err != nil {
		return nil, err
	}
	deckNames := make(map[string]string, len(decks))
	deckIDs := make([]string, 0, len(decks))
	for _, d := range decks {
		deckNames[d.ID] = d.Name
		deckIDs = append(deckIDs, d.ID)
	}

	slides, err := s.db.SlidesByDecks(ctx, deckIDs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load slides")
	}

	if filters.SlideQuery != "" {
		slides, err = s.filterByQuery(ctx, sess, slides, filters.SlideQuery)
		if err != nil {
			return nil, err
		}
	}

	text := strings.ToLower(filters.Text)
	views := make([]SlideView, 0, len(slides))
	for _, sl := range slides {
		if text != "" && !strings.Contains(strings.ToLower(sl.Text), text) {
			continue
		}
		if filters.Ratio != nil && (sl.Ratio == nil || *sl.Ratio != *filters.Ratio) {
			continue
		}
		name := deckNames[sl.DeckID]
		views = append(views, SlideView{
			Slide:    sl,
			DeckName: name,
			Label:    sl.Label(name),
		})
	}
	return views, nil
}

// filterByQuery keeps the slides matching a tag query, preserving order.
func (s *SlideService) filterByQuery(ctx context.Context, sess *domain.Session, slides []*domain.Slide, query string) ([]*domain.Slide, error) {
	candidates := make([]int64, len(slides))
	for i, sl := range slides {
		candidates[i] = sl.ID
	}

	values, err := s.db.SlideLinkValues(ctx, sess.UserID, tagquery.TagNames(query))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to resolve tag values")
	}

	matched := make(map[int64]bool)
	for _, id := range tagquery.Filter(query, candidates, queryValues(values)) {
		matched[id] = true
	}

	kept := slides[:0]
	for _, sl := range slides {
		if matched[sl.ID] {
			kept = append(kept, sl)
		}
	}
	return kept, nil
}
