package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
	"github.com/lisashushakova/PresentationConfigurator/internal/tagquery"
	"github.com/lisashushakova/PresentationConfigurator/internal/validation"
)

// TagService owns tags, links, and deck-level tag query filtering.
type TagService struct {
	db     *sqlite.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(db *sqlite.Store, logger *slog.Logger) *TagService {
	return &TagService{db: db, logger: logger}
}

// TagLists is the split view of a user's tags: which are used on decks and
// which on slides. A tag can appear in both.
type TagLists struct {
	DeckTags  []string `json:"deck_tags"`
	SlideTags []string `json:"slide_tags"`
}

// Lists returns the user's tags split by what they are linked to.
func (s *TagService) Lists(ctx context.Context, sess *domain.Session) (*TagLists, error) {
	deckTags, err := s.db.DeckTagNames(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list deck tags")
	}
	slideTags, err := s.db.SlideTagNames(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list slide tags")
	}
	return &TagLists{DeckTags: deckTags, SlideTags: slideTags}, nil
}

// LinkSlide attaches a tag to a slide. Linking an already linked pair
// replaces the value.
func (s *TagService) LinkSlide(ctx context.Context, sess *domain.Session, slideID int64, tagName string, value *int64) (*domain.SlideLink, error) {
	if !validation.ValidTagName(tagName) {
		return nil, errors.Validationf("invalid tag name %q", tagName)
	}
	if _, err := s.db.GetSlide(ctx, slideID); err != nil {
		return nil, errors.NotFound("slide not found")
	}

	link, err := s.db.UpsertSlideLink(ctx, sess.UserID, slideID, tagName, value)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to link tag")
	}
	return link, nil
}

// LinkDeck attaches a tag to a deck.
func (s *TagService) LinkDeck(ctx context.Context, sess *domain.Session, deckID, tagName string, value *int64) (*domain.DeckLink, error) {
	if !validation.ValidTagName(tagName) {
		return nil, errors.Validationf("invalid tag name %q", tagName)
	}
	if _, err := s.db.GetDeck(ctx, deckID); err != nil {
		return nil, errors.NotFound("deck not found")
	}

	link, err := s.db.UpsertDeckLink(ctx, sess.UserID, deckID, tagName, value)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to link tag")
	}
	return link, nil
}

// UnlinkSlide removes a slide's link to a tag. The tag itself is collected
// once its last link is gone.
func (s *TagService) UnlinkSlide(ctx context.Context, sess *domain.Session, slideID int64, tagName string) error {
	err := s.db.DeleteSlideLink(ctx, sess.UserID, slideID, tagName)
	if errors.Is(err, store.ErrNotFound) {
		return errors.NotFound("link not found")
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to unlink tag")
	}
	return nil
}

// UnlinkDeck removes a deck's link to a tag.
func (s *TagService) UnlinkDeck(ctx context.Context, sess *domain.Session, deckID, tagName string) error {
	err := s.db.DeleteDeckLink(ctx, sess.UserID, deckID, tagName)
	if errors.Is(err, store.ErrNotFound) {
		return errors.NotFound("link not found")
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to unlink tag")
	}
	return nil
}

// SlideLinks returns a slide's links as (tag name, value) pairs.
func (s *TagService) SlideLinks(ctx context.Context, slideID int64) ([]sqlite.TaggedValue, error) {
	links, err := s.db.LinksBySlide(ctx, slideID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list slide links")
	}
	return links, nil
}

// DecksByQuery returns the user's decks matching a tag query, sorted by
// name. An empty query means no filter; a malformed one matches nothing.
func (s *TagService) DecksByQuery(ctx context.Context, sess *domain.Session, query string) ([]*domain.Deck, error) {
	decks, err := s.db.ListDecks(ctx, sess.UserID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to list decks")
	}
	if query == "" {
		return decks, nil
	}

	byID := make(map[string]*domain.Deck, len(decks))
	candidates := make([]string, 0, len(decks))
	for _, d := range decks {
		byID[d.ID] = d
		candidates = append(candidates, d.ID)
	}

	values, err := s.db.DeckLinkValues(ctx, sess.UserID, tagquery.TagNames(query))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to resolve tag values")
	}

	matched := tagquery.Filter(query, candidates, queryValues(values))
	result := make([]*domain.Deck, 0, len(matched))
	for _, id := range matched {
		result = append(result, byID[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// queryValues converts stored link rows into the evaluator's value maps.
// A link with no numeric value resolves as presence (true).
func queryValues[ID comparable](links map[ID][]sqlite.TaggedValue) map[ID]map[string]tagquery.Value {
	values := make(map[ID]map[string]tagquery.Value, len(links))
	for id, tvs := range links {
		m := make(map[string]tagquery.Value, len(tvs))
		for _, tv := range tvs {
			if tv.Value != nil {
				m[tv.TagName] = tagquery.Num(float64(*tv.Value))
			} else {
				m[tv.TagName] = tagquery.True
			}
		}
		values[id] = m
	}
	return values
}
