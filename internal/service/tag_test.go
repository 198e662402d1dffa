package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

func i64(v int64) *int64 { return &v }

func seedDeck(t *testing.T, db *sqlite.Store, id, name, ownerID string) {
	t.Helper()

	err := db.CreateDeck(context.Background(), &domain.Deck{
		ID:           id,
		Name:         name,
		OwnerID:      ownerID,
		ModifiedTime: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func seedSlide(t *testing.T, db *sqlite.Store, deckID string, index int, text string) int64 {
	t.Helper()

	id, err := db.InsertSlide(context.Background(), &domain.Slide{
		DeckID:    deckID,
		Index:     index,
		Thumbnail: []byte(text),
		Text:      text,
	})
	require.NoError(t, err)
	return id
}

func TestLinkSlide(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")
	ctx := context.Background()

	seedDeck(t, db, "d1", "Deck", sess.UserID)
	slideID := seedSlide(t, db, "d1", 0, "intro")

	link, err := svc.LinkSlide(ctx, sess, slideID, "intro", nil)
	require.NoError(t, err)
	assert.Nil(t, link.Value)

	// Linking the same pair again replaces the value.
	link, err = svc.LinkSlide(ctx, sess, slideID, "intro", i64(5))
	require.NoError(t, err)
	require.NotNil(t, link.Value)
	assert.Equal(t, int64(5), *link.Value)

	links, err := svc.SlideLinks(ctx, slideID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "intro", links[0].TagName)
}

func TestLinkSlide_InvalidTagName(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")

	for _, name := range []string{"Intro", "with space", "1st", ""} {
		_, err := svc.LinkSlide(context.Background(), sess, 1, name, nil)
		assert.Error(t, err, "tag name %q", name)
	}
}

func TestLinkSlide_MissingSlide(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")

	_, err := svc.LinkSlide(context.Background(), sess, 999, "intro", nil)
	assert.Error(t, err)
}

func TestUnlinkSlide(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")
	ctx := context.Background()

	seedDeck(t, db, "d1", "Deck", sess.UserID)
	slideID := seedSlide(t, db, "d1", 0, "intro")
	_, err := svc.LinkSlide(ctx, sess, slideID, "intro", nil)
	require.NoError(t, err)

	require.NoError(t, svc.UnlinkSlide(ctx, sess, slideID, "intro"))

	// Second unlink of the same pair fails.
	assert.Error(t, svc.UnlinkSlide(ctx, sess, slideID, "intro"))

	// The tag was collected with its last link.
	lists, err := svc.Lists(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, lists.SlideTags)
}

func TestLists_SplitByTarget(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")
	ctx := context.Background()

	seedDeck(t, db, "d1", "Deck", sess.UserID)
	slideID := seedSlide(t, db, "d1", 0, "intro")

	_, err := svc.LinkDeck(ctx, sess, "d1", "quarterly", nil)
	require.NoError(t, err)
	_, err = svc.LinkSlide(ctx, sess, slideID, "chart", nil)
	require.NoError(t, err)
	_, err = svc.LinkSlide(ctx, sess, slideID, "shared", nil)
	require.NoError(t, err)
	_, err = svc.LinkDeck(ctx, sess, "d1", "shared", nil)
	require.NoError(t, err)

	lists, err := svc.Lists(ctx, sess)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"quarterly", "shared"}, lists.DeckTags)
	assert.ElementsMatch(t, []string{"chart", "shared"}, lists.SlideTags)
}

func TestDecksByQuery(t *testing.T) {
	db := testDB(t)
	svc := NewTagService(db, testLogger())
	sess := testSession(t, db, "u1")
	ctx := context.Background()

	seedDeck(t, db, "d1", "Alpha", sess.UserID)
	seedDeck(t, db, "d2", "Beta", sess.UserID)
	seedDeck(t, db, "d3", "Gamma", sess.UserID)

	_, err := svc.LinkDeck(ctx, sess, "d1", "quarterly", nil)
	require.NoError(t, err)
	_, err = svc.LinkDeck(ctx, sess, "d2", "rank", i64(2))
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"presence", "quarterly", []string{"Alpha"}},
		{"comparison", "rank < 3", []string{"Beta"}},
		{"disjunction", "quarterly or rank < 3", []string{"Alpha", "Beta"}},
		{"negation", "not quarterly", []string{"Beta", "Gamma"}},
		{"no match", "rank > 10", nil},
		{"empty matches all", "", []string{"Alpha", "Beta", "Gamma"}},
		{"malformed matches nothing", "and and", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decks, err := svc.DecksByQuery(ctx, sess, tt.query)
			require.NoError(t, err)
			names := make([]string, 0, len(decks))
			for _, d := range decks {
				names = append(names, d.Name)
			}
			if tt.want == nil {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.want, names)
			}
		})
	}
}
