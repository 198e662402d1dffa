package service

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

type buildEnv struct {
	db       *sqlite.Store
	drive    *fakeDrive
	renderer *fakeRenderer
	tags     *TagService
	build    *BuildService
	sess     *domain.Session
}

func newBuildEnv(t *testing.T) *buildEnv {
	t.Helper()

	db := testDB(t)
	drive := newFakeDrive()
	renderer := newFakeRenderer()
	cfg := &config.Config{Data: config.DataConfig{BasePath: t.TempDir()}}
	pool := testPool(renderer)
	cmp := testComparator()
	files := NewFileService(db, drive, testLogger())
	syncer := NewSyncService(db, drive, files, pool, cmp, 2, 100, testLogger())

	return &buildEnv{
		db:       db,
		drive:    drive,
		renderer: renderer,
		tags:     NewTagService(db, testLogger()),
		build:    NewBuildService(db, drive, pool, syncer, cmp, cfg, testLogger()),
		sess:     testSession(t, db, "u1"),
	}
}

// seedSourceDeck stores a deck with a red, a duplicate red and a green
// slide, and tags the first one.
func (e *buildEnv) seedSourceDeck(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	seedDeck(t, e.db, "src", "Source", e.sess.UserID)
	red := pngFill(t, color.RGBA{R: 255, A: 255})
	green := pngFill(t, color.RGBA{G: 255, A: 255})
	thumbs := [][]byte{red, red, green}
	texts := []string{"intro", "intro again", "numbers"}

	var firstID int64
	for i := range thumbs {
		id, err := e.db.InsertSlide(ctx, &domain.Slide{
			DeckID:    "src",
			Index:     i,
			Thumbnail: thumbs[i],
			Text:      texts[i],
		})
		require.NoError(t, err)
		if i == 0 {
			firstID = id
		}
	}

	_, err := e.tags.LinkSlide(ctx, e.sess, firstID, "intro", nil)
	require.NoError(t, err)
}

func TestBuild(t *testing.T) {
	e := newBuildEnv(t)
	ctx := context.Background()
	e.seedSourceDeck(t)

	result, err := e.build.Build(ctx, e.sess, BuildRequest{
		Name:  "Best Of",
		Ratio: domain.RatioWidescreen16x9,
		Selections: []Selection{
			{DeckID: "src", SlideIndex: 0},
			{DeckID: "src", SlideIndex: 1}, // visually identical to 0
			{DeckID: "src", SlideIndex: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SlideCount)
	assert.Equal(t, 1, result.Dropped)
	require.Len(t, e.drive.uploads, 1)
	assert.Equal(t, "Best Of", e.drive.uploads[0].Name)

	// The uploaded deck is registered like a synced one.
	deck, err := e.db.GetDeck(ctx, result.Deck.ID)
	require.NoError(t, err)
	assert.Equal(t, e.sess.UserID, deck.OwnerID)

	slides, err := e.db.SlidesByDeck(ctx, result.Deck.ID)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "intro", slides[0].Text)
	assert.Equal(t, "numbers", slides[1].Text)

	// Tags of the source slides follow their new counterparts.
	links, err := e.db.LinksBySlide(ctx, slides[0].ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "intro", links[0].TagName)

	// The artifact is kept for download and gone after a clear.
	data, err := e.build.GetBuilt(ctx, e.sess, result.Deck.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, e.build.ClearBuilt(ctx, e.sess))
	_, err = e.build.GetBuilt(ctx, e.sess, result.Deck.ID)
	assert.Error(t, err)
}

func TestBuild_Validation(t *testing.T) {
	e := newBuildEnv(t)
	ctx := context.Background()
	e.seedSourceDeck(t)

	_, err := e.build.Build(ctx, e.sess, BuildRequest{
		Name:       "  ",
		Ratio:      domain.RatioWidescreen16x9,
		Selections: []Selection{{DeckID: "src", SlideIndex: 0}},
	})
	assert.Error(t, err, "blank name")

	_, err = e.build.Build(ctx, e.sess, BuildRequest{
		Name:  "Empty",
		Ratio: domain.RatioWidescreen16x9,
	})
	assert.Error(t, err, "no selections")

	_, err = e.build.Build(ctx, e.sess, BuildRequest{
		Name:       "Out of range",
		Ratio:      domain.RatioWidescreen16x9,
		Selections: []Selection{{DeckID: "src", SlideIndex: 7}},
	})
	assert.Error(t, err, "index out of range")

	_, err = e.build.Build(ctx, e.sess, BuildRequest{
		Name:       "Unknown deck",
		Ratio:      domain.RatioWidescreen16x9,
		Selections: []Selection{{DeckID: "nope", SlideIndex: 0}},
	})
	assert.Error(t, err, "unknown deck")
}

func TestBuild_ForeignDeck(t *testing.T) {
	e := newBuildEnv(t)
	ctx := context.Background()

	other := testSession(t, e.db, "u2")
	seedDeck(t, e.db, "theirs", "Theirs", other.UserID)
	seedSlide(t, e.db, "theirs", 0, "secret")

	_, err := e.build.Build(ctx, e.sess, BuildRequest{
		Name:       "Stolen",
		Ratio:      domain.RatioWidescreen16x9,
		Selections: []Selection{{DeckID: "theirs", SlideIndex: 0}},
	})
	assert.Error(t, err)
}

func TestStylePreview(t *testing.T) {
	e := newBuildEnv(t)
	ctx := context.Background()

	red := pngFill(t, color.RGBA{R: 255, A: 255})
	seedDeck(t, e.db, "src", "Source", e.sess.UserID)
	slideID, err := e.db.InsertSlide(ctx, &domain.Slide{
		DeckID:    "src",
		Index:     0,
		Thumbnail: red,
		Text:      "intro",
	})
	require.NoError(t, err)

	seedDeck(t, e.db, "style", "Style", e.sess.UserID)
	e.drive.content["style"] = []byte("style deck")

	// The assembled preview comes back through the renderer.
	preview := pngFill(t, color.RGBA{B: 255, A: 255})
	e.renderer.setRendered([]byte("assembled:preview:1"), &render.Rendered{
		Thumbnails: [][]byte{preview},
		Texts:      []string{"intro"},
		Ratio:      domain.RatioWidescreen16x9,
	})

	got, err := e.build.StylePreview(ctx, e.sess, slideID, "style")
	require.NoError(t, err)
	assert.Equal(t, preview, got)
}

func TestGetBuilt_PathEscape(t *testing.T) {
	e := newBuildEnv(t)

	_, err := e.build.GetBuilt(context.Background(), e.sess, "../../etc/passwd")
	assert.Error(t, err)
}
