package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

func int64p(v int64) *int64 { return &v }

func TestLinks_UpsertReplacesValue(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a")

	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "rank", int64p(10)); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	// Linking the same pair again replaces the value, never duplicates.
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "rank", int64p(20)); err != nil {
		t.Fatalf("UpsertSlideLink again: %v", err)
	}

	links, err := s.LinksBySlide(ctx, slides[0].ID)
	if err != nil {
		t.Fatalf("LinksBySlide: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("LinksBySlide = %d links, want 1", len(links))
	}
	if links[0].TagName != "rank" || links[0].Value == nil || *links[0].Value != 20 {
		t.Errorf("LinksBySlide = %+v, want rank=20", links[0])
	}
}

func TestLinks_DeleteCollectsOrphanTag(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a", "b")

	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "solo", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "both", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[1].ID, "both", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}

	if err := s.DeleteSlideLink(ctx, "u1", slides[0].ID, "solo"); err != nil {
		t.Fatalf("DeleteSlideLink: %v", err)
	}
	if err := s.DeleteSlideLink(ctx, "u1", slides[0].ID, "both"); err != nil {
		t.Fatalf("DeleteSlideLink: %v", err)
	}

	// "solo" lost its last link and is gone, "both" is still referenced.
	tags, err := s.ListTags(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "both" {
		t.Errorf("ListTags = %v, want only [both]", tags)
	}
}

func TestLinks_DeleteMissing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a")
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "rank", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}

	// Unknown tag name.
	err := s.DeleteSlideLink(ctx, "u1", slides[0].ID, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteSlideLink(unknown tag) = %v, want ErrNotFound", err)
	}
}

func TestLinks_ValuesForQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a", "b", "c")

	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "tag1", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[1].ID, "tag2", int64p(150)); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[2].ID, "other", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}

	values, err := s.SlideLinkValues(ctx, "u1", []string{"tag1", "tag2"})
	if err != nil {
		t.Fatalf("SlideLinkValues: %v", err)
	}

	// Only slides linked to a mentioned tag are present.
	if len(values) != 2 {
		t.Fatalf("SlideLinkValues = %d slides, want 2", len(values))
	}
	if vs := values[slides[0].ID]; len(vs) != 1 || vs[0].TagName != "tag1" || vs[0].Value != nil {
		t.Errorf("slide 0 values = %+v", vs)
	}
	if vs := values[slides[1].ID]; len(vs) != 1 || vs[0].Value == nil || *vs[0].Value != 150 {
		t.Errorf("slide 1 values = %+v", vs)
	}
}

func TestLinks_Migrate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a", "b")

	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "keep", int64p(7)); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "also", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}

	if err := s.MigrateSlideLinks(ctx, slides[0].ID, slides[1].ID); err != nil {
		t.Fatalf("MigrateSlideLinks: %v", err)
	}

	links, err := s.LinksBySlide(ctx, slides[1].ID)
	if err != nil {
		t.Fatalf("LinksBySlide: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("migrated %d links, want 2", len(links))
	}
	// Ordered by tag name: also, keep.
	if links[0].TagName != "also" || links[1].TagName != "keep" {
		t.Errorf("links = %+v", links)
	}
	if links[1].Value == nil || *links[1].Value != 7 {
		t.Errorf("migrated value = %+v, want 7", links[1].Value)
	}

	// Source keeps its links too.
	src, err := s.LinksBySlide(ctx, slides[0].ID)
	if err != nil {
		t.Fatalf("LinksBySlide(src): %v", err)
	}
	if len(src) != 2 {
		t.Errorf("source lost links: %d", len(src))
	}
}

func TestTags_NamesByKind(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a")

	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "slidetag", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}
	if _, err := s.UpsertDeckLink(ctx, "u1", "d1", "decktag", nil); err != nil {
		t.Fatalf("UpsertDeckLink: %v", err)
	}

	slideNames, err := s.SlideTagNames(ctx, "u1")
	if err != nil {
		t.Fatalf("SlideTagNames: %v", err)
	}
	if len(slideNames) != 1 || slideNames[0] != "slidetag" {
		t.Errorf("SlideTagNames = %v", slideNames)
	}

	deckNames, err := s.DeckTagNames(ctx, "u1")
	if err != nil {
		t.Fatalf("DeckTagNames: %v", err)
	}
	if len(deckNames) != 1 || deckNames[0] != "decktag" {
		t.Errorf("DeckTagNames = %v", deckNames)
	}
}
