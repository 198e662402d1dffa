package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

func TestSlides_OrderedByIndex(t *testing.T) {
	s := testStore(t)

	slides := seedDeck(t, s, "u1", "d1", "a", "b", "c")
	for i, sl := range slides {
		if sl.Index != i {
			t.Errorf("slides[%d].Index = %d", i, sl.Index)
		}
		if sl.Text != "text "+string(sl.Thumbnail) {
			t.Errorf("slides[%d].Text = %q", i, sl.Text)
		}
	}
}

func TestSlides_Reindex(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a", "b")

	if err := s.ReindexSlide(ctx, slides[0].ID, 1); err != nil {
		t.Fatalf("ReindexSlide: %v", err)
	}
	if err := s.ReindexSlide(ctx, slides[1].ID, 0); err != nil {
		t.Fatalf("ReindexSlide: %v", err)
	}

	got, err := s.SlidesByDeck(ctx, "d1")
	if err != nil {
		t.Fatalf("SlidesByDeck: %v", err)
	}
	if string(got[0].Thumbnail) != "b" || string(got[1].Thumbnail) != "a" {
		t.Errorf("order after reindex = %q, %q", got[0].Thumbnail, got[1].Thumbnail)
	}
	// Identities survive the move.
	if got[0].ID != slides[1].ID || got[1].ID != slides[0].ID {
		t.Errorf("identities changed across reindex")
	}

	if err := s.ReindexSlide(ctx, 9999, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReindexSlide(missing) = %v, want ErrNotFound", err)
	}
}

func TestSlides_DeleteWithLinks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	slides := seedDeck(t, s, "u1", "d1", "a", "b")
	if _, err := s.UpsertSlideLink(ctx, "u1", slides[0].ID, "gone", nil); err != nil {
		t.Fatalf("UpsertSlideLink: %v", err)
	}

	if err := s.DeleteSlides(ctx, []int64{slides[0].ID}); err != nil {
		t.Fatalf("DeleteSlides: %v", err)
	}

	got, err := s.SlidesByDeck(ctx, "d1")
	if err != nil {
		t.Fatalf("SlidesByDeck: %v", err)
	}
	if len(got) != 1 || string(got[0].Thumbnail) != "b" {
		t.Errorf("slides after delete = %v", got)
	}

	tags, err := s.ListTags(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("orphan tag survives slide deletion: %v", tags)
	}
}

func TestSlides_ByDecks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedDeck(t, s, "u1", "d1", "a", "b")
	seedDeck(t, s, "u1", "d2", "c")
	seedDeck(t, s, "u1", "d3", "d")

	slides, err := s.SlidesByDecks(ctx, []string{"d1", "d3"})
	if err != nil {
		t.Fatalf("SlidesByDecks: %v", err)
	}
	if len(slides) != 3 {
		t.Fatalf("SlidesByDecks = %d slides, want 3", len(slides))
	}
	for _, sl := range slides {
		if sl.DeckID == "d2" {
			t.Errorf("unrequested deck in results: %+v", sl)
		}
	}

	none, err := s.SlidesByDecks(ctx, nil)
	if err != nil {
		t.Fatalf("SlidesByDecks(nil): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("SlidesByDecks(nil) = %v, want empty", none)
	}
}
