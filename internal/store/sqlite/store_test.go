package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

// seedDeck creates a user and a deck with the given slides' thumbnails and
// returns the stored slides in index order.
func seedDeck(t *testing.T, s *Store, ownerID, deckID string, thumbs ...string) []*domain.Slide {
	t.Helper()
	ctx := context.Background()

	if err := s.UpsertUser(ctx, &domain.User{ID: ownerID, Name: "Test User"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	deck := &domain.Deck{
		ID:           deckID,
		Name:         "deck " + deckID,
		OwnerID:      ownerID,
		ModifiedTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.CreateDeck(ctx, deck); err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}

	slides := make([]domain.Slide, len(thumbs))
	for i, th := range thumbs {
		slides[i] = domain.Slide{
			DeckID:    deckID,
			Index:     i,
			Thumbnail: []byte(th),
			Text:      "text " + th,
		}
	}
	if err := s.BulkInsertSlides(ctx, slides); err != nil {
		t.Fatalf("BulkInsertSlides: %v", err)
	}

	stored, err := s.SlidesByDeck(ctx, deckID)
	if err != nil {
		t.Fatalf("SlidesByDeck: %v", err)
	}
	if len(stored) != len(thumbs) {
		t.Fatalf("seeded %d slides, stored %d", len(thumbs), len(stored))
	}
	return stored
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	logger := slog.New(slog.DiscardHandler)

	s, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seedDeck(t, s, "u1", "d1", "a")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Schema migration must be idempotent and data must survive reopen.
	s, err = Open(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	slides, err := s.SlidesByDeck(context.Background(), "d1")
	if err != nil {
		t.Fatalf("SlidesByDeck: %v", err)
	}
	if len(slides) != 1 || string(slides[0].Thumbnail) != "a" {
		t.Errorf("data lost across reopen: %v", slides)
	}
}
