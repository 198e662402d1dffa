package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

const slideColumns = `id, deck_id, idx, thumbnail, text_content, ratio, blur_hash`

func scanSlide(scanner interface{ Scan(dest ...any) error }) (*domain.Slide, error) {
	var (
		sl    domain.Slide
		ratio sql.NullString
	)
	err := scanner.Scan(
		&sl.ID,
		&sl.DeckID,
		&sl.Index,
		&sl.Thumbnail,
		&sl.Text,
		&ratio,
		&sl.BlurHash,
	)
	if err != nil {
		return nil, err
	}
	if ratio.Valid {
		r := domain.Ratio(ratio.String)
		sl.Ratio = &r
	}
	return &sl, nil
}

// InsertSlide stores one slide and returns its assigned identity.
func (s *Store) InsertSlide(ctx context.Context, sl *domain.Slide) (int64, error) {
	var ratio sql.NullString
	if sl.Ratio != nil {
		ratio = sql.NullString{String: string(*sl.Ratio), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO slides (deck_id, idx, thumbnail, text_content, ratio, blur_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sl.DeckID, sl.Index, sl.Thumbnail, sl.Text, ratio, sl.BlurHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BulkInsertSlides stores a freshly rendered deck's slides in one
// transaction, assigning identities as it goes.
func (s *Store) BulkInsertSlides(ctx context.Context, slides []domain.Slide) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slides (deck_id, idx, thumbnail, text_content, ratio, blur_hash)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range slides {
		sl := &slides[i]
		var ratio sql.NullString
		if sl.Ratio != nil {
			ratio = sql.NullString{String: string(*sl.Ratio), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			sl.DeckID, sl.Index, sl.Thumbnail, sl.Text, ratio, sl.BlurHash); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSlide retrieves one slide by identity.
// Returns store.ErrNotFound if the slide does not exist.
func (s *Store) GetSlide(ctx context.Context, slideID int64) (*domain.Slide, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slideColumns+` FROM slides WHERE id = ?`, slideID)

	sl, err := scanSlide(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sl, nil
}

// SlidesByDeck returns a deck's slides in index order.
func (s *Store) SlidesByDeck(ctx context.Context, deckID string) ([]*domain.Slide, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slideColumns+` FROM slides WHERE deck_id = ? ORDER BY idx ASC`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []*domain.Slide
	for rows.Next() {
		sl, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}

// SlidesByDecks returns slides from the given decks, ordered by deck then
// identity. Filter results use this ordering, so it has to be stable.
func (s *Store) SlidesByDecks(ctx context.Context, deckIDs []string) ([]*domain.Slide, error) {
	if len(deckIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(deckIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(deckIDs))
	for i, id := range deckIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+slideColumns+` FROM slides
		WHERE deck_id IN (`+placeholders+`)
		ORDER BY deck_id ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slides []*domain.Slide
	for rows.Next() {
		sl, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}

// DeleteSlides removes slides and their links, collecting orphaned tags, all
// in one transaction.
func (s *Store) DeleteSlides(ctx context.Context, slideIDs []int64) error {
	if len(slideIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete slides: %w", err)
	}
	defer tx.Rollback()

	for _, id := range slideIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slide_links WHERE slide_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slides WHERE id = ?`, id); err != nil {
			return err
		}
	}

	if err := collectOrphanTags(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// ReindexSlide moves a slide to a new position within its deck. Identity and
// links are untouched.
func (s *Store) ReindexSlide(ctx context.Context, slideID int64, newIndex int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE slides SET idx = ? WHERE id = ?`, newIndex, slideID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("slide not found")
	}
	return nil
}
