package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

const deckColumns = `id, name, owner_id, modified_time`

func scanDeck(scanner interface{ Scan(dest ...any) error }) (*domain.Deck, error) {
	var (
		d        domain.Deck
		modified string
	)
	if err := scanner.Scan(&d.ID, &d.Name, &d.OwnerID, &modified); err != nil {
		return nil, err
	}
	var err error
	d.ModifiedTime, err = parseTime(modified)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDeck inserts a new deck record.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateDeck(ctx context.Context, d *domain.Deck) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (id, name, owner_id, modified_time)
		VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.OwnerID, formatTime(d.ModifiedTime),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetDeck retrieves a deck by ID.
// Returns store.ErrNotFound if the deck does not exist.
func (s *Store) GetDeck(ctx context.Context, deckID string) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = ?`, deckID)

	d, err := scanDeck(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDecks returns all decks stored for a user, ordered by name.
func (s *Store) ListDecks(ctx context.Context, ownerID string) ([]*domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// UpdateDeckMeta refreshes a deck's name and modification timestamp after a
// sync pass. Slides are untouched; the reconciler handles those separately.
func (s *Store) UpdateDeckMeta(ctx context.Context, deckID, name string, modifiedTime time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name = ?, modified_time = ? WHERE id = ?`,
		name, formatTime(modifiedTime), deckID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("deck not found")
	}
	return nil
}

// DeleteDeck removes a deck with everything hanging off it: slide links of
// its slides, the slides themselves, the deck's own links, and finally the
// deck row. Tags orphaned by the removed links are collected in the same
// transaction.
func (s *Store) DeleteDeck(ctx context.Context, deckID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete deck: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM slide_links
		WHERE slide_id IN (SELECT id FROM slides WHERE deck_id = ?)`, deckID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM slides WHERE deck_id = ?`, deckID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM deck_links WHERE deck_id = ?`, deckID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, deckID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("deck not found")
	}

	if err := collectOrphanTags(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// collectOrphanTags deletes tags no longer referenced by any link.
func collectOrphanTags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM tags WHERE
			id NOT IN (SELECT tag_id FROM slide_links)
			AND id NOT IN (SELECT tag_id FROM deck_links)`)
	return err
}
