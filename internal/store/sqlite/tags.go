package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

// GetOrCreateTag resolves a tag by (name, owner), creating it on first use.
func (s *Store) GetOrCreateTag(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	tag, err := s.getTag(ctx, ownerID, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, owner_id) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Tag{ID: id, Name: name, OwnerID: ownerID}, nil
}

func (s *Store) getTag(ctx context.Context, ownerID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id FROM tags WHERE name = ? AND owner_id = ?`,
		name, ownerID)

	var t domain.Tag
	err := row.Scan(&t.ID, &t.Name, &t.OwnerID)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns all of a user's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, ownerID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, owner_id FROM tags WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// DeckTagNames returns the names of tags linked to at least one of the
// user's decks.
func (s *Store) DeckTagNames(ctx context.Context, ownerID string) ([]string, error) {
	return s.tagNames(ctx, `
		SELECT DISTINCT t.name FROM tags t
		JOIN deck_links dl ON dl.tag_id = t.id
		WHERE t.owner_id = ? ORDER BY t.name ASC`, ownerID)
}

// SlideTagNames returns the names of tags linked to at least one of the
// user's slides.
func (s *Store) SlideTagNames(ctx context.Context, ownerID string) ([]string, error) {
	return s.tagNames(ctx, `
		SELECT DISTINCT t.name FROM tags t
		JOIN slide_links sl ON sl.tag_id = t.id
		WHERE t.owner_id = ? ORDER BY t.name ASC`, ownerID)
}

func (s *Store) tagNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
