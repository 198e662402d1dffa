package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
)

// TaggedValue is one resolved link for query evaluation: which entity, which
// tag, and the optional numeric value.
type TaggedValue struct {
	TagName string
	Value   *int64
}

// UpsertSlideLink attaches a tag to a slide, resolving the tag by name and
// creating it if needed. A second link for the same (slide, tag) pair
// replaces the stored value.
func (s *Store) UpsertSlideLink(ctx context.Context, ownerID string, slideID int64, tagName string, value *int64) (*domain.SlideLink, error) {
	tag, err := s.GetOrCreateTag(ctx, ownerID, tagName)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO slide_links (slide_id, tag_id, value) VALUES (?, ?, ?)
		ON CONFLICT(slide_id, tag_id) DO UPDATE SET value = excluded.value`,
		slideID, tag.ID, nullableInt64(value),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert slide link: %w", err)
	}

	link := &domain.SlideLink{SlideID: slideID, TagID: tag.ID, Value: value}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		link.ID = id
	}
	return link, nil
}

// UpsertDeckLink attaches a tag to a deck. Same semantics as UpsertSlideLink.
func (s *Store) UpsertDeckLink(ctx context.Context, ownerID, deckID, tagName string, value *int64) (*domain.DeckLink, error) {
	tag, err := s.GetOrCreateTag(ctx, ownerID, tagName)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO deck_links (deck_id, tag_id, value) VALUES (?, ?, ?)
		ON CONFLICT(deck_id, tag_id) DO UPDATE SET value = excluded.value`,
		deckID, tag.ID, nullableInt64(value),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert deck link: %w", err)
	}

	link := &domain.DeckLink{DeckID: deckID, TagID: tag.ID, Value: value}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		link.ID = id
	}
	return link, nil
}

// DeleteSlideLink removes one slide's link to a tag, collecting the tag if
// that was its last reference.
func (s *Store) DeleteSlideLink(ctx context.Context, ownerID string, slideID int64, tagName string) error {
	tag, err := s.getTag(ctx, ownerID, tagName)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete slide link: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM slide_links WHERE slide_id = ? AND tag_id = ?`, slideID, tag.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("link not found")
	}

	if err := collectOrphanTags(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDeckLink removes one deck's link to a tag, collecting the tag if
// that was its last reference.
func (s *Store) DeleteDeckLink(ctx context.Context, ownerID, deckID, tagName string) error {
	tag, err := s.getTag(ctx, ownerID, tagName)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete deck link: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM deck_links WHERE deck_id = ? AND tag_id = ?`, deckID, tag.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("link not found")
	}

	if err := collectOrphanTags(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SlideLinkValues returns, per slide of the given decks, the links whose tag
// names appear in tagNames. Slides with no such links are absent from the
// result.
func (s *Store) SlideLinkValues(ctx context.Context, ownerID string, tagNames []string) (map[int64][]TaggedValue, error) {
	if len(tagNames) == 0 {
		return map[int64][]TaggedValue{}, nil
	}

	query, args := inClause(`
		SELECT sl.slide_id, t.name, sl.value
		FROM slide_links sl
		JOIN tags t ON t.id = sl.tag_id
		WHERE t.owner_id = ? AND t.name IN `, ownerID, tagNames)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[int64][]TaggedValue)
	for rows.Next() {
		var (
			slideID int64
			name    string
			value   sql.NullInt64
		)
		if err := rows.Scan(&slideID, &name, &value); err != nil {
			return nil, err
		}
		tv := TaggedValue{TagName: name}
		if value.Valid {
			v := value.Int64
			tv.Value = &v
		}
		values[slideID] = append(values[slideID], tv)
	}
	return values, rows.Err()
}

// DeckLinkValues is the deck-level counterpart of SlideLinkValues.
func (s *Store) DeckLinkValues(ctx context.Context, ownerID string, tagNames []string) (map[string][]TaggedValue, error) {
	if len(tagNames) == 0 {
		return map[string][]TaggedValue{}, nil
	}

	query, args := inClause(`
		SELECT dl.deck_id, t.name, dl.value
		FROM deck_links dl
		JOIN tags t ON t.id = dl.tag_id
		WHERE t.owner_id = ? AND t.name IN `, ownerID, tagNames)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string][]TaggedValue)
	for rows.Next() {
		var (
			deckID string
			name   string
			value  sql.NullInt64
		)
		if err := rows.Scan(&deckID, &name, &value); err != nil {
			return nil, err
		}
		tv := TaggedValue{TagName: name}
		if value.Valid {
			v := value.Int64
			tv.Value = &v
		}
		values[deckID] = append(values[deckID], tv)
	}
	return values, rows.Err()
}

// LinksBySlide returns a slide's links as (tag name, value) pairs.
func (s *Store) LinksBySlide(ctx context.Context, slideID int64) ([]TaggedValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, sl.value
		FROM slide_links sl
		JOIN tags t ON t.id = sl.tag_id
		WHERE sl.slide_id = ? ORDER BY t.name ASC`, slideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []TaggedValue
	for rows.Next() {
		var (
			name  string
			value sql.NullInt64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		tv := TaggedValue{TagName: name}
		if value.Valid {
			v := value.Int64
			tv.Value = &v
		}
		links = append(links, tv)
	}
	return links, rows.Err()
}

// MigrateSlideLinks copies every link of one slide onto another. Used after a
// build uploads a new deck, so reused slides keep their tags.
func (s *Store) MigrateSlideLinks(ctx context.Context, fromSlideID, toSlideID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slide_links (slide_id, tag_id, value)
		SELECT ?, tag_id, value FROM slide_links WHERE slide_id = ?
		ON CONFLICT(slide_id, tag_id) DO UPDATE SET value = excluded.value`,
		toSlideID, fromSlideID,
	)
	if err != nil {
		return fmt.Errorf("migrate slide links: %w", err)
	}
	return nil
}

// inClause expands a query ending in "IN " with placeholders for names.
func inClause(prefix, ownerID string, names []string) (string, []any) {
	args := make([]any, 0, len(names)+1)
	args = append(args, ownerID)

	placeholders := "("
	for i, name := range names {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, name)
	}
	placeholders += ")"

	return prefix + placeholders, args
}
