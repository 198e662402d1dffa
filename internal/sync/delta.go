// Package sync reconciles the remote drive state with the local store: it
// classifies which decks changed and computes slide-level plans that keep
// stable slide identities across deck versions.
package sync

import (
	"log/slog"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

// DeckDelta partitions the remote deck listing against the local store.
type DeckDelta struct {
	Created   []domain.DeckSummary
	Updated   []domain.DeckSummary
	Removed   []domain.Deck
	Unchanged []domain.Deck
}

// Classifier computes deck deltas.
type Classifier struct {
	logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify compares the remote deck listing with the locally stored decks.
// A deck present on both sides is updated only when the remote modification
// time is strictly newer than the stored one; renames alone do not count as
// content changes. Decks only present remotely are created, decks only
// present locally are removed.
func (c *Classifier) Classify(remote []domain.DeckSummary, local []domain.Deck) *DeckDelta {
	delta := &DeckDelta{
		Created:   make([]domain.DeckSummary, 0),
		Updated:   make([]domain.DeckSummary, 0),
		Removed:   make([]domain.Deck, 0),
		Unchanged: make([]domain.Deck, 0),
	}

	localByID := make(map[string]*domain.Deck, len(local))
	for i := range local {
		localByID[local[i].ID] = &local[i]
	}

	seen := make(map[string]bool, len(remote))
	for _, rd := range remote {
		seen[rd.ID] = true

		ld, ok := localByID[rd.ID]
		if !ok {
			delta.Created = append(delta.Created, rd)
			continue
		}
		if rd.ModifiedTime.After(ld.ModifiedTime) {
			delta.Updated = append(delta.Updated, rd)
		} else {
			delta.Unchanged = append(delta.Unchanged, *ld)
		}
	}

	for i := range local {
		if !seen[local[i].ID] {
			delta.Removed = append(delta.Removed, local[i])
		}
	}

	c.logger.Info("deck delta computed",
		"created", len(delta.Created),
		"updated", len(delta.Updated),
		"removed", len(delta.Removed),
		"unchanged", len(delta.Unchanged),
	)

	return delta
}
