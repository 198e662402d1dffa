package domain

import "time"

// Deck mirrors a remote slide-deck file. The ID is the remote store's opaque
// file ID, stable across renames and moves. ModifiedTime is the remote
// modification timestamp and drives delta classification: a deck is only
// re-synced when the remote timestamp advances past the stored one.
type Deck struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OwnerID      string    `json:"owner_id"`
	ModifiedTime time.Time `json:"modified_time"`
}

// DeckSummary is the listing-level view of a deck, either from the remote
// drive or from local storage. ParentIDs is only populated on remote listings.
type DeckSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ModifiedTime time.Time `json:"modified_time"`
	ParentIDs    []string  `json:"parent_ids,omitempty"`
}
