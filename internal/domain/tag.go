package domain

// Tag is a user-scoped label name. Uniqueness is (name, owner), not global.
// Tags are garbage collected: once no slide link and no deck link references a
// tag, the tag row is deleted.
type Tag struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// SlideLink attaches a tag to a slide with an optional integer value.
// A nil value means a boolean presence tag. At most one link exists per
// (slide, tag) pair; creating a second one updates the stored value.
type SlideLink struct {
	ID      int64  `json:"link_id"`
	SlideID int64  `json:"slide_id"`
	TagID   int64  `json:"tag_id"`
	Value   *int64 `json:"value,omitempty"`
}

// DeckLink attaches a tag to a deck. Same upsert semantics as SlideLink.
type DeckLink struct {
	ID     int64  `json:"link_id"`
	DeckID string `json:"deck_id"`
	TagID  int64  `json:"tag_id"`
	Value  *int64 `json:"value,omitempty"`
}
