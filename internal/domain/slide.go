package domain

import "fmt"

// Ratio classifies a slide's aspect ratio. The renderer only supports the two
// standard PowerPoint sizes; anything else is rejected at render time.
type Ratio string

const (
	RatioWidescreen16x9 Ratio = "WIDESCREEN_16_TO_9"
	RatioStandard4x3    Ratio = "STANDARD_4_TO_3"
)

// ParseRatio converts the wire form ("widescreen_16_to_9", "standard_4_to_3")
// to a Ratio.
func ParseRatio(s string) (Ratio, error) {
	switch s {
	case "widescreen_16_to_9":
		return RatioWidescreen16x9, nil
	case "standard_4_to_3":
		return RatioStandard4x3, nil
	default:
		return "", fmt.Errorf("unknown slide ratio %q", s)
	}
}

// Wire returns the lowercase wire form used by the API.
func (r Ratio) Wire() string {
	switch r {
	case RatioWidescreen16x9:
		return "widescreen_16_to_9"
	case RatioStandard4x3:
		return "standard_4_to_3"
	default:
		return ""
	}
}

// Slide is one slide of a synced deck. Identity is a locally assigned
// surrogate ID — the remote store has no durable per-slide identity, which is
// why reconciliation matches thumbnails instead of IDs. Within a deck, Index
// values are unique and densely assigned 0..n-1.
type Slide struct {
	ID        int64  `json:"id"`
	DeckID    string `json:"deck_id"`
	Index     int    `json:"index"`
	Thumbnail []byte `json:"-"`
	Text      string `json:"text"`
	Ratio     *Ratio `json:"ratio,omitempty"` // nil until classified
	BlurHash  string `json:"blur_hash,omitempty"`
}

// Label is the human-readable reference shown in filter results,
// e.g. "Quarterly Review 3" for the third slide.
func (s *Slide) Label(deckName string) string {
	return fmt.Sprintf("%s %d", deckName, s.Index+1)
}
