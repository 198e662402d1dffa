package domain

// Folder mirrors a remote drive folder for one user.
// Mark controls whether decks under this folder are visible to sync.
// Marks cascade: a marked folder implicitly includes all descendant decks.
type Folder struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Parent  *string `json:"parent,omitempty"` // nil = drive root
	Mark    bool    `json:"mark"`
	OwnerID string  `json:"owner_id"`
}
