// Package remote abstracts the cloud drive that deck files live in.
package remote

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

// Account is the drive owner's identity as reported by the provider.
type Account struct {
	ID      string
	Name    string
	IconURL string
}

// Upload is a deck file pushed back to the drive after a build.
type Upload struct {
	Name    string
	Content []byte
}

// Drive lists, downloads and uploads deck files on behalf of one user. All
// calls authenticate with the user's OAuth credentials.
type Drive interface {
	// ListFolders returns the user's full folder tree.
	ListFolders(ctx context.Context, creds *oauth2.Token) ([]domain.Folder, error)

	// ListDecks returns deck files, each with the IDs of its parent
	// folders so callers can restrict to marked subtrees.
	ListDecks(ctx context.Context, creds *oauth2.Token) ([]domain.DeckSummary, error)

	// Download fetches a deck file's bytes.
	Download(ctx context.Context, creds *oauth2.Token, fileID string) ([]byte, error)

	// Upload creates a new deck file and returns its summary.
	Upload(ctx context.Context, creds *oauth2.Token, up Upload) (*domain.DeckSummary, error)
}

// Authenticator runs the OAuth flow against the drive provider.
type Authenticator interface {
	// AuthURL returns the provider consent URL bound to a state token.
	AuthURL(state string) string

	// Exchange trades an authorization code for credentials.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// AccountInfo resolves the authenticated account's identity.
	AccountInfo(ctx context.Context, creds *oauth2.Token) (*Account, error)
}
