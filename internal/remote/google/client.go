// Package google implements the remote drive against the Google Drive v3
// REST API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
)

const (
	driveFilesURL  = "https://www.googleapis.com/drive/v3/files"
	driveUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart&fields=id,name,modifiedTime,parents"
	userinfoURL    = "https://www.googleapis.com/oauth2/v2/userinfo"

	folderMime = "application/vnd.google-apps.folder"
	deckMime   = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	pageSize = 1000
)

// Client talks to Google Drive for one configured OAuth application.
type Client struct {
	oauth *oauth2.Config
}

var (
	_ remote.Drive         = (*Client)(nil)
	_ remote.Authenticator = (*Client)(nil)
)

// New builds a client from the drive section of the config.
func New(cfg *config.Config) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.Drive.ClientID,
			ClientSecret: cfg.Drive.ClientSecret,
			RedirectURL:  cfg.Drive.RedirectURL,
			Endpoint:     googleoauth.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/drive",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
	}
}

// AuthURL returns the consent URL bound to a state token. Offline access is
// requested so syncs keep working after the access token expires.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// AccountInfo resolves the authenticated user's identity.
func (c *Client) AccountInfo(ctx context.Context, creds *oauth2.Token) (*remote.Account, error) {
	var info struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := c.getJSON(ctx, creds, userinfoURL, &info); err != nil {
		return nil, fmt.Errorf("fetch account info: %w", err)
	}
	return &remote.Account{ID: info.ID, Name: info.Name, IconURL: info.Picture}, nil
}

type driveFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Parents      []string  `json:"parents"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

type fileList struct {
	Files         []driveFile `json:"files"`
	NextPageToken string      `json:"nextPageToken"`
}

// ListFolders returns the user's folder tree. Folders without a listed
// parent are treated as children of the drive root.
func (c *Client) ListFolders(ctx context.Context, creds *oauth2.Token) ([]domain.Folder, error) {
	files, err := c.listFiles(ctx, creds, fmt.Sprintf("mimeType = '%s' and trashed = false", folderMime))
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders := make([]domain.Folder, 0, len(files))
	for _, f := range files {
		folder := domain.Folder{ID: f.ID, Name: f.Name}
		if len(f.Parents) > 0 {
			parent := f.Parents[0]
			folder.Parent = &parent
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

// ListDecks returns every deck file with its parent folder IDs.
func (c *Client) ListDecks(ctx context.Context, creds *oauth2.Token) ([]domain.DeckSummary, error) {
	files, err := c.listFiles(ctx, creds, fmt.Sprintf("mimeType = '%s' and trashed = false", deckMime))
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}

	decks := make([]domain.DeckSummary, 0, len(files))
	for _, f := range files {
		decks = append(decks, domain.DeckSummary{
			ID:           f.ID,
			Name:         f.Name,
			ModifiedTime: f.ModifiedTime,
			ParentIDs:    f.Parents,
		})
	}
	return decks, nil
}

// Download fetches a deck file's raw bytes.
func (c *Client) Download(ctx context.Context, creds *oauth2.Token, fileID string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?alt=media", driveFilesURL, url.PathEscape(fileID))

	resp, err := c.do(ctx, creds, http.MethodGet, u, "", nil)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return data, nil
}

// Upload creates a new deck file via a multipart upload.
func (c *Client) Upload(ctx context.Context, creds *oauth2.Token, up remote.Upload) (*domain.DeckSummary, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	metaPart, err := w.CreatePart(map[string][]string{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	meta := map[string]string{"name": up.Name, "mimeType": deckMime}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, err
	}

	filePart, err := w.CreatePart(map[string][]string{
		"Content-Type": {deckMime},
	})
	if err != nil {
		return nil, err
	}
	if _, err := filePart.Write(up.Content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	contentType := "multipart/related; boundary=" + w.Boundary()
	resp, err := c.do(ctx, creds, http.MethodPost, driveUploadURL, contentType, &body)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", up.Name, err)
	}
	defer resp.Body.Close()

	var f driveFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &domain.DeckSummary{
		ID:           f.ID,
		Name:         f.Name,
		ModifiedTime: f.ModifiedTime,
		ParentIDs:    f.Parents,
	}, nil
}

// listFiles pages through a files.list query.
func (c *Client) listFiles(ctx context.Context, creds *oauth2.Token, query string) ([]driveFile, error) {
	var all []driveFile
	pageToken := ""

	for {
		params := url.Values{
			"q":        {query},
			"fields":   {"nextPageToken, files(id, name, parents, modifiedTime)"},
			"pageSize": {fmt.Sprint(pageSize)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page fileList
		if err := c.getJSON(ctx, creds, driveFilesURL+"?"+params.Encode(), &page); err != nil {
			return nil, err
		}
		all = append(all, page.Files...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) getJSON(ctx context.Context, creds *oauth2.Token, u string, dest any) error {
	resp, err := c.do(ctx, creds, http.MethodGet, u, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(dest)
}

// do performs an authenticated request. The oauth2 client refreshes the
// access token transparently when it has expired.
func (c *Client) do(ctx context.Context, creds *oauth2.Token, method, u, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.oauth.Client(ctx, creds).Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("drive API %s %s: status %d: %s", method, u, resp.StatusCode, msg)
	}
	return resp, nil
}
