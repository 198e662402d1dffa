package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testDB(t *testing.T) *sqlite.Store {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testSession seeds a user and returns a session for them.
func testSession(t *testing.T, db *sqlite.Store, userID string) *domain.Session {
	t.Helper()

	err := db.UpsertUser(context.Background(), &domain.User{ID: userID, Name: "Test User"})
	require.NoError(t, err)

	return &domain.Session{
		Token:       "sess-test-" + userID,
		UserID:      userID,
		UserName:    "Test User",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
		Credentials: &oauth2.Token{AccessToken: "test-access-token"},
	}
}

// pngFill encodes a 16x16 solid-color PNG. The comparator sees two equal
// colors as the same slide and two distant colors as different ones.
func pngFill(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// === Drive fake ===

type fakeDrive struct {
	mu          sync.Mutex
	folders     []domain.Folder
	decks       []domain.DeckSummary
	content     map[string][]byte
	downloadErr map[string]error
	uploads     []remote.Upload
	listDecks   int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		content:     make(map[string][]byte),
		downloadErr: make(map[string]error),
	}
}

func (d *fakeDrive) ListFolders(_ context.Context, _ *oauth2.Token) ([]domain.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Folder(nil), d.folders...), nil
}

func (d *fakeDrive) ListDecks(_ context.Context, _ *oauth2.Token) ([]domain.DeckSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listDecks++
	return append([]domain.DeckSummary(nil), d.decks...), nil
}

func (d *fakeDrive) Download(_ context.Context, _ *oauth2.Token, fileID string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.downloadErr[fileID]; err != nil {
		return nil, err
	}
	data, ok := d.content[fileID]
	if !ok {
		return nil, fmt.Errorf("no such file %q", fileID)
	}
	return data, nil
}

func (d *fakeDrive) Upload(_ context.Context, _ *oauth2.Token, up remote.Upload) (*domain.DeckSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploads = append(d.uploads, up)
	return &domain.DeckSummary{
		ID:           fmt.Sprintf("uploaded-%d", len(d.uploads)),
		Name:         up.Name,
		ModifiedTime: time.Now(),
	}, nil
}

// === Renderer fake ===

// fakeRenderer maps deck bytes to canned render results; Assemble returns a
// deterministic blob so uploads can be asserted on.
type fakeRenderer struct {
	mu       sync.Mutex
	rendered map[string]*render.Rendered
	closed   bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{rendered: make(map[string]*render.Rendered)}
}

func (f *fakeRenderer) setRendered(deck []byte, r *render.Rendered) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered[string(deck)] = r
}

func (f *fakeRenderer) Render(_ context.Context, deck []byte, maxSlides int) (*render.Rendered, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rendered[string(deck)]
	if !ok {
		return nil, fmt.Errorf("unrenderable deck")
	}
	out := &render.Rendered{
		Thumbnails: append([][]byte(nil), r.Thumbnails...),
		Texts:      append([]string(nil), r.Texts...),
		Ratio:      r.Ratio,
	}
	if len(out.Thumbnails) > maxSlides {
		out.Thumbnails = out.Thumbnails[:maxSlides]
		out.Texts = out.Texts[:maxSlides]
	}
	return out, nil
}

func (f *fakeRenderer) Assemble(_ context.Context, req render.AssembleRequest) ([]byte, error) {
	return []byte(fmt.Sprintf("assembled:%s:%d", req.Name, len(req.Slides))), nil
}

func (f *fakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testPool(renderer *fakeRenderer) *render.Pool {
	return render.NewPool(2, func(_ context.Context) (render.Session, error) {
		return renderer, nil
	}, testLogger())
}

func testComparator() *thumbs.Comparator {
	return thumbs.NewComparator()
}
