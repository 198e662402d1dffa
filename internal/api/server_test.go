package api

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

const testCookieName = "pres_conf_user_state"

// === Fakes ===

type fakeAuthenticator struct{}

func (fakeAuthenticator) AuthURL(state string) string {
	return "https://auth.example/consent?state=" + state
}

func (fakeAuthenticator) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code != "good" {
		return nil, fmt.Errorf("invalid grant")
	}
	return &oauth2.Token{AccessToken: "granted"}, nil
}

func (fakeAuthenticator) AccountInfo(_ context.Context, _ *oauth2.Token) (*remote.Account, error) {
	return &remote.Account{ID: "u1", Name: "Tester"}, nil
}

type fakeDrive struct {
	mu      sync.Mutex
	folders []domain.Folder
	decks   []domain.DeckSummary
	content map[string][]byte
	uploads []remote.Upload
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{content: make(map[string][]byte)}
}

func (d *fakeDrive) ListFolders(_ context.Context, _ *oauth2.Token) ([]domain.Folder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Folder(nil), d.folders...), nil
}

func (d *fakeDrive) ListDecks(_ context.Context, _ *oauth2.Token) ([]domain.DeckSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.DeckSummary(nil), d.decks...), nil
}

func (d *fakeDrive) Download(_ context.Context, _ *oauth2.Token, fileID string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.content[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
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
		ModifiedTime: time.Now().UTC(),
	}, nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	rendered map[string]*render.Rendered
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

func (f *fakeRenderer) Close() error { return nil }

// === Server setup ===

type testServer struct {
	*Server
	api      humatest.TestAPI
	db       *sqlite.Store
	drive    *fakeDrive
	renderer *fakeRenderer
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	db, err := sqlite.Open(t.TempDir()+"/test.db", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions, err := store.OpenSessions(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	cfg := &config.Config{
		App:  config.AppConfig{Environment: "development"},
		Data: config.DataConfig{BasePath: t.TempDir()},
		Server: config.ServerConfig{
			FrontendOrigin: "http://localhost:3000",
		},
		Auth: config.AuthConfig{
			SessionDuration: time.Hour,
			CookieName:      testCookieName,
		},
		Sync: config.SyncConfig{Workers: 2, MaxSlides: 100},
	}

	drive := newFakeDrive()
	renderer := newFakeRenderer()
	pool := render.NewPool(cfg.Sync.Workers, func(_ context.Context) (render.Session, error) {
		return renderer, nil
	}, logger)
	t.Cleanup(func() { pool.Close() })
	cmp := thumbs.NewComparator()

	authService := service.NewAuthService(db, sessions, fakeAuthenticator{}, cfg, logger)
	fileService := service.NewFileService(db, drive, logger)
	syncService := service.NewSyncService(db, drive, fileService, pool, cmp, cfg.Sync.Workers, cfg.Sync.MaxSlides, logger)
	tagService := service.NewTagService(db, logger)
	slideService := service.NewSlideService(db, tagService, logger)
	buildService := service.NewBuildService(db, drive, pool, syncService, cmp, cfg, logger)

	s := NewServer(db, &Services{
		Auth:  authService,
		Files: fileService,
		Sync:  syncService,
		Tag:   tagService,
		Slide: slideService,
		Build: buildService,
	}, cfg, logger)

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.api),
		db:       db,
		drive:    drive,
		renderer: renderer,
	}
}

// login runs the OAuth flow against the fake authenticator and returns the
// Cookie header for authenticated requests.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	_, state := ts.services.Auth.LoginURL(context.Background())
	sess, err := ts.services.Auth.HandleCallback(context.Background(), state, "good")
	require.NoError(t, err)
	return "Cookie: " + testCookieName + "=" + sess.Token
}

// seedDeck stores a deck with the given slide texts for the logged-in user.
func (ts *testServer) seedDeck(t *testing.T, deckID, name string, texts ...string) []int64 {
	t.Helper()
	ctx := context.Background()

	err := ts.db.CreateDeck(ctx, &domain.Deck{
		ID:           deckID,
		Name:         name,
		OwnerID:      "u1",
		ModifiedTime: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	ids := make([]int64, len(texts))
	for i, text := range texts {
		ids[i], err = ts.db.InsertSlide(ctx, &domain.Slide{
			DeckID:    deckID,
			Index:     i,
			Text:      text,
			Thumbnail: testPNG(t, i),
		})
		require.NoError(t, err)
	}
	return ids
}

// testPalette holds saturated colors far apart in Lab space, so thumbnails
// built from different entries compare as different slides.
var testPalette = []color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{R: 255, B: 255, A: 255},
	{G: 255, B: 255, A: 255},
}

// testPNG encodes a small solid PNG in the i-th palette color.
func testPNG(t *testing.T, i int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	c := testPalette[i%len(testPalette)]
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// === Tests ===

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "healthy")
}

func TestUnauthenticatedRequest(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tags")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestBogusCookieRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tags", "Cookie: "+testCookieName+"=forged")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
