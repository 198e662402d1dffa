// Package service holds the application services between the HTTP API and
// the stores/collaborators.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
	"github.com/lisashushakova/PresentationConfigurator/internal/errors"
	"github.com/lisashushakova/PresentationConfigurator/internal/id"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

// pendingStateTTL bounds how long a started login may wait for its
// callback.
const pendingStateTTL = 10 * time.Minute

// AuthService runs the OAuth login flow and owns sessions.
type AuthService struct {
	db       *sqlite.Store
	sessions *store.Sessions
	auth     remote.Authenticator
	cfg      *config.Config
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time // state token -> started at
}

// NewAuthService creates a new auth service.
func NewAuthService(db *sqlite.Store, sessions *store.Sessions, auth remote.Authenticator, cfg *config.Config, logger *slog.Logger) *AuthService {
	return &AuthService{
		db:       db,
		sessions: sessions,
		auth:     auth,
		cfg:      cfg,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
}

// LoginURL starts a login: it mints a state token and returns the provider
// consent URL bound to it. The state token doubles as the session token
// once the callback completes.
func (s *AuthService) LoginURL(_ context.Context) (url, state string) {
	state = id.MustGenerate("sess")

	s.mu.Lock()
	now := time.Now()
	for tok, started := range s.pending {
		if now.Sub(started) > pendingStateTTL {
			delete(s.pending, tok)
		}
	}
	s.pending[state] = now
	s.mu.Unlock()

	return s.auth.AuthURL(state), state
}

// HandleCallback finishes a login: verifies the state token, exchanges the
// code, resolves the account, mirrors the user, and opens a session.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (*domain.Session, error) {
	s.mu.Lock()
	started, ok := s.pending[state]
	delete(s.pending, state)
	s.mu.Unlock()

	if !ok || time.Since(started) > pendingStateTTL {
		return nil, errors.Unauthorized("unknown or expired login state")
	}

	creds, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnauthorized, "authorization code rejected")
	}
	account, err := s.auth.AccountInfo(ctx, creds)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to resolve account")
	}

	if err := s.db.UpsertUser(ctx, &domain.User{ID: account.ID, Name: account.Name}); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to store user")
	}

	now := time.Now()
	session := &domain.Session{
		Token:       state,
		UserID:      account.ID,
		UserName:    account.Name,
		IconURL:     account.IconURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.Auth.SessionDuration),
		Credentials: creds,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create session")
	}

	s.logger.Info("user logged in", "user_id", account.ID)
	return session, nil
}

// SessionFromToken resolves the cookie token to a live session.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, errors.Unauthorized("missing session token")
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil, errors.Unauthorized("session expired or unknown")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to load session")
	}
	return session, nil
}

// Logout drops the session. Unknown tokens log out successfully.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to delete session")
	}
	return nil
}
