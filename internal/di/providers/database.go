package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/logger"
	"github.com/lisashushakova/PresentationConfigurator/internal/store"
	"github.com/lisashushakova/PresentationConfigurator/internal/store/sqlite"
)

// StoreHandle wraps the SQLite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// SessionsHandle wraps the badger session store with shutdown capability.
type SessionsHandle struct {
	*store.Sessions
}

// Shutdown implements do.Shutdownable.
func (h *SessionsHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessions provides the badger-backed session store.
func ProvideSessions(i do.Injector) (*SessionsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessions, err := store.OpenSessions(cfg.SessionStorePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Session store initialized", "path", cfg.SessionStorePath())

	return &SessionsHandle{Sessions: sessions}, nil
}
