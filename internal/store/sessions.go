// Package store provides the key-value session store and shared storage
// error types. Relational persistence lives in the sqlite subpackage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

const (
	sessionPrefix       = "session:"
	sessionByUserPrefix = "idx:sessions:user:"
)

// Sessions is a Badger-backed session store. Entries carry a TTL matching
// the session lifetime, so the database reclaims expired sessions on its
// own; reads still check expiry explicitly since TTL eviction is lazy.
type Sessions struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenSessions opens the session database at the given path.
func OpenSessions(path string, logger *slog.Logger) (*Sessions, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("session database opened", "path", path)
	}

	return &Sessions{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Sessions) Close() error {
	if s.logger != nil {
		s.logger.Info("closing session database")
	}
	return s.db.Close()
}

// Create stores a new session keyed by its token.
func (s *Sessions) Create(_ context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := []byte(sessionPrefix + session.Token)
	userIndexKey := []byte(sessionByUserPrefix + session.UserID + ":" + session.Token)
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userIndexKey, []byte{}).WithTTL(ttl))
	})
}

// Get retrieves a session by token. Expired sessions are reported as
// ErrSessionExpired even when Badger has not evicted them yet.
func (s *Sessions) Get(_ context.Context, token string) (*domain.Session, error) {
	key := []byte(sessionPrefix + token)

	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Delete removes a session (logout). Deleting an absent session is not an
// error.
func (s *Sessions) Delete(_ context.Context, token string) error {
	key := []byte(sessionPrefix + token)

	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get session for deletion: %w", err)
	}

	userIndexKey := []byte(sessionByUserPrefix + session.UserID + ":" + token)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(userIndexKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// ListForUser returns all live sessions for a user.
func (s *Sessions) ListForUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	prefix := []byte(sessionByUserPrefix + userID + ":")
	var sessions []*domain.Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			token := key[strings.LastIndex(key, ":")+1:]

			session, err := s.Get(ctx, token)
			if err != nil {
				if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionNotFound) {
					continue
				}
				return err
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	return sessions, nil
}

// DeleteAllForUser removes every session for a user.
func (s *Sessions) DeleteAllForUser(ctx context.Context, userID string) error {
	sessions, err := s.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions for deletion: %w", err)
	}
	for _, session := range sessions {
		if err := s.Delete(ctx, session.Token); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	return nil
}
