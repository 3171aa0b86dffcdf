// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
)

// BadgerDB key prefixes for sessions.
const (
	sessionRecordPrefix = "session:"
	sessionUserPrefix   = "session_user:"
)

// BadgerSessionStore persists sessions in BadgerDB so logins survive a
// restart. Records live under session:<id> with a session_user:<uid>:<id>
// index for per-user revocation. Entries carry a BadgerDB TTL matching
// the session expiry, so the store reclaims them even if CleanupExpired
// never runs.
type BadgerSessionStore struct {
	db *badger.DB
}

// NewBadgerSessionStore creates a session store on an open BadgerDB.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// Create stores a session and its user index.
func (s *BadgerSessionStore) Create(ctx context.Context, session *Session) error {
	defer observeStoreOp("session_create", time.Now())

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionRecordPrefix+session.ID), data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		index := badger.NewEntry([]byte(sessionUserPrefix+session.UserID+":"+session.ID), []byte(session.ID)).WithTTL(ttl)
		if err := txn.SetEntry(index); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}
		return nil
	})
}

// Get retrieves a session. Expired sessions are deleted and reported
// as ErrSessionExpired.
func (s *BadgerSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	defer observeStoreOp("session_get", time.Now())

	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionRecordPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Update overwrites an existing session, preserving its TTL window.
func (s *BadgerSessionStore) Update(ctx context.Context, session *Session) error {
	defer observeStoreOp("session_update", time.Now())

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(sessionRecordPrefix + session.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		} else if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl))
	})
}

// Delete removes a session and its user index.
func (s *BadgerSessionStore) Delete(ctx context.Context, id string) error {
	defer observeStoreOp("session_delete", time.Now())

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionRecordPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			var session Session
			if err := json.Unmarshal(val, &session); err != nil {
				return err
			}
			userID = session.UserID
			return nil
		})
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionRecordPrefix + id)); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if err := txn.Delete([]byte(sessionUserPrefix + userID + ":" + id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete user index: %w", err)
		}
		return nil
	})
}

// DeleteByUserID removes all sessions for a user and returns the count.
func (s *BadgerSessionStore) DeleteByUserID(ctx context.Context, userID string) (int, error) {
	defer observeStoreOp("session_delete_user", time.Now())

	ids, err := s.sessionIDsForUser(userID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if err := s.Delete(ctx, id); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// GetByUserID returns all live sessions for a user.
func (s *BadgerSessionStore) GetByUserID(ctx context.Context, userID string) ([]*Session, error) {
	defer observeStoreOp("session_list_user", time.Now())

	ids, err := s.sessionIDsForUser(userID)
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Touch updates a session's last access time.
func (s *BadgerSessionStore) Touch(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.LastAccessedAt = time.Now().UTC()
	return s.Update(ctx, session)
}

// CleanupExpired scans for sessions past expiry and removes them. Most
// expired entries disappear through BadgerDB TTLs; this catches records
// whose clock-based expiry precedes the TTL eviction.
func (s *BadgerSessionStore) CleanupExpired(ctx context.Context) (int, error) {
	defer observeStoreOp("session_cleanup", time.Now())

	var expired []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionRecordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				continue
			}
			if session.IsExpired() {
				expired = append(expired, session.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	removed := 0
	for _, id := range expired {
		if err := s.Delete(ctx, id); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored sessions.
func (s *BadgerSessionStore) Count(ctx context.Context) (int, error) {
	defer observeStoreOp("session_count", time.Now())

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionRecordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (s *BadgerSessionStore) sessionIDsForUser(userID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionUserPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return ids, nil
}

// StartSessionCleanup launches a background loop that prunes expired
// sessions and refreshes the active-session gauge until ctx is done.
func StartSessionCleanup(ctx context.Context, store SessionStore, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.CleanupExpired(ctx)
				if err != nil {
					logging.Warn().Err(err).Msg("Session cleanup failed")
					continue
				}
				if removed > 0 {
					logging.Debug().Int("removed", removed).Msg("Pruned expired sessions")
				}
				if count, err := store.Count(ctx); err == nil {
					metrics.SetActiveSessions(int64(count))
				}
			}
		}
	}()
}
