// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/metrics"
	"github.com/danhux/craftwarden/internal/models"
)

// apiKeyPrefix marks craftwarden API keys so secret scanners and
// operators can recognize them.
const apiKeyPrefix = "cw_"

// BadgerDB key prefixes for API key records and indexes.
const (
	apiKeyRecordPrefix = "apikey:"
	apiKeyHashPrefix   = "apikey_hash:"
	apiKeyUserPrefix   = "apikey_user:"
)

// API key errors.
var (
	ErrAPIKeyNotFound = errors.New("api key not found")
	ErrAPIKeyInvalid  = errors.New("invalid api key")
	ErrAPIKeyDisabled = errors.New("api key disabled")
)

// APIKeyStore defines API key persistence.
type APIKeyStore interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByID(ctx context.Context, id string) (*models.APIKey, error)
	GetByHash(ctx context.Context, hash string) (*models.APIKey, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.APIKey, error)
	Update(ctx context.Context, key *models.APIKey) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.APIKey, error)
}

// HashAPIKey returns the hex SHA-256 digest of a plaintext key. Keys
// carry 256 bits of random entropy, so a fast hash with an exact-match
// index is safe here; bcrypt is reserved for low-entropy passwords.
func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// APIKeyManager generates, validates, and revokes API keys.
type APIKeyManager struct {
	store APIKeyStore
	users UserStore
	audit *logging.AuditLogger
}

// NewAPIKeyManager creates an API key manager.
func NewAPIKeyManager(store APIKeyStore, users UserStore, audit *logging.AuditLogger) *APIKeyManager {
	if audit == nil {
		audit = logging.NewAuditLogger()
	}
	return &APIKeyManager{store: store, users: users, audit: audit}
}

// Generate creates a new API key owned by the given user and returns
// the record together with the plaintext key. The plaintext is not
// stored and cannot be recovered later.
func (m *APIKeyManager) Generate(ctx context.Context, userID, username, name string) (*models.APIKey, string, error) {
	secret := make([]byte, models.APIKeyLength)
	if _, err := rand.Read(secret); err != nil {
		metrics.RecordAPIKeyOperation("create", false)
		return nil, "", fmt.Errorf("failed to generate key secret: %w", err)
	}

	plaintext := apiKeyPrefix + base64.RawURLEncoding.EncodeToString(secret)
	key := models.NewAPIKey(name, HashAPIKey(plaintext), models.KeyPreview(plaintext), userID)

	if err := m.store.Create(ctx, key); err != nil {
		metrics.RecordAPIKeyOperation("create", false)
		return nil, "", fmt.Errorf("failed to store api key: %w", err)
	}

	metrics.RecordAPIKeyOperation("create", true)
	m.audit.LogAPIKeyEvent("created", username, name)
	return key, plaintext, nil
}

// Validate checks a plaintext key and returns the key record and its
// owning user. Disabled keys and keys of inactive users are rejected.
// LastUsed is updated on success.
func (m *APIKeyManager) Validate(ctx context.Context, plaintext string) (*models.APIKey, *models.User, error) {
	if !strings.HasPrefix(plaintext, apiKeyPrefix) {
		metrics.RecordAPIKeyValidation("malformed")
		return nil, nil, ErrAPIKeyInvalid
	}

	key, err := m.store.GetByHash(ctx, HashAPIKey(plaintext))
	if err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			metrics.RecordAPIKeyValidation("unknown")
			return nil, nil, ErrAPIKeyInvalid
		}
		metrics.RecordAPIKeyValidation("error")
		return nil, nil, fmt.Errorf("api key lookup: %w", err)
	}

	if !key.Enabled {
		metrics.RecordAPIKeyValidation("disabled")
		return nil, nil, ErrAPIKeyDisabled
	}

	user, err := m.users.GetByID(ctx, key.UserID)
	if err != nil {
		metrics.RecordAPIKeyValidation("orphaned")
		return nil, nil, ErrAPIKeyInvalid
	}
	if !user.Active {
		metrics.RecordAPIKeyValidation("owner_disabled")
		return nil, nil, ErrAPIKeyDisabled
	}

	now := time.Now().UTC()
	key.LastUsed = &now
	if err := m.store.Update(ctx, key); err != nil {
		// Validation already succeeded; a failed LastUsed update is not
		// worth rejecting the request over.
		logging.Warn().Err(err).Str("key_id", key.ID).Msg("Failed to update api key last-used time")
	}

	metrics.RecordAPIKeyValidation("success")
	return key, user, nil
}

// Revoke disables a key without deleting it, preserving the record for
// audit purposes.
func (m *APIKeyManager) Revoke(ctx context.Context, id, actor string) error {
	key, err := m.store.GetByID(ctx, id)
	if err != nil {
		metrics.RecordAPIKeyOperation("revoke", false)
		return err
	}

	key.Enabled = false
	if err := m.store.Update(ctx, key); err != nil {
		metrics.RecordAPIKeyOperation("revoke", false)
		return fmt.Errorf("revoke api key: %w", err)
	}

	metrics.RecordAPIKeyOperation("revoke", true)
	m.audit.LogAPIKeyEvent("revoked", actor, key.Name)
	return nil
}

// Enable reactivates a revoked key.
func (m *APIKeyManager) Enable(ctx context.Context, id, actor string) error {
	key, err := m.store.GetByID(ctx, id)
	if err != nil {
		metrics.RecordAPIKeyOperation("enable", false)
		return err
	}

	key.Enabled = true
	if err := m.store.Update(ctx, key); err != nil {
		metrics.RecordAPIKeyOperation("enable", false)
		return fmt.Errorf("enable api key: %w", err)
	}

	metrics.RecordAPIKeyOperation("enable", true)
	m.audit.LogAPIKeyEvent("enabled", actor, key.Name)
	return nil
}

// Delete permanently removes a key.
func (m *APIKeyManager) Delete(ctx context.Context, id, actor string) error {
	key, err := m.store.GetByID(ctx, id)
	if err != nil {
		metrics.RecordAPIKeyOperation("delete", false)
		return err
	}

	if err := m.store.Delete(ctx, id); err != nil {
		metrics.RecordAPIKeyOperation("delete", false)
		return fmt.Errorf("delete api key: %w", err)
	}

	metrics.RecordAPIKeyOperation("delete", true)
	m.audit.LogAPIKeyEvent("deleted", actor, key.Name)
	return nil
}

// List returns all keys across users.
func (m *APIKeyManager) List(ctx context.Context) ([]*models.APIKey, error) {
	return m.store.List(ctx)
}

// ListByUser returns all keys owned by a user.
func (m *APIKeyManager) ListByUser(ctx context.Context, userID string) ([]*models.APIKey, error) {
	return m.store.GetByUserID(ctx, userID)
}

// BadgerAPIKeyStore persists API keys in BadgerDB. Records are stored
// under apikey:<id> with apikey_hash:<hash> and apikey_user:<uid>:<id>
// indexes for validation and per-user listing.
type BadgerAPIKeyStore struct {
	db *badger.DB
}

// NewBadgerAPIKeyStore creates an API key store on an open BadgerDB.
func NewBadgerAPIKeyStore(db *badger.DB) *BadgerAPIKeyStore {
	return &BadgerAPIKeyStore{db: db}
}

// Create stores a key record and its indexes.
func (s *BadgerAPIKeyStore) Create(ctx context.Context, key *models.APIKey) error {
	defer observeStoreOp("apikey_create", time.Now())

	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal api key: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(apiKeyRecordPrefix+key.ID), data); err != nil {
			return fmt.Errorf("set api key: %w", err)
		}
		if err := txn.Set([]byte(apiKeyHashPrefix+key.KeyHash), []byte(key.ID)); err != nil {
			return fmt.Errorf("set hash index: %w", err)
		}
		if err := txn.Set([]byte(apiKeyUserPrefix+key.UserID+":"+key.ID), []byte(key.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a key by ID.
func (s *BadgerAPIKeyStore) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	defer observeStoreOp("apikey_get", time.Now())

	var key models.APIKey
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(apiKeyRecordPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get api key: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &key)
		})
	})
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetByHash retrieves a key through the hash index.
func (s *BadgerAPIKeyStore) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	defer observeStoreOp("apikey_get_by_hash", time.Now())

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(apiKeyHashPrefix + hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get hash index: %w", err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// GetByUserID returns all keys owned by a user, newest first.
func (s *BadgerAPIKeyStore) GetByUserID(ctx context.Context, userID string) ([]*models.APIKey, error) {
	defer observeStoreOp("apikey_list_user", time.Now())

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(apiKeyUserPrefix + userID + ":")
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
		return nil, fmt.Errorf("list user api keys: %w", err)
	}

	keys := make([]*models.APIKey, 0, len(ids))
	for _, id := range ids {
		key, err := s.GetByID(ctx, id)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}

	sortKeysByCreation(keys)
	return keys, nil
}

// Update overwrites a key record. The hash index is assumed immutable;
// only Enabled and LastUsed change after creation.
func (s *BadgerAPIKeyStore) Update(ctx context.Context, key *models.APIKey) error {
	defer observeStoreOp("apikey_update", time.Now())

	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal api key: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		recordKey := []byte(apiKeyRecordPrefix + key.ID)
		if _, err := txn.Get(recordKey); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAPIKeyNotFound
		} else if err != nil {
			return fmt.Errorf("get api key: %w", err)
		}
		return txn.Set(recordKey, data)
	})
}

// Delete removes a key record and its indexes.
func (s *BadgerAPIKeyStore) Delete(ctx context.Context, id string) error {
	defer observeStoreOp("apikey_delete", time.Now())

	key, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(apiKeyRecordPrefix + id)); err != nil {
			return fmt.Errorf("delete api key: %w", err)
		}
		if err := txn.Delete([]byte(apiKeyHashPrefix + key.KeyHash)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete hash index: %w", err)
		}
		if err := txn.Delete([]byte(apiKeyUserPrefix + key.UserID + ":" + id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete user index: %w", err)
		}
		return nil
	})
}

// List returns all keys, newest first.
func (s *BadgerAPIKeyStore) List(ctx context.Context) ([]*models.APIKey, error) {
	defer observeStoreOp("apikey_list", time.Now())

	var keys []*models.APIKey
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(apiKeyRecordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var key models.APIKey
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &key)
			})
			if err != nil {
				continue
			}
			keys = append(keys, &key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	sortKeysByCreation(keys)
	return keys, nil
}

func sortKeysByCreation(keys []*models.APIKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
}
