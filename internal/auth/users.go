// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/danhux/craftwarden/internal/models"
)

// BadgerDB key prefixes for user records and the username index.
const (
	userKeyPrefix     = "user:"
	usernameKeyPrefix = "user_name:"
)

// bcryptCost balances hashing time against login latency. Cost 12
// takes roughly a quarter second on commodity hardware.
const bcryptCost = 12

// User store errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore defines account persistence. The Badger implementation is
// used in production; tests may substitute fakes.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}

// HashPassword hashes a plaintext password with bcrypt. Length limits
// are enforced here so every caller gets the same policy.
func HashPassword(password string) (string, error) {
	if len(password) < models.PasswordMinLength {
		return "", fmt.Errorf("password must be at least %d characters", models.PasswordMinLength)
	}
	// bcrypt silently truncates past 72 bytes; reject instead.
	if len(password) > 72 {
		return "", fmt.Errorf("password must be at most 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// bcrypt comparison is constant-time by construction.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BadgerUserStore persists users in BadgerDB. Records are stored under
// user:<id> with a user_name:<username> index for login lookups.
// Usernames are immutable; role, active flag, and password hash change
// through Update.
type BadgerUserStore struct {
	db *badger.DB
}

// NewBadgerUserStore creates a user store on an open BadgerDB.
func NewBadgerUserStore(db *badger.DB) *BadgerUserStore {
	return &BadgerUserStore{db: db}
}

// Create stores a new user. Fails with ErrUsernameTaken if the username
// index already holds an entry.
func (s *BadgerUserStore) Create(ctx context.Context, user *models.User) error {
	defer observeStoreOp("user_create", time.Now())

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(usernameKeyPrefix + user.Username)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		if err := txn.Set([]byte(userKeyPrefix+user.ID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(nameKey, []byte(user.ID)); err != nil {
			return fmt.Errorf("set username index: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a user by ID.
func (s *BadgerUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observeStoreOp("user_get", time.Now())

	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user through the username index.
func (s *BadgerUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observeStoreOp("user_get_by_name", time.Now())

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernameKeyPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get username index: %w", err)
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

// Update overwrites an existing user record. The username index is not
// touched; usernames do not change after creation.
func (s *BadgerUserStore) Update(ctx context.Context, user *models.User) error {
	defer observeStoreOp("user_update", time.Now())

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + user.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes a user and its username index entry.
func (s *BadgerUserStore) Delete(ctx context.Context, id string) error {
	defer observeStoreOp("user_delete", time.Now())

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(userKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err := txn.Delete([]byte(usernameKeyPrefix + user.Username)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete username index: %w", err)
		}
		return nil
	})
}

// List returns all users sorted by username.
func (s *BadgerUserStore) List(ctx context.Context) ([]*models.User, error) {
	defer observeStoreOp("user_list", time.Now())

	var users []*models.User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user models.User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			})
			if err != nil {
				continue
			}
			users = append(users, &user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// Count returns the number of user records.
func (s *BadgerUserStore) Count(ctx context.Context) (int, error) {
	defer observeStoreOp("user_count", time.Now())

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
