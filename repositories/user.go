//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
)

type IUserRepository interface {
	CreateUser(user domain.User, passwordHash string) error
	GetUserByEmail(email string) (domain.User, string, error)
	GetUserByID(id string) (domain.User, error)
	ListUsers() ([]domain.User, error)
	UpdateUser(id string, patch domain.UserPatch) (domain.User, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

// DiskUser is the stored representation of an account. It is the only place
// the password hash exists; mappings back to domain.User always strip it.
type DiskUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name"`
	Status       string `json:"status"`
	Bio          string `json:"bio"`
	AvatarRef    string `json:"avatar_ref"`
	CreatedAt    int64  `json:"created_at"`
}

func userKey(id string) []byte     { return []byte("user:" + id) }
func emailKey(email string) []byte { return []byte("user_email:" + email) }

// CreateUser persists the account and its email index entry in a single
// transaction. The uniqueness check and both writes commit atomically, so
// two racing registrations for one email cannot both succeed.
func (r UserRepository) CreateUser(user domain.User, passwordHash string) error {
	data, err := json.Marshal(fromUser(user, passwordHash))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(user.Email)); err == nil {
			return apperrors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil && err != apperrors.ErrUserAlreadyExists {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return err
}

// GetUserByEmail resolves the email index and returns the user alongside
// its stored password hash, for credential checks only.
func (r UserRepository) GetUserByEmail(email string) (domain.User, string, error) {
	var du DiskUser
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get(userKey(string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, "", apperrors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, "", err
	}
	return toUser(du), du.PasswordHash, nil
}

func (r UserRepository) GetUserByID(id string) (domain.User, error) {
	var du DiskUser
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

// ListUsers scans the user collection. A record that fails to decode is
// skipped and logged so one corrupt value never blocks the whole listing.
func (r UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var du DiskUser
				if err := json.Unmarshal(val, &du); err != nil {
					r.log.Warn("Skipping corrupt user record", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				users = append(users, toUser(du))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// UpdateUser merges the patch over the stored user and rewrites it in the
// same transaction as the read, so concurrent patches never lose fields.
func (r UserRepository) UpdateUser(id string, patch domain.UserPatch) (domain.User, error) {
	var updated domain.User
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		var du DiskUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		}); err != nil {
			return err
		}
		updated = toUser(du).Apply(patch)
		data, err := json.Marshal(fromUser(updated, du.PasswordHash))
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return updated, nil
}

func fromUser(u domain.User, passwordHash string) DiskUser {
	return DiskUser{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: passwordHash,
		FullName:     u.FullName,
		Status:       u.Status,
		Bio:          u.Bio,
		AvatarRef:    u.AvatarRef,
		CreatedAt:    u.CreatedAt.UnixNano(),
	}
}

func toUser(du DiskUser) domain.User {
	return domain.User{
		ID:        du.ID,
		Email:     du.Email,
		FullName:  du.FullName,
		Status:    du.Status,
		Bio:       du.Bio,
		AvatarRef: du.AvatarRef,
		CreatedAt: time.Unix(0, du.CreatedAt).UTC(),
	}
}
