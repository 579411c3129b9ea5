//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"sharecircle/domain"
	"sharecircle/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	userPrefix          = "user:"
	userIDIndexPrefix   = "idx:user:id:"
	userNameIndexPrefix = "idx:user:name:"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	ListUsers() ([]domain.User, error)
	UpdateAvatar(id, avatar string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// userRecord is the stored representation of a user.
type userRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Avatar       string `json:"avatar"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// CreateUser persists a new user keyed by email.
// Both the email and the username must be unused.
func (u UserRepository) CreateUser(username, email, hashedPassword string) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Avatar:       domain.DefaultAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		nameKey := []byte(userNameIndexPrefix + username)
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set([]byte(userIDIndexPrefix+user.ID), []byte(email)); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(email))
	})
	if err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user from Badger.
func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, email)
		return err
	})
	if err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

// GetUserByID resolves the id index then loads the user.
func (u UserRepository) GetUserByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		email, err := emailOf(txn, id)
		if err != nil {
			return err
		}
		user, err = getUser(txn, email)
		return err
	})
	if err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

// ListUsers returns every user ordered by email.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record userRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			users = append(users, toUser(record))
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

// UpdateAvatar sets the avatar path of a user and returns the updated user.
func (u UserRepository) UpdateAvatar(id, avatar string) (domain.User, error) {
	var user domain.User
	err := u.db.Update(func(txn *badger.Txn) error {
		email, err := emailOf(txn, id)
		if err != nil {
			return err
		}
		user, err = getUser(txn, email)
		if err != nil {
			return err
		}
		user.Avatar = avatar
		user.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(fromUser(user))
		if err != nil {
			return err
		}
		return txn.Set([]byte(userPrefix+email), data)
	})
	if err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

func getUser(txn *badger.Txn, email string) (domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + email))
	if err != nil {
		return domain.User{}, err
	}
	var record userRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return domain.User{}, err
	}
	return toUser(record), nil
}

func emailOf(txn *badger.Txn, id string) (string, error) {
	item, err := txn.Get([]byte(userIDIndexPrefix + id))
	if err != nil {
		return "", err
	}
	email, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(email), nil
}

// storeError maps badger failures onto the service error taxonomy.
func storeError(err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrUserNotFound
	case errors.Is(err, errors.ErrUserAlreadyExists):
		return err
	default:
		return fmt.Errorf("%w: %w", errors.ErrStoreUnavailable, err)
	}
}

func fromUser(user domain.User) userRecord {
	return userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Avatar:       user.Avatar,
		CreatedAt:    user.CreatedAt.UnixNano(),
		UpdatedAt:    user.UpdatedAt.UnixNano(),
	}
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:           record.ID,
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		Avatar:       record.Avatar,
		CreatedAt:    time.Unix(0, record.CreatedAt).UTC(),
		UpdatedAt:    time.Unix(0, record.UpdatedAt).UTC(),
	}
}
