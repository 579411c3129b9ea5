package repositories

import (
	"sharecircle/domain"
	"sharecircle/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	// When a user is created
	created, err := repository.CreateUser("alice", "alice@example.com", "hash")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(domain.DefaultAvatar, created.Avatar)

	// Then it can be read by email and by id
	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(created, byEmail)

	byID, err := repository.GetUserByID(created.ID)
	req.NoError(err)
	req.Equal(created, byID)
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))
	_, err := repository.CreateUser("alice", "alice@example.com", "hash")
	req.NoError(err)

	// When the email is reused
	_, err = repository.CreateUser("alice2", "alice@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// When the username is reused
	_, err = repository.CreateUser("alice", "other@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Len(users, 1)
}

func TestUserRepository_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	_, err := repository.GetUserByEmail("ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetUserByID("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.UpdateAvatar("ghost", "/uploads/avatars/x.png")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))
	created, err := repository.CreateUser("bob", "bob@example.com", "hash")
	req.NoError(err)

	updated, err := repository.UpdateAvatar(created.ID, "/uploads/avatars/1_bob.png")
	req.NoError(err)
	req.Equal("/uploads/avatars/1_bob.png", updated.Avatar)

	fetched, err := repository.GetUserByEmail("bob@example.com")
	req.NoError(err)
	req.Equal(updated.Avatar, fetched.Avatar)
	req.False(fetched.UpdatedAt.Before(created.UpdatedAt))
}

func TestUserRepository_ListUsers(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))
	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := repository.CreateUser(name, name+"@example.com", "hash")
		req.NoError(err)
	}

	users, err := repository.ListUsers()

	req.NoError(err)
	req.Len(users, 3)
	req.Equal("alice@example.com", users[0].Email)
	req.Equal("carol@example.com", users[2].Email)
}
