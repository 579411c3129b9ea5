package services

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"sharecircle/auth"
	"sharecircle/domain"
	"sharecircle/errors"
	"sharecircle/mocks"
	"sharecircle/storage"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newUploadStore(t *testing.T) *storage.UploadStore {
	store, err := storage.NewUploadStore(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return store
}

func multipartFile(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}

var pngContent = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, auth.NewTokenIssuer("secret", time.Hour), newUploadStore(t), log)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		registration := auth.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"}

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser("alice", "alice@example.com", gomock.Not("secret123")).
			Return(domain.User{ID: "user-uuid", Username: "alice", Email: "alice@example.com"}, nil).
			Times(1)

		user, err := svc.Register(registration)

		req.NoError(err)
		req.Equal("user-uuid", user.ID)
	})

	t.Run("should report every failing field", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(auth.RegisterRequest{Email: "nope", Password: "123"})

		req.ErrorIs(err, errors.ErrInvalidRegistration)
		var registrationErr *RegistrationError
		req.ErrorAs(err, &registrationErr)
		req.Len(registrationErr.Fields, 3)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("bob", "bob@example.com", gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(auth.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret123"})

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, issuer, newUploadStore(t), log)

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	stored := domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com", PasswordHash: hash}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail("alice@example.com").Return(stored, nil)

		token, user, err := svc.Login("alice@example.com", "secret123")

		req.NoError(err)
		req.Equal("user-1", user.ID)
		claims, err := issuer.ValidateToken(token)
		req.NoError(err)
		req.Equal("user-1", claims.UserID)
	})

	t.Run("should fail with a wrong password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail("alice@example.com").Return(stored, nil)

		token, _, err := svc.Login("alice@example.com", "wrong-password")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
	})

	t.Run("should fail when the user is unknown", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByEmail("ghost@example.com").Return(domain.User{}, errors.ErrUserNotFound)

		_, _, err := svc.Login("ghost@example.com", "secret123")

		req.ErrorIs(err, errors.ErrUserNotFound)
	})
}

func TestAuthService_UpdateAvatar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, auth.NewTokenIssuer("secret", time.Hour), newUploadStore(t), log)

	t.Run("should store the avatar and update the user", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByID("user-1").Return(domain.User{ID: "user-1"}, nil)
		mockRepo.EXPECT().
			UpdateAvatar("user-1", gomock.Any()).
			DoAndReturn(func(id, avatar string) (domain.User, error) {
				return domain.User{ID: id, Avatar: avatar}, nil
			})

		avatar, err := svc.UpdateAvatar("user-1", multipartFile(t, "avatar", "me.png", pngContent))

		req.NoError(err)
		req.Contains(avatar, "/uploads/avatars/")
	})

	t.Run("should not write anything for an unknown user", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByID("ghost").Return(domain.User{}, errors.ErrUserNotFound)
		mockRepo.EXPECT().UpdateAvatar(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.UpdateAvatar("ghost", multipartFile(t, "avatar", "me.png", pngContent))

		req.ErrorIs(err, errors.ErrUserNotFound)
	})

	t.Run("should reject a missing file", func(t *testing.T) {
		_, err := svc.UpdateAvatar("user-1", nil)
		require.ErrorIs(t, err, errors.ErrNoFile)
	})

	t.Run("should reject a non image avatar", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetUserByID("user-1").Return(domain.User{ID: "user-1"}, nil)

		_, err := svc.UpdateAvatar("user-1", multipartFile(t, "avatar", "notes.txt", []byte("plain text content")))

		req.ErrorIs(err, errors.ErrUnsupportedMedia)
	})
}
