//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"sharecircle/auth"
	"sharecircle/domain"
	"sharecircle/errors"
	"sharecircle/repositories"
	"sharecircle/storage"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (domain.User, error)
	Login(email, password string) (string, domain.User, error)
	Users() ([]domain.User, error)
	UpdateAvatar(userID string, file *multipart.FileHeader) (string, error)
}

// Uploader stores a multipart file and returns its public path.
type Uploader interface {
	Save(rule storage.UploadRule, header *multipart.FileHeader) (string, error)
	Remove(publicPath string)
}

// RegistrationError carries the rules a registration failed on.
type RegistrationError struct {
	Fields []auth.FieldError
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s: %d field(s)", errors.ErrInvalidRegistration, len(e.Fields))
}

func (e *RegistrationError) Unwrap() error {
	return errors.ErrInvalidRegistration
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
	uploader       Uploader
	log            *slog.Logger
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer, uploader Uploader, log *slog.Logger) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer, uploader: uploader, log: log}
}

func (s *AuthService) Register(req auth.RegisterRequest) (domain.User, error) {
	// Rules are checked before any expensive cryptographic operation
	if fields := auth.ValidateRegister(req); len(fields) > 0 {
		return domain.User{}, &RegistrationError{Fields: fields}
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(req.Username, req.Email, hashedPassword)
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(email, password string) (string, domain.User, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		return "", domain.User{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Users lists every account. Callers must not expose PasswordHash.
func (s *AuthService) Users() ([]domain.User, error) {
	return s.userRepository.ListUsers()
}

// UpdateAvatar stores the picture and points the user at it.
// The file is only written once the user is known to exist.
func (s *AuthService) UpdateAvatar(userID string, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", errors.ErrNoFile
	}
	if _, err := s.userRepository.GetUserByID(userID); err != nil {
		return "", err
	}

	avatar, err := s.uploader.Save(storage.AvatarRule, file)
	if err != nil {
		return "", err
	}

	if _, err := s.userRepository.UpdateAvatar(userID, avatar); err != nil {
		s.uploader.Remove(avatar)
		return "", err
	}
	s.log.Debug("Avatar updated", "user_id", userID, "avatar", avatar)
	return avatar, nil
}
