package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/repository"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUserNotFound       = errors.New("user not found")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// AuthService registers users and issues session tokens.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CredentialsRequest) (model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return model.AuthResponse{}, ErrInvalidEmail
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return model.AuthResponse{}, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{Email: email, AuthHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	return s.authResponse(user)
}

// Login authenticates a user and returns an auth token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req model.CredentialsRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.AuthHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return userResponse(user), nil
}

func (s *AuthService) authResponse(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{Token: token, User: userResponse(user)}, nil
}

func userResponse(user *model.User) model.UserResponse {
	return model.UserResponse{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
