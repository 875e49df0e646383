package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiszki/fiszki-go/internal/crypto"
	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/repository"
	"github.com/fiszki/fiszki-go/internal/testutil"
)

var testHasher = crypto.PasswordHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestAuthService(t *testing.T) (*AuthService, *crypto.TokenIssuer) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(repository.NewUserRepository(db), testHasher, tokens), tokens
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name string
		req  model.CredentialsRequest
		want error
	}{
		{"empty email", model.CredentialsRequest{Email: "  ", Password: "password123"}, ErrEmailRequired},
		{"invalid email", model.CredentialsRequest{Email: "not-an-email", Password: "password123"}, ErrInvalidEmail},
		{"short password", model.CredentialsRequest{Email: "a@example.com", Password: "12345"}, ErrPasswordTooShort},
		{"empty password", model.CredentialsRequest{Email: "a@example.com"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.CredentialsRequest{Email: " Ala@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if reg.User.Email != "ala@example.com" {
		t.Errorf("email = %q, want normalized", reg.User.Email)
	}
	uid, err := tokens.Parse(reg.Token)
	if err != nil || uid != reg.User.ID {
		t.Fatalf("token subject = %d, %v; want %d", uid, err, reg.User.ID)
	}

	if _, err := svc.Register(ctx, model.CredentialsRequest{Email: "ala@example.com", Password: "secret2"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrEmailTaken", err)
	}

	login, err := svc.Login(ctx, model.CredentialsRequest{Email: "ALA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("Login() user = %d, want %d", login.User.ID, reg.User.ID)
	}

	me, err := svc.GetUser(ctx, reg.User.ID)
	if err != nil || me.Email != "ala@example.com" {
		t.Errorf("GetUser() = %+v, %v", me, err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.CredentialsRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	for _, req := range []model.CredentialsRequest{
		{Email: "a@example.com", Password: "wrong-password"},
		{Email: "missing@example.com", Password: "secret1"},
	} {
		if _, err := svc.Login(ctx, req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", req.Email, err)
		}
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc, _ := newTestAuthService(t)
	if _, err := svc.GetUser(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}
