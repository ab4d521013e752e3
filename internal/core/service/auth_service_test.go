package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trendkart/commerce-api/internal/core/domain"
)

type stubAuthRepo struct {
	byEmail map[string]*domain.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{byEmail: make(map[string]*domain.User)}
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubAuthRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := *u
	r.byEmail[u.Email] = &clone
	return &clone, nil
}

const testSecret = "test-secret"

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newStubAuthRepo(), testSecret, time.Hour)

	token, user, err := svc.Register(context.Background(), "Asha", "Asha@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Errorf("email = %s, want lowercased", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("role = %s, want customer", user.Role)
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password stored in plaintext")
	}
	if token == "" {
		t.Error("register should return a token")
	}

	token, _, err = svc.Login(context.Background(), "asha@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims["sub"] != user.ID {
		t.Errorf("sub = %v, want %s", claims["sub"], user.ID)
	}
	if claims["role"] != domain.RoleCustomer {
		t.Errorf("role claim = %v, want customer", claims["role"])
	}
}

func TestAuthService_LoginRejectsBadPassword(t *testing.T) {
	svc := NewAuthService(newStubAuthRepo(), testSecret, time.Hour)
	if _, _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "s3cret"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login(context.Background(), "asha@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("bad password: err = %v, want ErrInvalidCredentials", err)
	}
	// Unknown emails get the same answer as bad passwords.
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubAuthRepo(), testSecret, time.Hour)
	if _, _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "s3cret"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(context.Background(), "Other", "asha@example.com", "pw"); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("duplicate register: err = %v, want ErrUserExists", err)
	}
}

func TestAuthService_RejectsBlankInput(t *testing.T) {
	svc := NewAuthService(newStubAuthRepo(), testSecret, time.Hour)
	if _, _, err := svc.Register(context.Background(), "", "a@b.c", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("blank name: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("blank email: err = %v, want ErrInvalidCredentials", err)
	}
}
