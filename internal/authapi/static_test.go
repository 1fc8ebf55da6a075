package authapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/oriem-gate/internal/session"
)

func newTestStatic(t *testing.T) *Static {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	static, err := NewStatic(StaticConfig{
		Username:     "a",
		PasswordHash: string(hash),
		Email:        "a@example.com",
		TokenSecret:  []byte("test-secret"),
		TokenTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewStatic returned error: %v", err)
	}
	return static
}

func TestStaticAuthenticateSuccess(t *testing.T) {
	static := newTestStatic(t)

	result, err := static.Authenticate(context.Background(), session.Credentials{Username: "a", Password: "correct"})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if result.Identity.UserID != "a" || result.Identity.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", result.Identity)
	}

	// 発行されたクレデンシャルは構成した秘密鍵で検証できる
	token, err := jwt.Parse(result.Credential, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("failed to parse credential: %v", err)
	}
	if !token.Valid {
		t.Fatal("credential must be valid")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject != "a" {
		t.Fatalf("subject = %q, err = %v", subject, err)
	}
}

func TestStaticAuthenticateWrongPassword(t *testing.T) {
	static := newTestStatic(t)

	_, err := static.Authenticate(context.Background(), session.Credentials{Username: "a", Password: "wrong"})
	if !errors.Is(err, session.ErrRejectedCredentials) {
		t.Fatalf("error = %v, want ErrRejectedCredentials", err)
	}
}

func TestStaticAuthenticateUnknownUser(t *testing.T) {
	static := newTestStatic(t)

	_, err := static.Authenticate(context.Background(), session.Credentials{Username: "b", Password: "correct"})
	if !errors.Is(err, session.ErrRejectedCredentials) {
		t.Fatalf("error = %v, want ErrRejectedCredentials", err)
	}
}

func TestNewStaticRequiresConfig(t *testing.T) {
	if _, err := NewStatic(StaticConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestUnconfiguredFailsAsTransport(t *testing.T) {
	_, err := Unconfigured{}.Authenticate(context.Background(), session.Credentials{Username: "a", Password: "correct"})
	if !errors.Is(err, session.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}
