package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/boddenberg/cleverbot-go/internal/service"

	"go.uber.org/zap"
)

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := service.NewAuthService("test-secret", time.Hour, zap.NewNop())

	token, err := svc.IssueAccessToken("alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("expected subject 'alice', got '%s'", claims.Subject)
	}
}

func TestAuthService_RejectsForeignSecret(t *testing.T) {
	issuer := service.NewAuthService("secret-a", time.Hour, zap.NewNop())
	verifier := service.NewAuthService("secret-b", time.Hour, zap.NewNop())

	token, err := issuer.IssueAccessToken("alice")
	if err != nil {
		t.Fatal(err)
	}

	_, err = verifier.ValidateAccessToken(token)
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_RejectsExpired(t *testing.T) {
	svc := service.NewAuthService("test-secret", -time.Minute, zap.NewNop())

	token, err := svc.IssueAccessToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestAuthService_RequiresSubject(t *testing.T) {
	svc := service.NewAuthService("test-secret", time.Hour, zap.NewNop())

	if _, err := svc.IssueAccessToken(""); err == nil {
		t.Fatal("expected validation error for empty subject")
	}
}
