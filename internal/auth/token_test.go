package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/repairshop-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	actor := domain.Actor{Kind: domain.ActorKindTechnician, ID: "tech-4", Name: "Dana"}

	token, expiresAt, err := tm.GenerateToken(actor)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Fatalf("unexpected expiry window: %v", remaining)
	}

	parsed, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed != actor {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken(domain.Actor{Kind: domain.ActorKindUser, ID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected signature validation error")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not-a-token"); err != nil {
		return
	}
	t.Fatal("expected parse error")
}

func TestNewTokenManagerDefaultsTTL(t *testing.T) {
	tm := NewTokenManager("test-secret", 0)
	_, expiresAt, err := tm.GenerateToken(domain.SystemActor())
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 479*time.Minute {
		t.Fatalf("expected 480 minute default, got %v", remaining)
	}
}
