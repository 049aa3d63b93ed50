package utils

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("expected user-123, got %s", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("expected alice@example.com, got %s", claims.Email)
	}
	if claims.Issuer != "famconomy-api" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	t.Setenv("JWT_SECRET", "different-secret")
	if _, err := ParseAccessToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := GenerateAccessToken("user-123", "alice@example.com"); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}
