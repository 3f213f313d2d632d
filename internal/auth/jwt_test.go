package auth

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %s", claims.Username)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token + "x"); err == nil {
		t.Error("expected a tampered token to be rejected")
	}
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("expected a malformed token to be rejected")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	InitJWT("first-secret")
	token, err := GenerateToken(7, "bob")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	InitJWT("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected a token signed with another secret to be rejected")
	}
}
