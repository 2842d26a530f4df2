package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("test-secret", "operator", "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ParseJWT("test-secret", token)
	if err != nil {
		t.Fatalf("ParseJWT() error = %v", err)
	}
	if claims.Username != "operator" {
		t.Errorf("Username = %q, want %q", claims.Username, "operator")
	}
	if claims.Role != "operator" {
		t.Errorf("Role = %q, want %q", claims.Role, "operator")
	}
	if claims.Issuer != "campaign-autopilot" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "campaign-autopilot")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("test-secret", "operator", "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Fatal("ParseJWT() with wrong secret should fail")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("test-secret", "viewer", "viewer", time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("test-secret", token); err == nil {
		t.Fatal("ParseJWT() of expired token should fail")
	}
}

func TestJWTGarbage(t *testing.T) {
	if _, err := ParseJWT("test-secret", "not-a-token"); err == nil {
		t.Fatal("ParseJWT() of garbage should fail")
	}
}
