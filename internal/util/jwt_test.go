package util

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "finly", 42, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error = %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Issuer != "finly" {
		t.Errorf("Issuer = %q, want finly", claims.Issuer)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", "finly", 1, time.Hour)
	if _, err := ParseToken("other", token); err == nil {
		t.Error("ParseToken with wrong secret should fail")
	}
}

func TestParseToken_FallbackTTLAndGarbage(t *testing.T) {
	// non-positive ttl falls back to 24h
	token, _ := GenerateToken("secret", "finly", 1, -time.Hour)
	if _, err := ParseToken("secret", token); err != nil {
		t.Fatalf("fallback ttl token should be valid: %v", err)
	}
	if _, err := ParseToken("secret", "garbage.token.value"); err == nil {
		t.Error("ParseToken(garbage) should fail")
	}
}
