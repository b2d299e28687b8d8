package auth

import (
	"strings"
	"testing"
	"time"
)

func TestNewJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	if manager == nil {
		t.Fatal("expected JWTManager to be created")
	}
	if manager.secretKey != "test-secret" {
		t.Errorf("expected secretKey 'test-secret', got '%s'", manager.secretKey)
	}
	if manager.tokenDuration != time.Hour {
		t.Errorf("expected tokenDuration 1h, got %v", manager.tokenDuration)
	}
}

func TestGenerateToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, expiresAt, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token == "" {
		t.Error("expected non-empty token")
	}

	expectedExpiry := time.Now().Add(time.Hour)
	if expiresAt.Before(expectedExpiry.Add(-time.Minute)) || expiresAt.After(expectedExpiry.Add(time.Minute)) {
		t.Errorf("expiry time not within expected range")
	}
}

func TestValidateToken_Valid(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, _, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error validating token: %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("expected UserID 'user-123', got '%s'", claims.UserID)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret-key", -time.Hour)

	token, _, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got: %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-one", time.Hour)
	other := NewJWTManager("secret-two", time.Hour)

	token, _, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = other.ValidateToken(token)
	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got: %v", err)
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, _, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// Flip one character of the payload segment.
	corrupted := []byte(token)
	idx := strings.Index(token, ".") + 1
	if corrupted[idx] == 'a' {
		corrupted[idx] = 'b'
	} else {
		corrupted[idx] = 'a'
	}

	_, err = manager.ValidateToken(string(corrupted))
	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for tampered token, got: %v", err)
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := manager.ValidateToken(token)
		if err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken for '%s', got: %v", token, err)
		}
	}
}
