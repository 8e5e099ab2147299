package util

import (
	"net/http/httptest"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateJWT(42, "contractor", "ABC Construction Ltd", secret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "contractor" {
		t.Errorf("Role = %q, want contractor", claims.Role)
	}
	if claims.Name != "ABC Construction Ltd" {
		t.Errorf("Name = %q", claims.Name)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(1, "public", "Viewer", "secret-a")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret-b"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects", nil)
	if got := ExtractToken(r); got != "" {
		t.Errorf("ExtractToken without header = %q", got)
	}

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	if got := ExtractToken(r); got != "abc.def.ghi" {
		t.Errorf("ExtractToken = %q", got)
	}

	r.Header.Set("Authorization", "Basic abc")
	if got := ExtractToken(r); got != "" {
		t.Errorf("ExtractToken with basic auth = %q", got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("s3cret", hash) {
		t.Error("CheckPassword rejected correct password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword accepted wrong password")
	}
}
