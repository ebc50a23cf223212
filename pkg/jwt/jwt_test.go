package jwtutil

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	claims := NewClaims("b2c0a7e4-9f3d-4a1b-8c6e-2d5f7a9b1c3e", "alice", "PARTICIPANT", time.Hour)

	token, err := GenerateAccessToken(claims, key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	parsed, err := ParseAccessToken(token, &key.PublicKey)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.UserID != claims.UserID || parsed.Username != "alice" || parsed.Role != "PARTICIPANT" {
		t.Fatalf("claims did not survive the round trip: %+v", parsed)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	claims := NewClaims("b2c0a7e4-9f3d-4a1b-8c6e-2d5f7a9b1c3e", "alice", "PARTICIPANT", -time.Minute)

	token, err := GenerateAccessToken(claims, key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = ParseAccessToken(token, &key.PublicKey)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signingKey := generateKey(t)
	otherKey := generateKey(t)
	claims := NewClaims("b2c0a7e4-9f3d-4a1b-8c6e-2d5f7a9b1c3e", "alice", "PARTICIPANT", time.Hour)

	token, err := GenerateAccessToken(claims, signingKey)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := ParseAccessToken(token, &otherKey.PublicKey); err == nil {
		t.Fatal("expected verification against the wrong key to fail")
	}
}
