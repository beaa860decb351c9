package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokens_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens("s3cret", time.Hour, "eventhub").WithClock(func() time.Time { return now })

	raw, err := tokens.Issue("stu-1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.ID != "stu-1" || id.Role != "student" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestTokens_Rejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	tokens := NewTokens("s3cret", time.Hour, "eventhub").WithClock(func() time.Time { return clock })
	raw, _ := tokens.Issue("adm-1", "admin")

	other := NewTokens("different", time.Hour, "eventhub").WithClock(func() time.Time { return now })
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: want invalid token, got %v", err)
	}
	if _, err := tokens.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: want invalid token, got %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: want invalid token, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "hunter23"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if err := CheckPassword("", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty hash: got %v", err)
	}
}
