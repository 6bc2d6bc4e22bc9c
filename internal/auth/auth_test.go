package auth

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret")

	signed, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("alice", got); diff != "" {
		t.Errorf("subject mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenVerifyFailures(t *testing.T) {
	tokens := NewTokens("test-secret")
	signed, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		tokens *Tokens
		input  string
	}{
		{name: "garbage input", tokens: tokens, input: "not.a.token"},
		{name: "empty input", tokens: tokens, input: ""},
		{name: "wrong secret", tokens: NewTokens("other-secret"), input: signed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tokens.Verify(tt.input)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got: %v", err)
			}
		})
	}
}
