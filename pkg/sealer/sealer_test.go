package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reference := "8a2bd5c7-9a14-4a8f-a7f3-1c2b3d4e5f60"
	userRef := "user-42"

	token, err := s.CreateOpaqueToken(reference, userRef)
	if err != nil {
		t.Fatalf("CreateOpaqueToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if strings.Contains(token, reference) {
		t.Error("token must not expose the booking reference")
	}

	gotRef, gotUser, err := s.ParseOpaqueToken(token)
	if err != nil {
		t.Fatalf("ParseOpaqueToken: %v", err)
	}
	if gotRef != reference || gotUser != userRef {
		t.Errorf("round trip = (%q, %q), want (%q, %q)", gotRef, gotUser, reference, userRef)
	}
}

func TestSealer_TokensAreUnique(t *testing.T) {
	s, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t1, err := s.CreateOpaqueToken("507f1f77bcf86cd799439011", "user-42")
	if err != nil {
		t.Fatal(err)
	}
	t2, err := s.CreateOpaqueToken("507f1f77bcf86cd799439011", "user-42")
	if err != nil {
		t.Fatal(err)
	}

	if t1 == t2 {
		t.Error("sealing the same payload twice must produce different tokens")
	}
}

func TestSealer_RejectsTamperedToken(t *testing.T) {
	s, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := s.CreateOpaqueToken("507f1f77bcf86cd799439011", "user-42")
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xff
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	if _, _, err := s.ParseOpaqueToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestSealer_RejectsForeignToken(t *testing.T) {
	s1, err := New(testKey(t))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := New(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	token, err := s1.CreateOpaqueToken("507f1f77bcf86cd799439011", "user-42")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := s2.ParseOpaqueToken(token); err == nil {
		t.Error("expected token sealed under a different key to be rejected")
	}
}

func TestSealer_MalformedInput(t *testing.T) {
	s, err := New(testKey(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"not base64", "!!not-base64!!"},
		{"too short", base64.RawURLEncoding.EncodeToString([]byte("abc"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.ParseOpaqueToken(tt.token); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestNew_InvalidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not base64", "%%%"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.key); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}
