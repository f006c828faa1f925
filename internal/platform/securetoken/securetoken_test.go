package securetoken

import (
	"encoding/base64"
	"testing"
)

func TestNew_RespectsMinimumEntropy(t *testing.T) {
	// Pedir menos que el mínimo no debe producir tokens débiles.
	tok, err := New(4)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) < MinBytes {
		t.Fatalf("expected >= %d bytes of entropy, got %d", MinBytes, len(raw))
	}
}

func TestNew_TokensAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tok, err := New(DefaultBytes)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = struct{}{}
	}
}
