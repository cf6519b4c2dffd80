package invitation

import "testing"

func TestGenerateToken_LengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		raw, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken() error: %v", err)
		}
		// 32 random bytes hex-encoded.
		if len(raw) != 64 {
			t.Fatalf("expected token length 64, got %d", len(raw))
		}
		if seen[raw] {
			t.Fatalf("duplicate token generated: %s", raw)
		}
		seen[raw] = true
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	raw := "0f0e0d0c0b0a09080706050403020100ffeeddccbbaa99887766554433221100"
	h1 := hashToken(raw)
	h2 := hashToken(raw)
	if h1 != h2 {
		t.Errorf("hashToken should be deterministic: %q != %q", h1, h2)
	}
	if h1 == raw {
		t.Error("hash should differ from the raw token")
	}
	// SHA-256 produces 64 hex characters.
	if len(h1) != 64 {
		t.Errorf("expected hash length 64, got %d", len(h1))
	}
}

func TestHashToken_DifferentInputs(t *testing.T) {
	if hashToken("token-a") == hashToken("token-b") {
		t.Error("different tokens should produce different hashes")
	}
}

func TestTokensEqual(t *testing.T) {
	h := hashToken("some-token")
	if !tokensEqual(h, h) {
		t.Error("identical hashes should compare equal")
	}
	if tokensEqual(h, hashToken("other-token")) {
		t.Error("different hashes should not compare equal")
	}
	if tokensEqual(h, h[:32]) {
		t.Error("hashes of different lengths should not compare equal")
	}
}
