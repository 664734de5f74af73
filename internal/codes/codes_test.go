package codes

import (
	"strings"
	"testing"
)

func TestClaimCodeFormat(t *testing.T) {
	code := ClaimCode()
	if len(code) != ClaimCodeLength {
		t.Fatalf("claim code length = %d, want %d", len(code), ClaimCodeLength)
	}
	for _, ch := range code {
		if !strings.ContainsRune(claimCodeAlphabet, ch) {
			t.Fatalf("claim code %q contains invalid character %q", code, ch)
		}
	}
}

func TestClaimCodeUniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := ClaimCode()
		if _, ok := seen[code]; ok {
			t.Fatalf("duplicate claim code after %d generations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}

func TestMembershipIDFormat(t *testing.T) {
	id := MembershipID()
	if len(id) != 5 {
		t.Fatalf("membership id length = %d, want 5", len(id))
	}
	for _, ch := range id {
		if ch < '0' || ch > '9' {
			t.Fatalf("membership id %q contains non-digit %q", id, ch)
		}
	}
}

func TestResetCodeFormat(t *testing.T) {
	code := ResetCode()
	if len(code) != 6 {
		t.Fatalf("reset code length = %d, want 6", len(code))
	}
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			t.Fatalf("reset code %q contains non-digit %q", code, ch)
		}
	}
}
