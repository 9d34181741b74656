package authutil

import (
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken returned empty token")
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q contains characters unsafe for URLs", token)
	}

	other, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == other {
		t.Error("two generated tokens are identical")
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	h3 := HashToken("other-token")

	if h1 != h2 {
		t.Error("hashing the same token twice gave different digests")
	}
	if h1 == h3 {
		t.Error("different tokens hashed to the same digest")
	}
	if len(h1) != 64 {
		t.Errorf("digest length = %d, want 64 hex characters", len(h1))
	}
}
