package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevocation_RevokeThenCheck(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	tok, err := Issue("secret", 7, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	revoked, err := s.IsRevoked(ctx, tok.Token)
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatal("fresh token reported as revoked")
	}

	if err := s.Revoke(ctx, tok.Token, time.Hour); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	revoked, err = s.IsRevoked(ctx, tok.Token)
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("revoked token reported as usable")
	}

	// the token itself still verifies; revocation is a separate gate
	if _, err := Verify("secret", tok.Token); err != nil {
		t.Fatalf("revoked token should still verify cryptographically: %v", err)
	}
}

func TestMemoryRevocation_Idempotent(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Revoke(ctx, "some-token", time.Hour); err != nil {
			t.Fatalf("Revoke #%d error: %v", i+1, err)
		}
	}
	revoked, err := s.IsRevoked(ctx, "some-token")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("token not revoked after repeated Revoke calls")
	}
}

func TestMemoryRevocation_EmptyTokenNoop(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	if err := s.Revoke(ctx, "", time.Hour); err != nil {
		t.Fatalf("Revoke of empty token should be a no-op, got %v", err)
	}
	revoked, err := s.IsRevoked(ctx, "")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatal("empty token must never be revoked")
	}
}
