package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records tokens invalidated by logout.  A token is usable
// only while it verifies cryptographically, is unexpired AND is absent
// from this store; both checks run on every authenticated request.
// Implementations must make Revoke idempotent and treat an empty token as
// a no-op.
type RevocationStore interface {
	// Revoke marks a token as unusable.  ttl is the token's remaining
	// lifetime; entries may be dropped once the token would have expired
	// anyway.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	// IsRevoked reports whether a token has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationStore keeps revoked tokens in process memory.  State is
// lost on restart, which matches the session model: a restarted server
// simply honors still-valid tokens again.  Entries are never evicted, so
// the set grows for the process lifetime; the Redis store is preferred for
// long-running or multi-instance deployments.
type MemoryRevocationStore struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{tokens: make(map[string]struct{})}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, _ time.Duration) error {
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.tokens[hashToken(token)] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	_, ok := s.tokens[hashToken(token)]
	s.mu.RUnlock()
	return ok, nil
}

// RedisRevocationStore shares revocation state across instances.  Keys
// expire with the token's remaining lifetime, so the set stays bounded by
// the number of logouts within one token TTL window.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "revoked:"}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return nil
	}
	if ttl <= 0 {
		// already past expiry; keep the marker briefly in case of clock skew
		ttl = time.Minute
	}
	return s.client.Set(ctx, s.prefix+hashToken(token), "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+hashToken(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// hashToken maps a token to a fixed-size key so arbitrarily long bearer
// strings never land verbatim in the store.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
