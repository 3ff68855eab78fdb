package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long a started OAuth handshake may take before the
// callback is rejected.
const stateTTL = 10 * time.Minute

// StateStore holds the single-use CSRF state values issued when an OAuth
// flow starts.  Take consumes a value: a state can validate exactly one
// callback.
type StateStore interface {
	Put(ctx context.Context, state string) error
	Take(ctx context.Context, state string) (bool, error)
}

// NewState returns a cryptographically random state value.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RedisStateStore keeps states in Redis so callbacks can land on any
// instance behind a load balancer.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "oauthstate:"}
}

func (s *RedisStateStore) Put(ctx context.Context, state string) error {
	return s.client.Set(ctx, s.prefix+state, "1", stateTTL).Err()
}

func (s *RedisStateStore) Take(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+state).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryStateStore is the single-instance fallback when Redis is not
// configured.  Expired entries are pruned on each Put.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time)}
}

func (s *MemoryStateStore) Put(_ context.Context, state string) error {
	now := time.Now()
	s.mu.Lock()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(stateTTL)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	exp, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	s.mu.Unlock()
	return ok && time.Now().Before(exp), nil
}
