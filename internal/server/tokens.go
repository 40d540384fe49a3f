package server

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

type token struct {
	digest  uint64
	expires time.Time
}

// tokenStore issues single-use confirmation tokens bound to a plan body
type tokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]token
	now    func() time.Time
}

func newTokenStore(ttl time.Duration) *tokenStore {
	return &tokenStore{
		ttl:    ttl,
		tokens: make(map[string]token),
		now:    time.Now,
	}
}

func (s *tokenStore) issue(body []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, t := range s.tokens {
		if now.After(t.expires) {
			delete(s.tokens, id)
		}
	}

	id := uuid.NewString()
	s.tokens[id] = token{digest: xxhash.Sum64(body), expires: now.Add(s.ttl)}
	return id
}

// redeem consumes id if it is live and was issued for the same body
func (s *tokenStore) redeem(id string, body []byte) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return false
	}
	delete(s.tokens, id)

	return !s.now().After(t.expires) && t.digest == xxhash.Sum64(body)
}
