package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

type memoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-process store whose entries expire after defaultTTL
// unless Set is given its own TTL.
func NewMemoryStore(defaultTTL time.Duration) Store {
	return &memoryStore{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := s.c.Get(key)
	if !found {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(key, value, ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
