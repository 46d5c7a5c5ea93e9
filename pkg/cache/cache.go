// Package cache provides the in-memory cache used for remote responses.
package cache

import (
	"time"

	"github.com/Yiling-J/theine-go"
)

// Cache defines an interface for a generic cache.
type Cache interface {

	// Get returns the value for the given key in the cache, if it exists.
	Get(key string) ([]byte, bool)

	// Set sets a value for the key in the cache, with the given cost.
	Set(key string, entry []byte, cost int64)

	// Close closes the cache, cleaning up any residual resources before returning.
	Close()
}

const (
	// DefaultMaxCost bounds the total byte cost kept in memory.
	DefaultMaxCost = 8 << 20

	// DefaultTTL is how long a fetched response stays usable.
	DefaultTTL = 10 * time.Minute
)

// InMemoryCache is a theine backed Cache implementation.
type InMemoryCache struct {
	client *theine.Cache[string, []byte]
	ttl    time.Duration
}

var _ Cache = (*InMemoryCache)(nil)

type InMemoryOption func(*inMemoryConfig)

type inMemoryConfig struct {
	maxCost int64
	ttl     time.Duration
}

func WithMaxCost(maxCost int64) InMemoryOption {
	return func(c *inMemoryConfig) {
		c.maxCost = maxCost
	}
}

func WithTTL(ttl time.Duration) InMemoryOption {
	return func(c *inMemoryConfig) {
		c.ttl = ttl
	}
}

func NewInMemoryCache(opts ...InMemoryOption) (*InMemoryCache, error) {
	cfg := &inMemoryConfig{
		maxCost: DefaultMaxCost,
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := theine.NewBuilder[string, []byte](cfg.maxCost).Build()
	if err != nil {
		return nil, err
	}

	return &InMemoryCache{
		client: client,
		ttl:    cfg.ttl,
	}, nil
}

func (c *InMemoryCache) Get(key string) ([]byte, bool) {
	return c.client.Get(key)
}

func (c *InMemoryCache) Set(key string, entry []byte, cost int64) {
	c.client.SetWithTTL(key, entry, cost, c.ttl)
}

func (c *InMemoryCache) Close() {
	c.client.Close()
}
