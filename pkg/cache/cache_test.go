package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryCacheRoundTrip(t *testing.T) {
	c, err := NewInMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("k", []byte("v"), 1)

	// theine admits asynchronously; poll briefly.
	require.Eventually(t, func() bool {
		got, ok := c.Get("k")
		return ok && string(got) == "v"
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheTTL(t *testing.T) {
	c, err := NewInMemoryCache(WithTTL(10 * time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", []byte("v"), 1)

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
