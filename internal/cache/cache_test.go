package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyAddrDisablesCache(t *testing.T) {
	c := New("", "", 0, nil)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestNilClient_FailsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Ping(ctx))
	assert.Nil(t, c.Get(ctx, "k"))
	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Delete(ctx, "k")
	c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute)
	assert.False(t, c.Exists(ctx, "k"))

	var out map[string]int
	assert.False(t, c.GetJSON(ctx, "k", &out))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedis_BehavesLikeMiss(t *testing.T) {
	c := New("127.0.0.1:1", "", 0, nil)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Nil(t, c.Get(ctx, "k"))
	assert.False(t, c.Exists(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
}
