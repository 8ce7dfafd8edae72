package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Day    string `json:"day"`
	Streak int    `json:"streak"`
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var got entry
	ok, err := c.Get(ctx, "user-1", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "user-1", entry{Day: "2025-07-01", Streak: 4}, time.Minute))

	ok, err = c.Get(ctx, "user-1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry{Day: "2025-07-01", Streak: 4}, got)

	require.NoError(t, c.Delete(ctx, "user-1"))
	ok, err = c.Get(ctx, "user-1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "k", entry{Streak: 1}, time.Nanosecond))
	time.Sleep(time.Millisecond)

	var got entry
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNop_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := Nop()

	require.NoError(t, c.Set(ctx, "k", entry{Streak: 1}, time.Minute))

	var got entry
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
