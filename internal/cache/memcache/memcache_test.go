package memcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCache_GetSetExpire(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 50*time.Millisecond))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	require.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "a")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	v, ok, _ = c.Get(ctx, "b")
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
}

func TestCache_SetMovesKeyBetweenTTLs(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("short"), 50*time.Millisecond))
	require.NoError(t, c.Set(ctx, "k", []byte("forever"), 0))

	time.Sleep(100 * time.Millisecond)
	v, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("forever"), v)
}

func TestCache_ValueIsCopied(t *testing.T) {
	c := New()
	ctx := context.Background()
	src := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", src, 0))
	src[0] = 'z'

	v, _, _ := c.Get(ctx, "k")
	require.Equal(t, []byte("abc"), v)
	v[1] = 'z'

	v, _, _ = c.Get(ctx, "k")
	require.Equal(t, []byte("abc"), v)
}

func TestCache_EvictsOldestOverSize(t *testing.T) {
	c := NewWithSize(2)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte{byte(i)}, time.Minute))
	}

	_, ok, _ := c.Get(ctx, "k0")
	require.False(t, ok)
	_, ok, _ = c.Get(ctx, "k2")
	require.True(t, ok)
}
