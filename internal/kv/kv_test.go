package kv

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "progress:1:a", []byte("x")))
	v, ok, err := m.Get(ctx, "progress:1:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), v)
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'z'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestMemory_KeysAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, k := range []string{"progress:2:b", "progress:1:a", "other"} {
		require.NoError(t, m.Set(ctx, k, []byte("1")))
	}

	keys, err := m.Keys(ctx, "progress:")
	require.NoError(t, err)
	assert.Equal(t, []string{"progress:1:a", "progress:2:b"}, keys)

	require.NoError(t, m.Delete(ctx, "progress:1:a"))
	keys, _ = m.Keys(ctx, "progress:")
	assert.Equal(t, []string{"progress:2:b"}, keys)
}

func TestRedis_BadURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not a url", 0, zerolog.Nop())
	assert.Error(t, err)
}
