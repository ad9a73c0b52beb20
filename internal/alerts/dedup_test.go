package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	now := testNow
	d := NewMemoryDeduper()
	d.now = func() time.Time { return now }

	ok, err := d.Claim(ctx, "a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Claim(ctx, "a", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim within ttl")

	ok, err = d.Claim(ctx, "b", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, d.Len())

	now = now.Add(time.Hour)
	assert.Equal(t, 0, d.Len(), "claims expire at ttl")

	ok, err = d.Claim(ctx, "a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.Release(ctx, "a"))
	ok, err = d.Claim(ctx, "a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released claim can be taken again")
}
