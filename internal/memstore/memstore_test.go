package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

func TestStore_GetSetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "poll:1")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "poll:1", []byte("one")))
	got, err := s.Get(ctx, "poll:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, s.Delete(ctx, "poll:1"))
	_, err = s.Get(ctx, "poll:1")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	// Deleting a missing key is a no-op.
	assert.NoError(t, s.Delete(ctx, "poll:1"))
}

func TestStore_ScanPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "poll:2", []byte("two")))
	require.NoError(t, s.Set(ctx, "poll:1", []byte("one")))
	require.NoError(t, s.Set(ctx, "other:3", []byte("three")))

	entries, err := s.Scan(ctx, "poll:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "poll:1", entries[0].Key)
	assert.Equal(t, "poll:2", entries[1].Key)
}
