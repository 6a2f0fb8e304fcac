package quote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devispro/devispro/internal/shared"
)

func newTestDraftStore(t *testing.T) (*DraftStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewDraftStore(client, time.Hour), mr
}

func TestDraftStoreRoundTrip(t *testing.T) {
	store, _ := newTestDraftStore(t)
	ctx := context.Background()

	q := fixtureQuotation()
	RecomputeAll(q)

	require.NoError(t, store.Put(ctx, q))

	restored, err := store.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, restored.ID)
	assert.Equal(t, q.Financial.SubtotalHT, restored.Financial.SubtotalHT)
	require.Len(t, restored.Hierarchy, 2)
}

func TestDraftStoreGetMissing(t *testing.T) {
	store, _ := newTestDraftStore(t)

	_, err := store.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftStoreDelete(t *testing.T) {
	store, _ := newTestDraftStore(t)
	ctx := context.Background()

	q := fixtureQuotation()
	require.NoError(t, store.Put(ctx, q))
	require.NoError(t, store.Delete(ctx, q.ID))

	_, err := store.Get(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Deleting an absent draft is a no-op, not an error.
	assert.NoError(t, store.Delete(ctx, q.ID))
}

func TestDraftStoreTTL(t *testing.T) {
	store, mr := newTestDraftStore(t)
	ctx := context.Background()

	q := fixtureQuotation()
	require.NoError(t, store.Put(ctx, q))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftStoreListIDs(t *testing.T) {
	store, _ := newTestDraftStore(t)
	ctx := context.Background()

	first := fixtureQuotation()
	second := fixtureQuotation()
	second.ID = "q-2"
	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"q-1", "q-2"}, ids)
}
