package booking

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftStore(t *testing.T) (*miniredis.Miniredis, DraftStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisDraftStore(rdb, "test")
}

func TestDraftStore_PeekKeepsDraft(t *testing.T) {
	ctx := context.Background()
	mr, store := newDraftStore(t)
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	d := Draft{Authority: "A1", BookingID: "b1", ReservationKey: "slot:doc1", CreatedAt: created}
	require.NoError(t, store.Save(ctx, d, time.Minute))

	got, err := store.Peek(ctx, "A1", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BookingID)
	assert.Greater(t, mr.TTL("test:checkout:A1"), time.Minute, "peek extends a draft about to expire")

	got, err = store.Take(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "slot:doc1", got.ReservationKey)

	_, err = store.Peek(ctx, "A1", time.Minute)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	_, err = store.Take(ctx, "A1")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	holds, err := store.Expired(ctx, created.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, holds, "a taken draft leaves no hold behind")
}

func TestDraftStore_Expired(t *testing.T) {
	ctx := context.Background()
	mr, store := newDraftStore(t)
	created := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, Draft{Authority: "A1", BookingID: "b1", ReservationKey: "k1", CreatedAt: created}, 10*time.Minute))
	require.NoError(t, store.Save(ctx, Draft{Authority: "A2", BookingID: "b2", ReservationKey: "k2", CreatedAt: created}, 30*time.Minute))
	require.NoError(t, store.Save(ctx, Draft{Authority: "A3", BookingID: "b3", CreatedAt: created}, 10*time.Minute))

	holds, err := store.Expired(ctx, created.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, holds, "a draft still in redis is not expired")

	mr.FastForward(15 * time.Minute)
	holds, err = store.Expired(ctx, created.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, Hold{Authority: "A1", BookingID: "b1", ReservationKey: "k1"}, holds[0])

	require.NoError(t, store.Forget(ctx, "A1"))
	holds, err = store.Expired(ctx, created.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, holds)
}
