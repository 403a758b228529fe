package database

import (
	"context"
	"path/filepath"
	"testing"

	"crypto-range-alert-bot/internal/store"
	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *SQLite {
	db, err := Open(filepath.Join(t.TempDir(), "data", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_GetPut(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	value, err := db.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, db.Put(ctx, "key", []byte("first")))
	require.NoError(t, db.Put(ctx, "key", []byte("second")))

	value, err = db.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "second", string(value))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	subs := store.NewSubscriptions(db, "rangealert")
	require.NoError(t, subs.RegisterSubscriber(ctx, 1))
	require.NoError(t, subs.PutSubscriptions(ctx, 1, types.SubscriptionSet{
		{Symbol: "BTC", Minimum: 10000, Maximum: 20000},
	}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	subs = store.NewSubscriptions(db, "rangealert")

	ids, err := subs.ListRegisteredSubscribers(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	set, err := subs.GetSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionSet{{Symbol: "BTC", Minimum: 10000, Maximum: 20000}}, set)
}

func TestSQLite_ClosedIsUnavailable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Get(context.Background(), "key")
	require.True(t, errors.Is(err, store.ErrStoreUnavailable))

	err = db.Put(context.Background(), "key", []byte("v"))
	require.True(t, errors.Is(err, store.ErrStoreUnavailable))
}
