package store

import (
	"context"
	"testing"

	"crypto-range-alert-bot/internal/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	kv, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	return kv, mr
}

func TestRedis_GetPut(t *testing.T) {
	kv, mr := setupRedis(t)
	ctx := context.Background()

	value, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, kv.Put(ctx, "key", []byte("value")))

	value, err = kv.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "value", string(value))

	stored, err := mr.Get("key")
	require.NoError(t, err)
	require.Equal(t, "value", stored)
}

func TestRedis_SubscriptionStore(t *testing.T) {
	kv, mr := setupRedis(t)
	ctx := context.Background()
	subs := NewSubscriptions(kv, "rangealert")

	require.NoError(t, subs.RegisterSubscriber(ctx, 1))
	require.NoError(t, subs.PutSubscriptions(ctx, 1, types.SubscriptionSet{
		{Symbol: "BTC", Minimum: 10000, Maximum: 20000},
	}))

	require.True(t, mr.Exists("rangealert:registry"))
	require.True(t, mr.Exists("rangealert:subscriptions:1"))

	set, err := subs.GetSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, set, 1)
	require.Equal(t, "BTC", set[0].Symbol)
}

func TestRedis_Unavailable(t *testing.T) {
	kv, mr := setupRedis(t)
	mr.Close()

	_, err := kv.Get(context.Background(), "key")
	require.True(t, errors.Is(err, ErrStoreUnavailable))

	err = kv.Put(context.Background(), "key", []byte("v"))
	require.True(t, errors.Is(err, ErrStoreUnavailable))
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "")
	require.Error(t, err)

	_, err = NewRedis(context.Background(), "not-a-url://")
	require.Error(t, err)
}
