package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestDeduperFirstDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	d := NewDeduper(client)

	ctx := context.Background()

	first, err := d.FirstDelivery(ctx, "razorpay", "evt_123")
	require.NoError(t, err)
	require.True(t, first)

	again, err := d.FirstDelivery(ctx, "razorpay", "evt_123")
	require.NoError(t, err)
	require.False(t, again)

	other, err := d.FirstDelivery(ctx, "cashfree", "evt_123")
	require.NoError(t, err)
	require.True(t, other)
}

func TestDeduperDisabled(t *testing.T) {
	d := NewDeduper(nil)
	first, err := d.FirstDelivery(context.Background(), "razorpay", "evt_123")
	require.NoError(t, err)
	require.True(t, first)

	first, err = d.FirstDelivery(context.Background(), "razorpay", "evt_123")
	require.NoError(t, err)
	require.True(t, first)
}
