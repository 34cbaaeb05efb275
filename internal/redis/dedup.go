package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// Deduper remembers webhook delivery ids so a duplicate delivery can be
// acknowledged without re-entering the verification path. Payment-status
// idempotency in the ledger remains the real guard.
type Deduper struct {
	client *redis.Client
}

func NewDeduper(client *redis.Client) *Deduper {
	return &Deduper{client: client}
}

// FirstDelivery reports whether this is the first time the delivery id was
// seen. With no redis configured every delivery is treated as first.
func (d *Deduper) FirstDelivery(ctx context.Context, provider, deliveryID string) (bool, error) {
	if d == nil || d.client == nil || deliveryID == "" {
		return true, nil
	}
	return d.client.SetNX(ctx, "webhook:"+provider+":"+deliveryID, 1, dedupTTL).Result()
}
