package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const quoteKeyPrefix = "price:"

// RedisFeed reads quotes an external price publisher writes to redis under
// price:{asset}. Reads are bounded by a short timeout so a slow redis never
// hangs a protocol operation.
type RedisFeed struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisFeed(rdb *redis.Client, timeout time.Duration) *RedisFeed {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisFeed{rdb: rdb, timeout: timeout}
}

func (f *RedisFeed) Quote(ctx context.Context, asset string) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := f.rdb.Get(ctx, quoteKeyPrefix+asset).Bytes()
	if errors.Is(err, redis.Nil) {
		return Quote{}, ErrUnknownAsset
	}
	if err != nil {
		return Quote{}, fmt.Errorf("oracle: read quote for %s: %w", asset, err)
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, fmt.Errorf("oracle: decode quote for %s: %w", asset, err)
	}
	q.Asset = asset
	return q, nil
}

// Publish writes a quote; used by the dev seed path and tests. A real
// deployment has an external publisher owning these keys.
func (f *RedisFeed) Publish(ctx context.Context, q Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return f.rdb.Set(ctx, quoteKeyPrefix+q.Asset, raw, 0).Err()
}
