// Package oracle is the boundary to the external price feed. Quotes are
// untrusted input: consumers must check ObservedAt against their freshness
// window and fail closed on stale data.
package oracle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// PriceScale is the fixed-point scale of quoted prices: a price of
// 1 * PriceScale means one asset unit is worth one smallest currency unit
// (Chainlink-style 8 decimals).
const PriceScale = 100_000_000

var ErrUnknownAsset = errors.New("no price feed for asset")

// Quote is one observed price point for an asset.
type Quote struct {
	Asset      string    `json:"asset"`
	Price      uint64    `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

type Feed interface {
	Quote(ctx context.Context, asset string) (Quote, error)
}

// StaticFeed is an in-memory feed with settable prices, used in dev mode and
// tests. Reads are lock-free for writers that have finished publishing.
type StaticFeed struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewStaticFeed() *StaticFeed {
	return &StaticFeed{quotes: make(map[string]Quote)}
}

func (f *StaticFeed) Set(asset string, price uint64, observedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[asset] = Quote{Asset: asset, Price: price, ObservedAt: observedAt.UTC()}
}

func (f *StaticFeed) Quote(_ context.Context, asset string) (Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[asset]
	if !ok {
		return Quote{}, ErrUnknownAsset
	}
	return q, nil
}
