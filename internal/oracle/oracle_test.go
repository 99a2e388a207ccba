package oracle

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStaticFeed(t *testing.T) {
	f := NewStaticFeed()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.Set("ETH", 2500*PriceScale, at)

	q, err := f.Quote(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Price != 2500*PriceScale || !q.ObservedAt.Equal(at) {
		t.Fatalf("unexpected quote: %+v", q)
	}

	if _, err := f.Quote(context.Background(), "BTC"); err != ErrUnknownAsset {
		t.Fatalf("unknown asset err = %v, want ErrUnknownAsset", err)
	}
}

func TestRedisFeed_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	feed := NewRedisFeed(rdb, time.Second)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := Quote{Asset: "ETH", Price: 1800 * PriceScale, ObservedAt: at}
	if err := feed.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := feed.Quote(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got.Price != want.Price || !got.ObservedAt.Equal(at) {
		t.Fatalf("quote = %+v, want %+v", got, want)
	}
}

func TestRedisFeed_MissingKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	feed := NewRedisFeed(rdb, time.Second)

	if _, err := feed.Quote(context.Background(), "DOGE"); err != ErrUnknownAsset {
		t.Fatalf("err = %v, want ErrUnknownAsset", err)
	}
}
