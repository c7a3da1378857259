package pricefeed

import (
	"context"
	"fmt"
	"net/http"

	"coinledger/pkg/coingecko"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Feed fetches a raw response from the external price API.
type Feed interface {
	FetchCoin(ctx context.Context, coinID string) (coingecko.RawResponse, error)
}

// Cache is the write side of the price cache.
type Cache interface {
	Update(ctx context.Context, coinID string, price decimal.Decimal) error
}

// Ingestor is the only path that lets external data influence ledger-visible
// state. Every raw response passes through the deterministic transform
// before it may touch the cache; any failure leaves the cache unchanged, so
// a stale-but-valid price is preferred over a corrupt one.
type Ingestor struct {
	feed  Feed
	cache Cache
	log   *zap.Logger
}

func NewIngestor(feed Feed, cache Cache, log *zap.Logger) *Ingestor {
	return &Ingestor{feed: feed, cache: cache, log: log}
}

// Ingest fetches, canonicalizes and caches the current price for coinID,
// returning the admitted price.
func (i *Ingestor) Ingest(ctx context.Context, coinID string) (decimal.Decimal, error) {
	raw, err := i.feed.FetchCoin(ctx, coinID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: fetch %s: %v", coingecko.ErrPriceFeed, coinID, err)
	}

	canonical, err := coingecko.Transform(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("transform %s: %w", coinID, err)
	}
	if canonical.Status != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: status %d", coingecko.ErrPriceFeed, coinID, canonical.Status)
	}

	price, err := coingecko.CanonicalPrice(canonical.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode %s: %w", coinID, err)
	}

	if err := i.cache.Update(ctx, coinID, price); err != nil {
		return decimal.Decimal{}, fmt.Errorf("cache %s: %w", coinID, err)
	}

	i.log.Debug("price ingested",
		zap.String("coin", coinID),
		zap.String("price", price.String()),
	)
	return price, nil
}
