package market

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceObservation is the last observed spot price for a coin. No history is
// kept beyond the most recent value.
type PriceObservation struct {
	CoinID    string
	LastPrice decimal.Decimal
}

// Store persists price observations so the cache survives a restart.
type Store interface {
	SavePrice(ctx context.Context, coinID string, price decimal.Decimal) error
}

// PriceCache holds the last observed USD price per coin. The ingestion
// pipeline is the single writer; the ledger and the alert engine read from it.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	store  Store
}

func NewPriceCache(store Store) *PriceCache {
	return &PriceCache{
		prices: make(map[string]decimal.Decimal),
		store:  store,
	}
}

// Update overwrites the entry for coinID, last-write-wins. The observation is
// persisted before it becomes visible to readers; a persistence failure
// leaves the cache unchanged.
func (c *PriceCache) Update(ctx context.Context, coinID string, price decimal.Decimal) error {
	if err := c.store.SavePrice(ctx, coinID, price); err != nil {
		return err
	}

	c.mu.Lock()
	c.prices[coinID] = price
	c.mu.Unlock()
	return nil
}

// Last returns the most recent observed price for coinID, if any.
func (c *PriceCache) Last(coinID string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	price, ok := c.prices[coinID]
	return price, ok
}

// All returns a snapshot of every cached observation, sorted by coin ID.
func (c *PriceCache) All() []PriceObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PriceObservation, 0, len(c.prices))
	for coin, price := range c.prices {
		out = append(out, PriceObservation{CoinID: coin, LastPrice: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CoinID < out[j].CoinID })
	return out
}

// Restore seeds the cache from previously persisted observations. It is
// called once at startup, before any reader or writer is attached.
func (c *PriceCache) Restore(prices map[string]decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for coin, price := range prices {
		c.prices[coin] = price
	}
}
