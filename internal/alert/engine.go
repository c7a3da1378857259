package alert

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidTarget rejects non-positive target prices.
var ErrInvalidTarget = errors.New("invalid target price")

// Direction is the crossing direction captured when the alert was set.
type Direction int8

const (
	// DirectionPending means no price was cached at set time; the direction
	// is resolved on the first check observation, which never triggers.
	DirectionPending Direction = iota
	// DirectionRising triggers when the price reaches or exceeds the target.
	DirectionRising
	// DirectionFalling triggers when the price reaches or drops below the target.
	DirectionFalling
)

// Alert is a user-configured price threshold for one coin. At most one alert
// exists per (user, coin); setting again replaces it.
type Alert struct {
	User        string
	Coin        string
	TargetPrice decimal.Decimal
	Direction   Direction
}

// Key identifies the alert in the active set.
func (a Alert) Key() string {
	return a.User + "_" + a.Coin
}

// Notifier delivers trigger events to the external notification collaborator.
type Notifier interface {
	Notify(ctx context.Context, user, message string) error
}

// PriceSource is the read side of the price cache.
type PriceSource interface {
	Last(coinID string) (decimal.Decimal, bool)
}

// Store persists the active alert set.
type Store interface {
	SaveAlert(ctx context.Context, a Alert) error
	DeleteAlert(ctx context.Context, user, coin string) error
}

// Engine owns the active alert set and evaluates it against the price cache.
type Engine struct {
	mu     sync.Mutex
	alerts map[string]Alert

	prices   PriceSource
	store    Store
	notifier Notifier
	log      *zap.Logger
}

func NewEngine(prices PriceSource, store Store, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{
		alerts:   make(map[string]Alert),
		prices:   prices,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Restore seeds the engine from previously persisted alerts. Called once at
// startup before the engine is shared.
func (e *Engine) Restore(alerts []Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range alerts {
		e.alerts[a.Key()] = a
	}
}

// Set upserts the alert for (user, coin), replacing any prior one. The
// crossing direction is captured from the current cached price; with no
// cached price it stays pending until the first check.
func (e *Engine) Set(ctx context.Context, user, coin string, targetPrice decimal.Decimal) error {
	if targetPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidTarget, targetPrice)
	}

	a := Alert{User: user, Coin: coin, TargetPrice: targetPrice}
	if price, ok := e.prices.Last(coin); ok {
		a.Direction = directionFor(price, targetPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.SaveAlert(ctx, a); err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}
	e.alerts[a.Key()] = a
	return nil
}

// All returns the active alert set, ordered by key so replicas report it
// identically.
func (e *Engine) All() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Check evaluates every active alert against the price cache. A triggered
// alert notifies the user and is removed (fire-once). Alerts whose coin has
// no cached price are skipped. Iteration order is fixed so every replica
// walks the set the same way.
func (e *Engine) Check(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]string, 0, len(e.alerts))
	for key := range e.alerts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		a := e.alerts[key]
		price, ok := e.prices.Last(a.Coin)
		if !ok {
			continue
		}

		if a.Direction == DirectionPending {
			// The resolving observation itself never triggers.
			a.Direction = directionFor(price, a.TargetPrice)
			if err := e.store.SaveAlert(ctx, a); err != nil {
				e.log.Warn("failed to persist alert direction",
					zap.String("user", a.User), zap.String("coin", a.Coin), zap.Error(err))
				continue
			}
			e.alerts[key] = a
			continue
		}

		if !crossed(a.Direction, price, a.TargetPrice) {
			continue
		}

		message := fmt.Sprintf("price alert: %s reached your target of $%s (current price $%s)",
			a.Coin, a.TargetPrice.StringFixed(4), price.StringFixed(4))
		if err := e.notifier.Notify(ctx, a.User, message); err != nil {
			e.log.Warn("failed to deliver alert notification",
				zap.String("user", a.User), zap.String("coin", a.Coin), zap.Error(err))
			continue // keep the alert armed, retry next sweep
		}

		if err := e.store.DeleteAlert(ctx, a.User, a.Coin); err != nil {
			e.log.Warn("failed to remove triggered alert",
				zap.String("user", a.User), zap.String("coin", a.Coin), zap.Error(err))
			continue
		}
		delete(e.alerts, key)
	}
}

func directionFor(price, target decimal.Decimal) Direction {
	if price.LessThan(target) {
		return DirectionRising
	}
	return DirectionFalling
}

func crossed(d Direction, price, target decimal.Decimal) bool {
	switch d {
	case DirectionRising:
		return price.GreaterThanOrEqual(target)
	case DirectionFalling:
		return price.LessThanOrEqual(target)
	default:
		return false
	}
}
