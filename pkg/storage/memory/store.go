package memory

import (
	"context"
	"sync"

	"coinledger/internal/alert"
	"coinledger/internal/ledger"

	"github.com/shopspring/decimal"
)

// Store is an in-memory implementation of every persistence interface the
// components consume. It backs unit tests and database-less runs; the
// postgres client is the durable counterpart.
type Store struct {
	mu         sync.Mutex
	portfolios map[string]*ledger.Portfolio
	trades     []ledger.Transaction
	alerts     map[string]alert.Alert
	prices     map[string]decimal.Decimal
}

func NewStore() *Store {
	return &Store{
		portfolios: make(map[string]*ledger.Portfolio),
		alerts:     make(map[string]alert.Alert),
		prices:     make(map[string]decimal.Decimal),
	}
}

func (s *Store) SavePortfolio(_ context.Context, user string, p *ledger.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[user] = p
	return nil
}

func (s *Store) SaveTrade(_ context.Context, user string, p *ledger.Portfolio, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[user] = p
	s.trades = append(s.trades, t)
	return nil
}

func (s *Store) SavePrice(_ context.Context, coinID string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[coinID] = price
	return nil
}

func (s *Store) SaveAlert(_ context.Context, a alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[a.Key()] = a
	return nil
}

func (s *Store) DeleteAlert(_ context.Context, user, coin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alerts, alert.Alert{User: user, Coin: coin}.Key())
	return nil
}

// Trades returns a copy of every trade passed to SaveTrade, in order.
func (s *Store) Trades() []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ledger.Transaction, len(s.trades))
	copy(out, s.trades)
	return out
}

// Alerts returns a copy of the persisted alert set keyed by user_coin.
func (s *Store) Alerts() map[string]alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]alert.Alert, len(s.alerts))
	for key, a := range s.alerts {
		out[key] = a
	}
	return out
}

// Prices returns a copy of the persisted price observations.
func (s *Store) Prices() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(s.prices))
	for coin, price := range s.prices {
		out[coin] = price
	}
	return out
}
