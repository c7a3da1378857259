package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInitialBalance is the starting USD allowance when none is given.
var DefaultInitialBalance = decimal.NewFromInt(10000)

// Store persists ledger state. SaveTrade must write the portfolio state and
// the new transaction atomically.
type Store interface {
	SavePortfolio(ctx context.Context, user string, p *Portfolio) error
	SaveTrade(ctx context.Context, user string, p *Portfolio, t Transaction) error
}

// PriceSource is the read side of the price cache.
type PriceSource interface {
	Last(coinID string) (decimal.Decimal, bool)
}

// Options tune ledger behavior. The zero value gives the default initial
// balance, hard-error on re-initialization and the wall clock.
type Options struct {
	InitialBalance decimal.Decimal
	// IdempotentInit turns Initialize on an existing user into a no-op
	// instead of an ErrAlreadyInitialized failure.
	IdempotentInit bool
	// Now supplies logical time for transaction timestamps. Injected so
	// tests and replicas can run against a deterministic clock.
	Now func() time.Time
}

// Ledger owns every portfolio and is the sole mutator of financial state.
// Operations on the same user are linearized under the ledger mutex; each
// mutating operation is a single check-then-commit transition with no
// observable intermediate state.
type Ledger struct {
	mu         sync.Mutex
	portfolios map[string]*Portfolio

	store  Store
	prices PriceSource
	opts   Options
}

func New(store Store, prices PriceSource, opts Options) *Ledger {
	if opts.InitialBalance.IsZero() {
		opts.InitialBalance = DefaultInitialBalance
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{
		portfolios: make(map[string]*Portfolio),
		store:      store,
		prices:     prices,
		opts:       opts,
	}
}

// Restore seeds the ledger from previously persisted portfolios. Called once
// at startup before the ledger is shared.
func (l *Ledger) Restore(portfolios map[string]*Portfolio) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for user, p := range portfolios {
		l.portfolios[user] = p
	}
}

// Initialize creates a portfolio for user with the given starting balance
// (nil means the configured default) and empty holdings and history.
func (l *Ledger) Initialize(ctx context.Context, user string, initialBalance *decimal.Decimal) error {
	balance := l.opts.InitialBalance
	if initialBalance != nil {
		if initialBalance.IsNegative() {
			return fmt.Errorf("%w: initial balance %s is negative", ErrInvalidArgument, initialBalance)
		}
		balance = *initialBalance
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.portfolios[user]; ok {
		if l.opts.IdempotentInit {
			return nil
		}
		return fmt.Errorf("%w: user %s", ErrAlreadyInitialized, user)
	}

	p := &Portfolio{
		USDBalance: balance,
		Holdings:   make(map[string]decimal.Decimal),
	}
	if err := l.store.SavePortfolio(ctx, user, p); err != nil {
		return fmt.Errorf("persist portfolio: %w", err)
	}
	l.portfolios[user] = p
	return nil
}

// Buy debits usdAmount from the user's balance, credits usdAmount/price of
// coinID and appends a Buy transaction, atomically. The price comes from the
// price cache and the trade fails if the coin was never observed.
func (l *Ledger) Buy(ctx context.Context, user, coinID string, usdAmount decimal.Decimal) (Transaction, error) {
	if usdAmount.LessThanOrEqual(decimal.Zero) {
		return Transaction{}, fmt.Errorf("%w: amount %s must be positive", ErrInvalidArgument, usdAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[user]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: user %s", ErrNotFound, user)
	}

	price, ok := l.prices.Last(coinID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, coinID)
	}

	if usdAmount.GreaterThan(p.USDBalance) {
		return Transaction{}, fmt.Errorf("%w: have $%s, need $%s",
			ErrInsufficientFunds, p.USDBalance.StringFixed(2), usdAmount.StringFixed(2))
	}

	amount := usdAmount.Div(price)
	t := Transaction{
		Type:       Buy,
		CoinID:     coinID,
		Amount:     amount,
		Price:      price,
		TotalValue: usdAmount,
		Timestamp:  l.nextTimestamp(p),
	}

	next := p.clone()
	next.USDBalance = next.USDBalance.Sub(usdAmount)
	next.Holdings[coinID] = next.Holding(coinID).Add(amount)
	next.Transactions = append(next.Transactions, t)

	if err := l.store.SaveTrade(ctx, user, next, t); err != nil {
		return Transaction{}, fmt.Errorf("persist trade: %w", err)
	}
	l.portfolios[user] = next
	return t, nil
}

// Sell credits amount*price to the user's balance, debits the holding and
// appends a Sell transaction, atomically. A holding that reaches exactly
// zero stays in the map as a zero entry.
func (l *Ledger) Sell(ctx context.Context, user, coinID string, amount decimal.Decimal) (Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Transaction{}, fmt.Errorf("%w: amount %s must be positive", ErrInvalidArgument, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[user]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: user %s", ErrNotFound, user)
	}

	held := p.Holding(coinID)
	if amount.GreaterThan(held) {
		return Transaction{}, fmt.Errorf("%w: have %s %s, want to sell %s",
			ErrInsufficientHoldings, held.StringFixed(6), coinID, amount.StringFixed(6))
	}

	price, ok := l.prices.Last(coinID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, coinID)
	}

	usdValue := amount.Mul(price)
	t := Transaction{
		Type:       Sell,
		CoinID:     coinID,
		Amount:     amount,
		Price:      price,
		TotalValue: usdValue,
		Timestamp:  l.nextTimestamp(p),
	}

	next := p.clone()
	next.USDBalance = next.USDBalance.Add(usdValue)
	next.Holdings[coinID] = held.Sub(amount)
	next.Transactions = append(next.Transactions, t)

	if err := l.store.SaveTrade(ctx, user, next, t); err != nil {
		return Transaction{}, fmt.Errorf("persist trade: %w", err)
	}
	l.portfolios[user] = next
	return t, nil
}

// GetPortfolio returns a snapshot copy of the user's portfolio.
func (l *Ledger) GetPortfolio(user string) (*Portfolio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[user]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, user)
	}
	return p.clone(), nil
}

// GetPortfolioValue returns the USD balance plus the cache-priced value of
// every holding. A coin with no cached price contributes zero rather than
// failing the call.
func (l *Ledger) GetPortfolioValue(user string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[user]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: user %s", ErrNotFound, user)
	}

	total := p.USDBalance
	for coin, amount := range p.Holdings {
		if price, ok := l.prices.Last(coin); ok {
			total = total.Add(amount.Mul(price))
		}
	}
	return total, nil
}

// nextTimestamp clamps the clock so timestamps never go backwards within a
// user's transaction log.
func (l *Ledger) nextTimestamp(p *Portfolio) int64 {
	ts := l.opts.Now().UnixNano()
	if n := len(p.Transactions); n > 0 && ts < p.Transactions[n-1].Timestamp {
		ts = p.Transactions[n-1].Timestamp
	}
	return ts
}
