package ledger_test

import (
	"context"
	"testing"
	"time"

	"coinledger/internal/ledger"
	"coinledger/pkg/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices map[string]decimal.Decimal

func (s stubPrices) Last(coinID string) (decimal.Decimal, bool) {
	price, ok := s[coinID]
	return price, ok
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, prices stubPrices, opts ledger.Options) *ledger.Ledger {
	t.Helper()
	if opts.Now == nil {
		base := time.Unix(1_700_000_000, 0)
		opts.Now = func() time.Time { return base }
	}
	return ledger.New(memory.NewStore(), prices, opts)
}

func TestBuySellScenario(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))

	buy, err := l.Buy(ctx, "alice", "bitcoin", dec("500"))
	require.NoError(t, err)
	require.True(t, buy.Amount.Equal(dec("0.01")), "bought %s", buy.Amount)
	require.True(t, buy.TotalValue.Equal(dec("500")), "total %s", buy.TotalValue)

	p, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	assert.True(t, p.USDBalance.Equal(dec("500")), "balance %s", p.USDBalance)
	assert.True(t, p.Holding("bitcoin").Equal(dec("0.01")), "holding %s", p.Holding("bitcoin"))
	assert.Len(t, p.Transactions, 1)
	assert.Equal(t, ledger.Buy, p.Transactions[0].Type)

	// Selling the same amount at the unchanged price restores the balance.
	sell, err := l.Sell(ctx, "alice", "bitcoin", dec("0.01"))
	require.NoError(t, err)
	require.True(t, sell.TotalValue.Equal(dec("500")), "total %s", sell.TotalValue)

	p, err = l.GetPortfolio("alice")
	require.NoError(t, err)
	assert.True(t, p.USDBalance.Equal(dec("1000")), "balance %s", p.USDBalance)

	// The holding drained to zero stays as a zero entry.
	held, ok := p.Holdings["bitcoin"]
	require.True(t, ok, "zero holding entry should remain")
	assert.True(t, held.IsZero(), "holding %s", held)
	assert.Len(t, p.Transactions, 2)
}

func TestBuyBoundary(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"ethereum": dec("2500")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("100")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))

	// Exactly the full balance succeeds and leaves zero.
	_, err := l.Buy(ctx, "alice", "ethereum", dec("100"))
	require.NoError(t, err)

	p, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	require.True(t, p.USDBalance.IsZero(), "balance %s", p.USDBalance)

	// One cent more than the (now zero) balance fails and changes nothing.
	_, err = l.Buy(ctx, "alice", "ethereum", dec("0.01"))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	p, err = l.GetPortfolio("alice")
	require.NoError(t, err)
	assert.True(t, p.USDBalance.IsZero())
	assert.Len(t, p.Transactions, 1)
}

func TestBuyRejections(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))

	_, err := l.Buy(ctx, "alice", "bitcoin", dec("0"))
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = l.Buy(ctx, "alice", "bitcoin", dec("-5"))
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = l.Buy(ctx, "nobody", "bitcoin", dec("10"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = l.Buy(ctx, "alice", "dogecoin", dec("10"))
	assert.ErrorIs(t, err, ledger.ErrPriceUnavailable)

	// None of the rejections touched the portfolio.
	p, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	assert.True(t, p.USDBalance.Equal(dec("1000")))
	assert.Empty(t, p.Transactions)
}

func TestSellRejections(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))

	_, err := l.Sell(ctx, "alice", "bitcoin", dec("0"))
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)

	// Never held the coin at all.
	_, err = l.Sell(ctx, "alice", "bitcoin", dec("0.5"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientHoldings)

	_, err = l.Buy(ctx, "alice", "bitcoin", dec("500"))
	require.NoError(t, err)

	// More than held.
	_, err = l.Sell(ctx, "alice", "bitcoin", dec("0.02"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientHoldings)

	_, err = l.Sell(ctx, "nobody", "bitcoin", dec("0.01"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("default balance", func(t *testing.T) {
		l := newTestLedger(t, stubPrices{}, ledger.Options{})
		require.NoError(t, l.Initialize(ctx, "alice", nil))

		p, err := l.GetPortfolio("alice")
		require.NoError(t, err)
		assert.True(t, p.USDBalance.Equal(ledger.DefaultInitialBalance), "balance %s", p.USDBalance)
		assert.Empty(t, p.Holdings)
		assert.Empty(t, p.Transactions)
	})

	t.Run("already initialized", func(t *testing.T) {
		l := newTestLedger(t, stubPrices{}, ledger.Options{})
		require.NoError(t, l.Initialize(ctx, "alice", nil))
		assert.ErrorIs(t, l.Initialize(ctx, "alice", nil), ledger.ErrAlreadyInitialized)
	})

	t.Run("idempotent option", func(t *testing.T) {
		l := newTestLedger(t, stubPrices{}, ledger.Options{IdempotentInit: true})
		balance := dec("250")
		require.NoError(t, l.Initialize(ctx, "alice", &balance))
		require.NoError(t, l.Initialize(ctx, "alice", nil))

		p, err := l.GetPortfolio("alice")
		require.NoError(t, err)
		assert.True(t, p.USDBalance.Equal(dec("250")), "second init must not reset the balance")
	})

	t.Run("negative balance rejected", func(t *testing.T) {
		l := newTestLedger(t, stubPrices{}, ledger.Options{})
		balance := dec("-1")
		assert.ErrorIs(t, l.Initialize(ctx, "alice", &balance), ledger.ErrInvalidArgument)
	})
}

func TestGetPortfolioValue(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000"), "ethereum": dec("2500")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "carol", &balance))
	_, err := l.Buy(ctx, "carol", "bitcoin", dec("500"))
	require.NoError(t, err)

	value, err := l.GetPortfolioValue("carol")
	require.NoError(t, err)
	require.True(t, value.Equal(dec("1000")), "value %s", value)

	// A coin that loses its cache entry contributes zero, not an error.
	delete(prices, "bitcoin")
	value, err = l.GetPortfolioValue("carol")
	require.NoError(t, err)
	require.True(t, value.Equal(dec("500")), "value %s", value)

	_, err = l.GetPortfolioValue("nobody")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000")}

	times := []time.Time{
		time.Unix(100, 0),
		time.Unix(50, 0), // clock stepped backwards
		time.Unix(200, 0),
	}
	i := 0
	l := ledger.New(memory.NewStore(), prices, ledger.Options{
		Now: func() time.Time { t := times[i]; i++; return t },
	})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))

	for j := 0; j < 3; j++ {
		_, err := l.Buy(ctx, "alice", "bitcoin", dec("10"))
		require.NoError(t, err)
	}

	p, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	require.Len(t, p.Transactions, 3)
	for j := 1; j < len(p.Transactions); j++ {
		assert.GreaterOrEqual(t, p.Transactions[j].Timestamp, p.Transactions[j-1].Timestamp)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	prices := stubPrices{"bitcoin": dec("50000")}
	l := newTestLedger(t, prices, ledger.Options{})

	balance := dec("1000")
	require.NoError(t, l.Initialize(ctx, "alice", &balance))
	_, err := l.Buy(ctx, "alice", "bitcoin", dec("500"))
	require.NoError(t, err)

	// Mutating the returned snapshot must not leak into ledger state.
	p, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	p.Holdings["bitcoin"] = dec("999")
	p.USDBalance = dec("0")

	fresh, err := l.GetPortfolio("alice")
	require.NoError(t, err)
	assert.True(t, fresh.USDBalance.Equal(dec("500")))
	assert.True(t, fresh.Holding("bitcoin").Equal(dec("0.01")))
}
