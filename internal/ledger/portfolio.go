package ledger

import "github.com/shopspring/decimal"

// TransactionType marks a transaction as a buy or a sell.
type TransactionType string

const (
	Buy  TransactionType = "buy"
	Sell TransactionType = "sell"
)

// Transaction is an immutable record of a single executed trade.
// TotalValue equals Amount * Price at execution time. Timestamp is the
// logical time of application, monotonically non-decreasing within a user's
// log (nanoseconds since epoch).
type Transaction struct {
	Type       TransactionType
	CoinID     string
	Amount     decimal.Decimal
	Price      decimal.Decimal
	TotalValue decimal.Decimal
	Timestamp  int64
}

// Portfolio is a user's USD balance, per-coin holdings and trade history.
// An absent holding entry means zero. The balance and every holding stay
// non-negative at all times; a rejected trade never applies partially.
type Portfolio struct {
	USDBalance   decimal.Decimal
	Holdings     map[string]decimal.Decimal
	Transactions []Transaction
}

// Holding returns the held amount for coinID, zero if absent.
func (p *Portfolio) Holding(coinID string) decimal.Decimal {
	if amount, ok := p.Holdings[coinID]; ok {
		return amount
	}
	return decimal.Zero
}

// clone returns a deep copy. Mutating operations work on a clone and swap it
// in only after the whole trade (including persistence) succeeded, which is
// what makes each operation all-or-nothing.
func (p *Portfolio) clone() *Portfolio {
	cp := &Portfolio{
		USDBalance:   p.USDBalance,
		Holdings:     make(map[string]decimal.Decimal, len(p.Holdings)),
		Transactions: make([]Transaction, len(p.Transactions)),
	}
	for coin, amount := range p.Holdings {
		cp.Holdings[coin] = amount
	}
	copy(cp.Transactions, p.Transactions)
	return cp
}
