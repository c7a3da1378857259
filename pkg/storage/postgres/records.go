package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioRecord is the durable USD balance per user.
type PortfolioRecord struct {
	User       string          `gorm:"primaryKey;type:text"`
	USDBalance decimal.Decimal `gorm:"type:numeric;not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PortfolioRecord) TableName() string {
	return "portfolio"
}

// HoldingRecord is the durable held amount of one coin for one user. Zero
// amounts are kept; an absent row means the coin was never held.
type HoldingRecord struct {
	User   string          `gorm:"primaryKey;type:text"`
	CoinID string          `gorm:"primaryKey;type:text"`
	Amount decimal.Decimal `gorm:"type:numeric;not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (HoldingRecord) TableName() string {
	return "holding"
}

// TransactionRecord is one entry of a user's append-only trade log.
// Insertion order (ID) is chronological order within a user.
type TransactionRecord struct {
	ID uint `gorm:"primaryKey"`

	User       string          `gorm:"type:text;not null;index:idx_tx_user"`
	Type       string          `gorm:"type:varchar(4);not null"`
	CoinID     string          `gorm:"type:text;not null"`
	Amount     decimal.Decimal `gorm:"type:numeric;not null"`
	Price      decimal.Decimal `gorm:"type:numeric;not null"`
	TotalValue decimal.Decimal `gorm:"type:numeric;not null"`
	Timestamp  int64           `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (TransactionRecord) TableName() string {
	return "ledger_transaction"
}

// AlertRecord is a durable price alert, one per (user, coin).
type AlertRecord struct {
	User        string          `gorm:"primaryKey;type:text"`
	CoinID      string          `gorm:"primaryKey;type:text"`
	TargetPrice decimal.Decimal `gorm:"type:numeric;not null"`
	Direction   int16           `gorm:"not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AlertRecord) TableName() string {
	return "alert"
}

// PriceRecord is the last observed price for one coin.
type PriceRecord struct {
	CoinID    string          `gorm:"primaryKey;type:text"`
	LastPrice decimal.Decimal `gorm:"type:numeric;not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PriceRecord) TableName() string {
	return "price_observation"
}
