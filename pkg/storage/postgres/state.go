package postgres

import (
	"context"
	"fmt"

	"coinledger/internal/alert"
	"coinledger/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavePortfolio upserts the balance and holdings for one user. Used when a
// portfolio is first initialized.
func (p *PostgresClient) SavePortfolio(ctx context.Context, user string, pf *ledger.Portfolio) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return savePortfolioTx(tx, user, pf)
	})
}

// SaveTrade writes the post-trade portfolio state and appends the new
// transaction in a single database transaction, matching the all-or-nothing
// semantics of the ledger operation it persists.
func (p *PostgresClient) SaveTrade(ctx context.Context, user string, pf *ledger.Portfolio, t ledger.Transaction) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := savePortfolioTx(tx, user, pf); err != nil {
			return err
		}
		record := TransactionRecord{
			User:       user,
			Type:       string(t.Type),
			CoinID:     t.CoinID,
			Amount:     t.Amount,
			Price:      t.Price,
			TotalValue: t.TotalValue,
			Timestamp:  t.Timestamp,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
}

func savePortfolioTx(tx *gorm.DB, user string, pf *ledger.Portfolio) error {
	record := PortfolioRecord{User: user, USDBalance: pf.USDBalance}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user"}},
		DoUpdates: clause.AssignmentColumns([]string{"usd_balance", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert portfolio: %w", err)
	}

	for coin, amount := range pf.Holdings {
		holding := HoldingRecord{User: user, CoinID: coin, Amount: amount}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user"}, {Name: "coin_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&holding).Error
		if err != nil {
			return fmt.Errorf("upsert holding %s: %w", coin, err)
		}
	}
	return nil
}

// SavePrice upserts the last observed price for one coin.
func (p *PostgresClient) SavePrice(ctx context.Context, coinID string, price decimal.Decimal) error {
	record := PriceRecord{CoinID: coinID, LastPrice: price}
	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "coin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_price", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert price %s: %w", coinID, err)
	}
	return nil
}

// SaveAlert upserts the alert for (user, coin).
func (p *PostgresClient) SaveAlert(ctx context.Context, a alert.Alert) error {
	record := AlertRecord{
		User:        a.User,
		CoinID:      a.Coin,
		TargetPrice: a.TargetPrice,
		Direction:   int16(a.Direction),
	}
	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user"}, {Name: "coin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_price", "direction", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert alert %s/%s: %w", a.User, a.Coin, err)
	}
	return nil
}

// DeleteAlert removes the alert for (user, coin), if any.
func (p *PostgresClient) DeleteAlert(ctx context.Context, user, coin string) error {
	err := p.DB.WithContext(ctx).
		Where(`"user" = ? AND coin_id = ?`, user, coin).
		Delete(&AlertRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete alert %s/%s: %w", user, coin, err)
	}
	return nil
}

// LoadPortfolios reconstructs every portfolio from the durable tables,
// transaction logs in insertion order.
func (p *PostgresClient) LoadPortfolios(ctx context.Context) (map[string]*ledger.Portfolio, error) {
	var portfolios []PortfolioRecord
	if err := p.DB.WithContext(ctx).Find(&portfolios).Error; err != nil {
		return nil, fmt.Errorf("load portfolios: %w", err)
	}

	out := make(map[string]*ledger.Portfolio, len(portfolios))
	for _, record := range portfolios {
		out[record.User] = &ledger.Portfolio{
			USDBalance: record.USDBalance,
			Holdings:   make(map[string]decimal.Decimal),
		}
	}

	var holdings []HoldingRecord
	if err := p.DB.WithContext(ctx).Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	for _, record := range holdings {
		if pf, ok := out[record.User]; ok {
			pf.Holdings[record.CoinID] = record.Amount
		}
	}

	var transactions []TransactionRecord
	if err := p.DB.WithContext(ctx).Order("id asc").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	for _, record := range transactions {
		pf, ok := out[record.User]
		if !ok {
			continue
		}
		pf.Transactions = append(pf.Transactions, ledger.Transaction{
			Type:       ledger.TransactionType(record.Type),
			CoinID:     record.CoinID,
			Amount:     record.Amount,
			Price:      record.Price,
			TotalValue: record.TotalValue,
			Timestamp:  record.Timestamp,
		})
	}

	return out, nil
}

// LoadAlerts returns every persisted alert.
func (p *PostgresClient) LoadAlerts(ctx context.Context) ([]alert.Alert, error) {
	var records []AlertRecord
	if err := p.DB.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	out := make([]alert.Alert, 0, len(records))
	for _, record := range records {
		out = append(out, alert.Alert{
			User:        record.User,
			Coin:        record.CoinID,
			TargetPrice: record.TargetPrice,
			Direction:   alert.Direction(record.Direction),
		})
	}
	return out, nil
}

// LoadPrices returns the persisted price observations keyed by coin ID.
func (p *PostgresClient) LoadPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var records []PriceRecord
	if err := p.DB.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(records))
	for _, record := range records {
		out[record.CoinID] = record.LastPrice
	}
	return out, nil
}
