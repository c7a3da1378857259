package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coinledger/internal/alert"
	"coinledger/internal/ledger"
	"coinledger/internal/market"
	"coinledger/internal/pricefeed"
	"coinledger/pkg/coingecko"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the externally callable operation set. Each method maps to
// exactly one component call; the only logic here is coin ID normalization
// and formatting mutating results into human-readable status strings. The
// components underneath keep typed errors, so nothing below this boundary
// depends on message wording.
type Service struct {
	ledger   *ledger.Ledger
	cache    *market.PriceCache
	alerts   *alert.Engine
	ingestor *pricefeed.Ingestor
	log      *zap.Logger
}

func New(l *ledger.Ledger, cache *market.PriceCache, alerts *alert.Engine,
	ingestor *pricefeed.Ingestor, log *zap.Logger) *Service {
	return &Service{
		ledger:   l,
		cache:    cache,
		alerts:   alerts,
		ingestor: ingestor,
		log:      log,
	}
}

// InitializePortfolio creates a portfolio for user. A nil balance means the
// configured default allowance.
func (s *Service) InitializePortfolio(ctx context.Context, user string, initialBalance *decimal.Decimal) string {
	err := s.ledger.Initialize(ctx, user, initialBalance)
	switch {
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		return fmt.Sprintf("Portfolio for user %s already exists", user)
	case err != nil:
		return fmt.Sprintf("Failed to initialize portfolio: %v", err)
	}

	p, getErr := s.ledger.GetPortfolio(user)
	if getErr != nil {
		return fmt.Sprintf("Failed to initialize portfolio: %v", getErr)
	}
	return fmt.Sprintf("Portfolio initialized for %s with $%s USD", user, p.USDBalance.StringFixed(2))
}

// BuyCryptocurrency spends usdAmount of the user's balance on coinID at the
// last cached price.
func (s *Service) BuyCryptocurrency(ctx context.Context, user, coinID string, usdAmount decimal.Decimal) string {
	coin := coingecko.NormalizeCoinID(coinID)

	t, err := s.ledger.Buy(ctx, user, coin, usdAmount)
	if err != nil {
		return tradeFailure("buy", coin, err)
	}
	return fmt.Sprintf("Successfully bought %s %s for $%s USD",
		t.Amount.StringFixed(6), coin, t.TotalValue.StringFixed(2))
}

// SellCryptocurrency sells amount of coinID at the last cached price.
func (s *Service) SellCryptocurrency(ctx context.Context, user, coinID string, amount decimal.Decimal) string {
	coin := coingecko.NormalizeCoinID(coinID)

	t, err := s.ledger.Sell(ctx, user, coin, amount)
	if err != nil {
		return tradeFailure("sell", coin, err)
	}
	return fmt.Sprintf("Successfully sold %s %s for $%s USD",
		t.Amount.StringFixed(6), coin, t.TotalValue.StringFixed(2))
}

// GetPortfolio returns a snapshot of the user's portfolio.
func (s *Service) GetPortfolio(user string) (*ledger.Portfolio, error) {
	return s.ledger.GetPortfolio(user)
}

// GetPortfolioValue returns the balance plus the cache-priced holdings.
func (s *Service) GetPortfolioValue(user string) (decimal.Decimal, error) {
	return s.ledger.GetPortfolioValue(user)
}

// SetAlert upserts a price alert for (user, coin).
func (s *Service) SetAlert(ctx context.Context, user, coinID string, targetPrice decimal.Decimal) string {
	coin := coingecko.NormalizeCoinID(coinID)

	if err := s.alerts.Set(ctx, user, coin, targetPrice); err != nil {
		return fmt.Sprintf("Failed to set alert: %v", err)
	}
	return fmt.Sprintf("Alert set for %s when %s reaches $%s", user, coin, targetPrice.StringFixed(2))
}

// GetAlerts returns the active alert set.
func (s *Service) GetAlerts() []alert.Alert {
	return s.alerts.All()
}

// CheckAlerts evaluates every alert against the price cache. Its only
// observable effects are the emitted notifications and alert removals.
func (s *Service) CheckAlerts(ctx context.Context) {
	s.alerts.Check(ctx)
}

// GetPriceHistory dumps the price cache, sorted by coin ID.
func (s *Service) GetPriceHistory() []market.PriceObservation {
	return s.cache.All()
}

// GetSupportedCryptocurrencies lists the advertised coin IDs.
func (s *Service) GetSupportedCryptocurrencies() []string {
	return coingecko.SupportedCoins()
}

// GetCryptoPrice ingests the current price for coinID and reports it.
func (s *Service) GetCryptoPrice(ctx context.Context, coinID string) string {
	coin := coingecko.NormalizeCoinID(coinID)

	price, err := s.ingestor.Ingest(ctx, coin)
	if err != nil {
		return fmt.Sprintf("Error: failed to get price for %s: %v", coin, err)
	}
	return fmt.Sprintf("$%s", price.StringFixed(4))
}

// GetICPPrice ingests and reports the Internet Computer token price.
func (s *Service) GetICPPrice(ctx context.Context) string {
	coin := coingecko.CoinICP

	price, err := s.ingestor.Ingest(ctx, coin)
	if err != nil {
		return fmt.Sprintf("Error: failed to get price for %s: %v", coin, err)
	}
	return fmt.Sprintf("ICP Price: $%s", price.StringFixed(4))
}

func tradeFailure(op, coin string, err error) string {
	if errors.Is(err, ledger.ErrPriceUnavailable) {
		return fmt.Sprintf("Failed to %s %s: no observed price, fetch it first", op, coin)
	}
	return fmt.Sprintf("Failed to %s %s: %v", op, coin, err)
}

// StartAlertSweeper periodically refreshes the price of every alerted coin
// through the ingestion pipeline and then evaluates the alert set. It runs
// until ctx is canceled.
func (s *Service) StartAlertSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			s.sweepOnce(ctx)

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Service) sweepOnce(ctx context.Context) {
	seen := map[string]bool{}
	for _, a := range s.alerts.All() {
		if seen[a.Coin] {
			continue
		}
		seen[a.Coin] = true

		if _, err := s.ingestor.Ingest(ctx, a.Coin); err != nil {
			s.log.Warn("failed to refresh alerted coin", zap.String("coin", a.Coin), zap.Error(err))
		}
	}
	s.alerts.Check(ctx)
}
