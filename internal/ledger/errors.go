package ledger

import "errors"

var (
	// ErrNotFound is returned for any operation on an uninitialized portfolio.
	ErrNotFound = errors.New("portfolio not found")

	// ErrAlreadyInitialized is returned when initializing a user that already
	// has a portfolio (unless idempotent initialization is enabled).
	ErrAlreadyInitialized = errors.New("portfolio already exists")

	// ErrInsufficientFunds is returned when a buy exceeds the USD balance.
	ErrInsufficientFunds = errors.New("insufficient USD balance")

	// ErrInsufficientHoldings is returned when a sell exceeds the held amount.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrPriceUnavailable is returned when no price has ever been observed
	// for the requested coin.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInvalidArgument is returned for non-positive amounts.
	ErrInvalidArgument = errors.New("invalid argument")
)
