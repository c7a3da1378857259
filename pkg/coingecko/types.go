package coingecko

import "github.com/shopspring/decimal"

// Header is a single HTTP header as seen by the replicated runtime.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawResponse is an HTTP response before canonicalization: exactly what one
// replica received from the feed, including connection-specific headers that
// may differ between replicas.
type RawResponse struct {
	Status  int      `json:"status"`
	Headers []Header `json:"headers"`
	Body    []byte   `json:"body"`
}

// coinDocument covers both body shapes the transform accepts: the full
// CoinGecko coin document and the already-canonical reduced form.
type coinDocument struct {
	USD        *decimal.Decimal `json:"usd"`
	MarketData *struct {
		CurrentPrice struct {
			USD *decimal.Decimal `json:"usd"`
		} `json:"current_price"`
	} `json:"market_data"`
}

// canonicalBody is the fixed body shape every replica must agree on.
type canonicalBody struct {
	USD decimal.Decimal `json:"usd"`
}
