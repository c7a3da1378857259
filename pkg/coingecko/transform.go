package coingecko

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ErrPriceFeed classifies every feed failure: transport errors, non-200
// statuses and transform rejections of malformed bodies.
var ErrPriceFeed = errors.New("price feed error")

const contentTypeJSON = "application/json"

// Transform reduces a raw feed response to its canonical form.
//
// Every replica validating the outcall invokes this independently, possibly
// on byte-different raw responses (header order, date headers, connection
// metadata, body whitespace), and the outputs must be byte-identical for the
// call to be admitted. It is therefore a pure function: no clock, no
// randomness, no I/O, and its failure decision is just as deterministic as
// its success path.
//
// All headers are dropped except a fixed Content-Type; a non-200 response
// keeps its status with an empty body; a 200 body is reduced to the single
// USD spot price re-serialized in a fixed shape. Applying Transform to its
// own output yields the same output.
func Transform(raw RawResponse) (RawResponse, error) {
	out := RawResponse{
		Status:  raw.Status,
		Headers: []Header{{Name: "Content-Type", Value: contentTypeJSON}},
	}
	if raw.Status != http.StatusOK {
		return out, nil
	}

	price, err := parsePrice(raw.Body)
	if err != nil {
		return RawResponse{}, err
	}

	body, err := json.Marshal(canonicalBody{USD: price})
	if err != nil {
		return RawResponse{}, fmt.Errorf("%w: encode canonical body: %v", ErrPriceFeed, err)
	}
	out.Body = body
	return out, nil
}

// CanonicalPrice extracts the price from a canonical (or raw 200) body.
func CanonicalPrice(body []byte) (decimal.Decimal, error) {
	return parsePrice(body)
}

// parsePrice pulls the USD spot price out of either the full CoinGecko coin
// document or the canonical reduced form. Anything else is a deterministic
// ErrPriceFeed failure.
func parsePrice(body []byte) (decimal.Decimal, error) {
	var doc coinDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: malformed body: %v", ErrPriceFeed, err)
	}

	var price *decimal.Decimal
	switch {
	case doc.USD != nil:
		price = doc.USD
	case doc.MarketData != nil && doc.MarketData.CurrentPrice.USD != nil:
		price = doc.MarketData.CurrentPrice.USD
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: price data not found in response", ErrPriceFeed)
	}

	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, fmt.Errorf("%w: non-positive price %s", ErrPriceFeed, price)
	}
	return *price, nil
}
