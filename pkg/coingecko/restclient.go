package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const coinQuery = "localization=false&tickers=false&market_data=true&community_data=false&developer_data=false&sparkline=false"

// Client is a thin REST client for the CoinGecko coin endpoint. It returns
// raw responses only; canonicalization is Transform's job so the fetch and
// the reduction stay independently testable.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchCoin requests the coin document for coinID and returns the response
// as received, headers included.
func (c *Client) FetchCoin(ctx context.Context, coinID string) (RawResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s?%s", c.baseURL, url.PathEscape(coinID), coinQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", "coinledger")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RawResponse{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawResponse{}, fmt.Errorf("reading body: %w", err)
	}

	raw := RawResponse{Status: resp.StatusCode, Body: body}
	for name, values := range resp.Header {
		for _, value := range values {
			raw.Headers = append(raw.Headers, Header{Name: name, Value: value})
		}
	}
	return raw, nil
}
