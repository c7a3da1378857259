package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/coins/bitcoin" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("market_data"); got != "true" {
			t.Errorf("expected market_data=true, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected Accept header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"market_data":{"current_price":{"usd":50000}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := client.FetchCoin(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Status != http.StatusOK {
		t.Fatalf("unexpected status: %d", raw.Status)
	}
	if len(raw.Body) == 0 {
		t.Fatal("expected non-empty body")
	}
	if len(raw.Headers) == 0 {
		t.Fatal("expected raw headers to be captured")
	}
}

func TestFetchCoinErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"coin not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	raw, err := client.FetchCoin(context.Background(), "no-such-coin")
	if err != nil {
		t.Fatalf("fetch itself should not fail on an error status: %v", err)
	}
	if raw.Status != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", raw.Status)
	}
}
