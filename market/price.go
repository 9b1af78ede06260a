// Package market fetches spot price snapshots for alert messages.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

const priceUnavailable = "Price N/A"

// PriceClient reads the Binance public spot ticker.
type PriceClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewPriceClient() *PriceClient {
	return &PriceClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.binance.com",
	}
}

// Snapshot returns a formatted price for the symbol, or "Price N/A" when the
// lookup fails. Alerts go out either way.
func (p *PriceClient) Snapshot(ctx context.Context, symbol string) string {
	if symbol == "" {
		symbol = "BTCUSDT"
	}

	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return priceUnavailable
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("Price lookup failed for %s: %v", symbol, err)
		return priceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Price lookup failed for %s: status %d", symbol, resp.StatusCode)
		return priceUnavailable
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return priceUnavailable
	}

	value, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return priceUnavailable
	}
	return fmt.Sprintf("$%.2f", value)
}
