package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AlphaVantage fetches latest prices from the GLOBAL_QUOTE endpoint.
type AlphaVantage struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAlphaVantage creates a client. timeout bounds every request.
func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration) *AlphaVantage {
	return &AlphaVantage{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	ErrorMsg    string            `json:"Error Message"`
}

// GetPrice implements domain.PriceOracle.
func (a *AlphaVantage) GetPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var parsed globalQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	switch {
	case parsed.ErrorMsg != "":
		return 0, fmt.Errorf("quote API error: %s", parsed.ErrorMsg)
	case parsed.Note != "":
		return 0, fmt.Errorf("quote API throttled: %s", parsed.Note)
	case parsed.Information != "":
		return 0, fmt.Errorf("quote API throttled: %s", parsed.Information)
	}

	raw, ok := parsed.GlobalQuote["05. price"]
	if !ok || raw == "" {
		return 0, fmt.Errorf("price not found for symbol: %s", symbol)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q for %s: %w", raw, symbol, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %v for %s", price, symbol)
	}
	return price, nil
}
