// Package market implements the market price provider HTTP client.
// Shaped like the weather client: short fibonacci backoff on transient
// failures, callers fall back to the latest stored snapshot.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/croplink/agrobot/internal/config"
)

// Price is one crop's market quote.
type Price struct {
	Crop      string  `json:"crop"`
	Unit      string  `json:"unit"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"` // percent vs previous quote
	MarketTag string  `json:"market"`
}

// Provider defines the market data collaborator contract.
type Provider interface {
	Prices(ctx context.Context) ([]Price, error)
}

type httpProvider struct {
	baseURL     string
	client      *http.Client
	maxAttempts uint64
	log         *slog.Logger
}

// NewProvider creates the HTTP-backed market price provider.
func NewProvider(cfg config.MarketConfig, log *slog.Logger) Provider {
	return &httpProvider{
		baseURL:     cfg.BaseURL,
		client:      &http.Client{Timeout: cfg.Timeout},
		maxAttempts: uint64(cfg.MaxAttempts),
		log:         log.With("component", "market_provider"),
	}
}

type pricesResponse struct {
	Prices []Price `json:"prices"`
}

func (p *httpProvider) Prices(ctx context.Context) ([]Price, error) {
	backoff := retry.WithMaxRetries(p.maxAttempts-1, retry.NewFibonacci(500*time.Millisecond))

	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/prices", nil)
		if err != nil {
			return err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("market API returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("market API returned status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market prices: %w", err)
	}

	var parsed pricesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse market prices response: %w", err)
	}

	p.log.DebugContext(ctx, "Fetched market prices", "count", len(parsed.Prices))
	return parsed.Prices, nil
}
