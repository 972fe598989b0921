package market

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/h2non/gock"

	"github.com/croplink/agrobot/internal/config"
)

func newTestProvider(t *testing.T) *httpProvider {
	t.Helper()

	provider := NewProvider(config.MarketConfig{
		BaseURL:     "https://api.example.com/resource",
		Timeout:     5 * time.Second,
		MaxAttempts: 1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	p := provider.(*httpProvider)
	gock.InterceptClient(p.client)
	t.Cleanup(gock.Off)
	return p
}

func TestPrices(t *testing.T) {
	p := newTestProvider(t)

	gock.New("https://api.example.com").
		Get("/resource/prices").
		Reply(200).
		JSON(map[string]any{
			"prices": []map[string]any{
				{"crop": "wheat", "unit": "quintal", "price": 2275.0, "change": 1.2, "market": "delhi"},
				{"crop": "onion", "unit": "quintal", "price": 1430.0, "change": -4.5, "market": "nashik"},
			},
		})

	prices, err := p.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("got %d prices, want 2", len(prices))
	}
	if prices[0].Crop != "wheat" || prices[0].Price != 2275.0 {
		t.Errorf("first price = %+v, want wheat at 2275", prices[0])
	}
	if prices[1].Change != -4.5 {
		t.Errorf("onion change = %v, want -4.5", prices[1].Change)
	}
}

func TestPricesClientError(t *testing.T) {
	p := newTestProvider(t)

	gock.New("https://api.example.com").
		Get("/resource/prices").
		Reply(403).
		BodyString(`{"message":"forbidden"}`)

	if _, err := p.Prices(context.Background()); err == nil {
		t.Fatal("Prices() error = nil, want error on 403")
	}
	if !gock.IsDone() {
		t.Error("expected exactly one request, client error must not retry")
	}
}

func TestPricesMalformedResponse(t *testing.T) {
	p := newTestProvider(t)

	gock.New("https://api.example.com").
		Get("/resource/prices").
		Reply(200).
		BodyString("not json")

	if _, err := p.Prices(context.Background()); err == nil {
		t.Fatal("Prices() error = nil, want parse error")
	}
}
