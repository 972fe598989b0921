// Package weather implements the weather provider HTTP client. Callers
// treat failures as a signal to fall back to the most recent stored
// snapshot; nothing here retries beyond a short backoff.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/croplink/agrobot/internal/config"
)

// Conditions describes current weather at a location.
type Conditions struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	ObservedAt  time.Time `json:"observed_at"`
}

// DayForecast is one day of forecast data.
type DayForecast struct {
	Date       string  `json:"date"`
	MinTemp    float64 `json:"min_temp"`
	MaxTemp    float64 `json:"max_temp"`
	Condition  string  `json:"condition"`
	RainChance float64 `json:"rain_chance"`
}

// Provider defines the weather collaborator contract.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*Conditions, error)
	Forecast(ctx context.Context, lat, lon float64, days int) ([]DayForecast, error)
}

type httpProvider struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxAttempts uint64
	log         *slog.Logger
}

// NewProvider creates the HTTP-backed weather provider.
func NewProvider(cfg config.WeatherConfig, log *slog.Logger) Provider {
	return &httpProvider{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: cfg.Timeout},
		maxAttempts: uint64(cfg.MaxAttempts),
		log:         log.With("component", "weather_provider"),
	}
}

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	DT int64 `json:"dt"`
}

func (p *httpProvider) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	query.Set("units", "metric")
	query.Set("appid", p.apiKey)

	var body []byte
	err := p.fetch(ctx, p.baseURL+"/weather?"+query.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	var parsed currentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse current weather response: %w", err)
	}

	conditions := &Conditions{
		Temperature: parsed.Main.Temp,
		Humidity:    parsed.Main.Humidity,
		WindSpeed:   parsed.Wind.Speed,
		ObservedAt:  time.Unix(parsed.DT, 0).UTC(),
	}
	if len(parsed.Weather) > 0 {
		conditions.Condition = parsed.Weather[0].Main
		conditions.Description = parsed.Weather[0].Description
	}

	p.log.DebugContext(ctx, "Fetched current weather",
		"lat", lat, "lon", lon, "condition", conditions.Condition)
	return conditions, nil
}

type forecastResponse struct {
	List []struct {
		DT   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		POP float64 `json:"pop"`
	} `json:"list"`
}

func (p *httpProvider) Forecast(ctx context.Context, lat, lon float64, days int) ([]DayForecast, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	query.Set("cnt", strconv.Itoa(days))
	query.Set("units", "metric")
	query.Set("appid", p.apiKey)

	var body []byte
	err := p.fetch(ctx, p.baseURL+"/forecast/daily?"+query.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var parsed forecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	forecast := make([]DayForecast, 0, len(parsed.List))
	for _, day := range parsed.List {
		df := DayForecast{
			Date:       time.Unix(day.DT, 0).UTC().Format("2006-01-02"),
			MinTemp:    day.Temp.Min,
			MaxTemp:    day.Temp.Max,
			RainChance: day.POP,
		}
		if len(day.Weather) > 0 {
			df.Condition = day.Weather[0].Main
		}
		forecast = append(forecast, df)
	}

	p.log.DebugContext(ctx, "Fetched forecast", "lat", lat, "lon", lon, "days", len(forecast))
	return forecast, nil
}

// fetch performs a GET with fibonacci backoff on 5xx responses and
// transport errors. 4xx responses fail immediately.
func (p *httpProvider) fetch(ctx context.Context, rawURL string, out *[]byte) error {
	backoff := retry.WithMaxRetries(p.maxAttempts-1, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("weather API returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("weather API returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		*out = body
		return nil
	})
}
