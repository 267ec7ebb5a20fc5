package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// Client fetches weather data for a city from WeatherAPI.com.
type Client struct {
	apiKey      string
	baseURL     string
	historyDays int
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
	log         *zap.Logger
}

// NewClient creates a WeatherAPI client. historyDays controls how many past
// days of hourly history are fetched per city in addition to current
// conditions (0 = current only).
func NewClient(client *http.Client, apiKey, baseURL string, historyDays int, log *zap.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		historyDays: historyDays,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		log:     log,
	}
}

// Fetch retrieves current conditions (and, when configured, hourly history)
// for a city and normalizes everything into observation records.
func (c *Client) Fetch(ctx context.Context, city string) ([]weather.Observation, error) {
	current, err := c.FetchCurrent(ctx, city)
	if err != nil {
		return nil, err
	}
	out, err := current.Observations()
	if err != nil {
		return nil, err
	}

	for i := 1; i <= c.historyDays; i++ {
		day := time.Now().UTC().AddDate(0, 0, -i)
		hist, err := c.FetchHistory(ctx, city, day)
		if err != nil {
			// History is best effort; current conditions already succeeded.
			c.log.Warn("history fetch failed",
				zap.String("city", city),
				zap.String("day", day.Format("2006-01-02")),
				zap.Error(err))
			continue
		}
		obs, err := hist.Observations()
		if err != nil {
			return nil, err
		}
		out = append(out, obs...)
	}

	return out, nil
}

// FetchCurrent retrieves current.json for a city.
func (c *Client) FetchCurrent(ctx context.Context, city string) (Payload, error) {
	var payload CurrentResponse
	if err := c.get(ctx, "/current.json", url.Values{"q": {city}, "aqi": {"no"}}, &payload); err != nil {
		return Payload{}, fmt.Errorf("fetch current weather for %s: %w", city, err)
	}
	return Payload{Kind: KindCurrent, Current: &payload}, nil
}

// FetchHistory retrieves history.json for a city and day.
func (c *Client) FetchHistory(ctx context.Context, city string, day time.Time) (Payload, error) {
	values := url.Values{
		"q":  {city},
		"dt": {day.Format("2006-01-02")},
	}
	var payload HistoryResponse
	if err := c.get(ctx, "/history.json", values, &payload); err != nil {
		return Payload{}, fmt.Errorf("fetch weather history for %s: %w", city, err)
	}
	return Payload{Kind: KindHistory, History: &payload}, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("weatherapi key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("key", c.apiKey)
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, c.log, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
