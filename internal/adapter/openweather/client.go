package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	"github.com/couchcryptid/parcel-delay-service/internal/observability"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client implements domain.WeatherSource using the OpenWeather current
// weather API. It retries transient failures with exponential backoff and
// trips a circuit breaker after repeated failures.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	circuit    *gobreaker.CircuitBreaker
	maxRetries int
	backoff    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client.
func NewClient(apiKey string, timeout time.Duration, maxRetries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    defaultBaseURL,
		circuit:    newCircuitBreaker(),
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
		metrics:    metrics,
		logger:     logger,
	}
}

func newCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// CurrentWeather fetches the current weather at lat/lon.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherData, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	body, err := c.doWithRetry(ctx, fullURL)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.WeatherData{}, err
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WeatherData{}, fmt.Errorf("decode response: %w", err)
	}
	return payload.toWeather(lat, lon), nil
}

// doWithRetry executes the request through the circuit breaker, retrying
// transport errors, 429s and 5xx responses.
func (c *Client) doWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		body, err := c.do(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(err) || attempt >= c.maxRetries || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debug("openweather request failed, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(math.Min(float64(delay*2), float64(5*time.Second)))
	}
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("weather request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d: %s", errUnexpected, resp.StatusCode, body)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, errors.New("unexpected result type from circuit breaker")
	}
	return body, nil
}

func retryable(err error) bool {
	return !errors.Is(err, errUnexpected)
}

// OpenWeather API response types.

type response struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// toWeather fills gaps in a partial payload with clear-sky defaults.
func (r response) toWeather(lat, lon float64) domain.WeatherData {
	w := domain.WeatherData{
		Condition:   string(domain.ConditionClear),
		Description: "clear sky",
		Temp:        28,
		Icon:        "01d",
		Lat:         lat,
		Lon:         lon,
	}
	if len(r.Weather) > 0 {
		if r.Weather[0].Main != "" {
			w.Condition = r.Weather[0].Main
		}
		if r.Weather[0].Description != "" {
			w.Description = r.Weather[0].Description
		}
		if r.Weather[0].Icon != "" {
			w.Icon = r.Weather[0].Icon
		}
	}
	if r.Main != nil && r.Main.Temp != nil {
		w.Temp = int(math.Round(*r.Main.Temp))
	}
	return w
}
