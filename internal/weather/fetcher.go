package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultWeatherURL  = "https://api.openweathermap.org/data/2.5/weather"
	defaultForecastURL = "https://api.openweathermap.org/data/2.5/forecast"
)

var (
	// ErrNoAPIKey indicates fetching is disabled because no key could be resolved.
	ErrNoAPIKey = errors.New("openweathermap api key is not configured")

	errUnexpectedStatus = errors.New("unexpected status code")
	errShapeMismatch    = errors.New("unexpected response shape")
)

// Client fetches readings for one fixed city from the OpenWeatherMap API.
// Every call is a single attempt routed through a circuit breaker; failed
// calls are reported to the caller, never retried.
type Client struct {
	city        string
	apiKey      string
	weatherURL  string
	forecastURL string
	httpClient  *http.Client
	circuit     *gobreaker.CircuitBreaker
	log         *log.Logger
}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithBaseURLs overrides the vendor endpoints, mainly for tests.
func WithBaseURLs(weatherURL, forecastURL string) ClientOption {
	return func(c *Client) {
		c.weatherURL = weatherURL
		c.forecastURL = forecastURL
	}
}

// WithLogger overrides the client's logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Client for the given city and API key.
func NewClient(httpClient *http.Client, city, apiKey string, opts ...ClientOption) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	c := &Client{
		city:        city,
		apiKey:      apiKey,
		weatherURL:  defaultWeatherURL,
		forecastURL: defaultForecastURL,
		httpClient:  httpClient,
		circuit:     cb,
		log:         log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// conditions is the shared subset of an OpenWeatherMap entry consumed here.
// Pointer fields distinguish absent keys from zero values.
type conditions struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure int     `json:"pressure"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds *struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility *int `json:"visibility"`
}

// Current fetches the current reading, stamped with ts.
func (c *Client) Current(ctx context.Context, ts time.Time) (RawMeasurement, error) {
	if c.apiKey == "" {
		return RawMeasurement{}, ErrNoAPIKey
	}

	values := url.Values{}
	values.Set("q", c.city)
	values.Set("appid", c.apiKey)

	body, err := c.get(ctx, fmt.Sprintf("%s?%s", c.weatherURL, values.Encode()))
	if err != nil {
		return RawMeasurement{}, err
	}

	var payload conditions
	if err := json.Unmarshal(body, &payload); err != nil {
		return RawMeasurement{}, err
	}
	return payload.toMeasurement(ts)
}

// Forecast fetches the forecast entry closest to ts via the dt parameter
// and consumes the first list entry.
func (c *Client) Forecast(ctx context.Context, ts time.Time) (RawMeasurement, error) {
	if c.apiKey == "" {
		return RawMeasurement{}, ErrNoAPIKey
	}

	values := url.Values{}
	values.Set("q", c.city)
	values.Set("appid", c.apiKey)
	values.Set("dt", strconv.FormatInt(ts.Unix(), 10))

	body, err := c.get(ctx, fmt.Sprintf("%s?%s", c.forecastURL, values.Encode()))
	if err != nil {
		return RawMeasurement{}, err
	}

	var payload struct {
		List []conditions `json:"list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return RawMeasurement{}, err
	}
	if len(payload.List) == 0 {
		return RawMeasurement{}, fmt.Errorf("%w: empty forecast list", errShapeMismatch)
	}
	return payload.List[0].toMeasurement(ts)
}

// FetchSeries fetches total forecast readings at evenly spaced timestamps
// starting from start. Failed intervals are logged and dropped, so the
// result may hold fewer than total readings; an empty result is not an error.
func (c *Client) FetchSeries(ctx context.Context, start time.Time, total int, interval time.Duration) []RawMeasurement {
	raw := make([]RawMeasurement, 0, total)
	for i := 0; i < total; i++ {
		ts := start.Add(time.Duration(i) * interval)
		m, err := c.Forecast(ctx, ts)
		if err != nil {
			c.log.Printf("fetch failed for %s: %v", ts.Format(TimestampLayout), err)
			continue
		}
		raw = append(raw, m)
	}
	c.log.Printf("fetched %d of %d requested readings", len(raw), total)
	return raw
}

// get issues one GET through the circuit breaker and returns the body on
// HTTP 200. Any other status, transport error, or open circuit is an error.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		}

		var body json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}
		return []byte(body), nil
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (p conditions) toMeasurement(ts time.Time) (RawMeasurement, error) {
	if len(p.Weather) == 0 {
		return RawMeasurement{}, fmt.Errorf("%w: missing weather description", errShapeMismatch)
	}
	if p.Main.Temp == 0 && p.Main.Pressure == 0 {
		return RawMeasurement{}, fmt.Errorf("%w: missing main block", errShapeMismatch)
	}

	m := RawMeasurement{
		Timestamp:         ts.Format(TimestampLayout),
		TemperatureKelvin: p.Main.Temp,
		Pressure:          p.Main.Pressure,
		Humidity:          p.Main.Humidity,
		Description:       p.Weather[0].Description,
		Visibility:        p.Visibility,
	}
	if p.Wind != nil {
		m.WindSpeed = &p.Wind.Speed
	}
	if p.Clouds != nil {
		m.Clouds = &p.Clouds.All
	}
	return m, nil
}
