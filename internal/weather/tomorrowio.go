// In file: internal/weather/tomorrowio.go
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTomorrowIOURL = "https://api.tomorrow.io"
	recentHistoryPath    = "/v4/weather/history/recent"
)

// HistoryProvider answers "what was the weather like days ago" for a city.
type HistoryProvider interface {
	Name() string
	History(ctx context.Context, city string, days int) (string, error)
}

var (
	_ HistoryProvider = (*OpenWeatherMap)(nil)
	_ HistoryProvider = (*TomorrowIO)(nil)
)

// TomorrowIO queries the location-based recent history endpoint. It only
// covers the last 24h hourly and the last few days daily, so days is not sent.
type TomorrowIO struct {
	client *resty.Client
	apiKey string
}

// NewTomorrowIO returns a Tomorrow.io client. An empty baseURL uses the public API.
func NewTomorrowIO(apiKey, baseURL string, timeout time.Duration) (*TomorrowIO, error) {
	if apiKey == "" {
		return nil, errors.New("Tomorrow.io API key cannot be empty")
	}
	if baseURL == "" {
		baseURL = DefaultTomorrowIOURL
	}
	return &TomorrowIO{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
	}, nil
}

func (t *TomorrowIO) Name() string { return "tomorrowio" }

// History returns the JSON encoded daily timeline for city.
func (t *TomorrowIO) History(ctx context.Context, city string, _ int) (string, error) {
	res, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("location", city).
		SetQueryParam("apikey", t.apiKey).
		Get(recentHistoryPath)
	if err != nil {
		return "", transportError(err)
	}

	var payload struct {
		Message   string `json:"message"`
		Timelines struct {
			Hourly []json.RawMessage `json:"hourly"`
			Daily  []json.RawMessage `json:"daily"`
		} `json:"timelines"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		if !res.IsSuccess() {
			return "", &APIError{Message: res.Status()}
		}
		return "", fmt.Errorf("%w: invalid JSON response: %v", ErrTransport, err)
	}
	if !res.IsSuccess() {
		msg := payload.Message
		if msg == "" {
			msg = res.Status()
		}
		return "", &APIError{Code: fmt.Sprint(res.StatusCode()), Message: msg}
	}
	if len(payload.Timelines.Hourly) == 0 {
		return "", &NoDataError{Message: fmt.Sprintf("No hourly historical data available for %s.", city)}
	}

	daily := payload.Timelines.Daily
	if daily == nil {
		daily = []json.RawMessage{}
	}
	out, err := json.Marshal(daily)
	if err != nil {
		return "", fmt.Errorf("failed to encode daily timeline: %w", err)
	}
	return string(out), nil
}
