// In file: internal/weather/openweathermap.go
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultOpenWeatherMapURL = "https://api.openweathermap.org"
	DefaultOWMHistoryURL     = "https://history.openweathermap.org/data/2.5/history/city"

	currentPath  = "/data/2.5/weather"
	forecastPath = "/data/2.5/forecast"

	// forecastStepsPerDay is the number of 3-hour forecast slots in a day.
	forecastStepsPerDay = 8
	MaxForecastDays     = 5
)

// OpenWeatherMap is a client for the current, forecast and coordinate-based
// history endpoints. All responses are returned verbatim as strings.
type OpenWeatherMap struct {
	client     *resty.Client
	apiKey     string
	historyURL string
	now        func() time.Time
}

// OpenWeatherMapOption customises a client at construction time.
type OpenWeatherMapOption func(*OpenWeatherMap)

// WithHistoryURL overrides the absolute URL of the history endpoint.
func WithHistoryURL(u string) OpenWeatherMapOption {
	return func(o *OpenWeatherMap) {
		if u != "" {
			o.historyURL = u
		}
	}
}

// WithClock replaces time.Now, used when computing history windows.
func WithClock(now func() time.Time) OpenWeatherMapOption {
	return func(o *OpenWeatherMap) { o.now = now }
}

// NewOpenWeatherMap returns an OpenWeatherMap client. apiKey is required and an
// empty baseURL uses DefaultOpenWeatherMapURL.
func NewOpenWeatherMap(apiKey, baseURL string, timeout time.Duration, opts ...OpenWeatherMapOption) (*OpenWeatherMap, error) {
	if apiKey == "" {
		return nil, errors.New("OpenWeatherMap API key cannot be empty")
	}
	if baseURL == "" {
		baseURL = DefaultOpenWeatherMapURL
	}
	o := &OpenWeatherMap{
		client:     resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey:     apiKey,
		historyURL: DefaultOWMHistoryURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Current returns the current conditions for city.
func (o *OpenWeatherMap) Current(ctx context.Context, city string) (string, error) {
	return o.get(ctx, currentPath, map[string]string{"q": city})
}

// Forecast returns days worth of 3-hour forecast slots for city.
func (o *OpenWeatherMap) Forecast(ctx context.Context, city string, days int) (string, error) {
	if days < 1 {
		days = 1
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}
	return o.get(ctx, forecastPath, map[string]string{
		"q":   city,
		"cnt": strconv.Itoa(days * forecastStepsPerDay),
	})
}

// Coordinates resolves city through a current-weather lookup.
func (o *OpenWeatherMap) Coordinates(ctx context.Context, city string) (Coordinates, error) {
	body, err := o.Current(ctx, city)
	if err != nil {
		return Coordinates{}, err
	}
	var payload struct {
		Coord *Coordinates `json:"coord"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Coord == nil {
		return Coordinates{}, &APIError{Message: fmt.Sprintf("no coordinates found for %s", city)}
	}
	return *payload.Coord, nil
}

// History implements HistoryProvider with the coordinate-based endpoint. The
// window runs from days ago until now, one hourly record per call.
func (o *OpenWeatherMap) History(ctx context.Context, city string, days int) (string, error) {
	coords, err := o.Coordinates(ctx, city)
	if err != nil {
		return "", err
	}
	end := o.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	return o.get(ctx, o.historyURL, map[string]string{
		"lat":   strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(coords.Lon, 'f', -1, 64),
		"type":  "hour",
		"start": strconv.FormatInt(start.Unix(), 10),
		"end":   strconv.FormatInt(end.Unix(), 10),
		"cnt":   "1",
	})
}

func (o *OpenWeatherMap) Name() string { return "openweathermap" }

func (o *OpenWeatherMap) get(ctx context.Context, path string, params map[string]string) (string, error) {
	res, err := o.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", o.apiKey).
		SetQueryParam("units", Units).
		Get(path)
	if err != nil {
		return "", transportError(err)
	}
	body := res.Body()
	if err := checkEnvelope(body, res.IsSuccess(), res.Status()); err != nil {
		return "", err
	}
	return string(body), nil
}
