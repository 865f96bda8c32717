// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"errors"
	"log"
	"strings"
)

// --- Weather Tool Implementation ---

const (
	CurrentWeatherToolName = "getCurrentWeather"
	ForecastToolName       = "getDailyForecast"
	HistoricalToolName     = "getHistoricalData"

	defaultForecastDays = 3
)

// Locator resolves the caller's city when the model did not name one.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// ConditionsAPI serves current conditions and short-range forecasts.
type ConditionsAPI interface {
	Current(ctx context.Context, city string) (string, error)
	Forecast(ctx context.Context, city string, days int) (string, error)
}

// HistoryAPI serves past observations for a city.
type HistoryAPI interface {
	History(ctx context.Context, city string, days int) (string, error)
}

var (
	_ ToolExecutor = (*CurrentWeatherTool)(nil)
	_ ToolExecutor = (*ForecastTool)(nil)
	_ ToolExecutor = (*HistoricalTool)(nil)
)

// resolveCity normalizes raw and falls back to geolocation when it names no
// city. An empty result after the fallback is an UnresolvableLocation failure.
func resolveCity(ctx context.Context, geo Locator, raw string) (string, error) {
	if city := NormalizeCity(raw); city != "" {
		return city, nil
	}
	if geo == nil {
		return "", unresolvable(nil)
	}
	city, err := geo.Locate(ctx)
	if err != nil {
		log.Printf("⚠️ Geolocation failed: %v", err)
		return "", unresolvable(err)
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return "", unresolvable(nil)
	}
	log.Printf("📍 Detected city from IP: %s", city)
	return city, nil
}

func cityProperty() *JSONSchema {
	return &JSONSchema{
		Type:        "string",
		Description: "The city name only, e.g. 'Dhaka' or 'London'. Use 'None' if the user did not mention a city.",
	}
}

// CurrentWeatherTool answers questions about today's conditions.
type CurrentWeatherTool struct {
	api ConditionsAPI
	geo Locator
}

// NewCurrentWeatherTool creates the getCurrentWeather tool. geo is consulted
// only when the model leaves the city unspecified.
func NewCurrentWeatherTool(api ConditionsAPI, geo Locator) *CurrentWeatherTool {
	return &CurrentWeatherTool{api: api, geo: geo}
}

// Definition describes getCurrentWeather and its single city parameter.
func (t *CurrentWeatherTool) Definition() Tool {
	return NewFunctionTool(
		CurrentWeatherToolName,
		"Fetches today's current weather for a city. If no city is given, it detects the user's location automatically. "+
			"Use this tool to answer any questions about rain, temperature, or weather right now.",
		JSONSchema{
			Type:       "object",
			Properties: map[string]*JSONSchema{"city": cityProperty()},
			Required:   []string{"city"},
		},
	)
}

// Execute returns the raw current-conditions payload or an "Error: ..." string.
func (t *CurrentWeatherTool) Execute(ctx context.Context, arguments string) (string, error) {
	return Render(t.run(ctx, arguments)), nil
}

func (t *CurrentWeatherTool) run(ctx context.Context, arguments string) (string, error) {
	args, legacy, isJSON, err := decodeArgs(arguments)
	if err != nil {
		return "", invalidFormat("Invalid input format. Please provide the city name.", err)
	}
	raw := legacy
	if isJSON {
		raw = args.city()
	}
	city, err := resolveCity(ctx, t.geo, raw)
	if err != nil {
		return "", err
	}
	log.Printf("🌤️ Fetching current weather for %s", city)
	return t.api.Current(ctx, city)
}

// ForecastTool answers questions about the coming days.
type ForecastTool struct {
	api ConditionsAPI
	geo Locator
}

// NewForecastTool creates the getDailyForecast tool.
func NewForecastTool(api ConditionsAPI, geo Locator) *ForecastTool {
	return &ForecastTool{api: api, geo: geo}
}

// Definition describes getDailyForecast with an optional days parameter.
func (t *ForecastTool) Definition() Tool {
	return NewFunctionTool(
		ForecastToolName,
		"Fetches the weather forecast for a city for up to 5 days after today. If no city is given, it detects the user's location automatically. "+
			"Use this tool to answer any questions about rain, temperature, or weather for days after today.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"city": cityProperty(),
				"days": {Type: "integer", Description: "How many days ahead to forecast (1-5). Defaults to 3."},
			},
			Required: []string{"city"},
		},
	)
}

// Execute returns the forecast payload for the requested number of days,
// or an "Error: ..." string.
func (t *ForecastTool) Execute(ctx context.Context, arguments string) (string, error) {
	return Render(t.run(ctx, arguments)), nil
}

func (t *ForecastTool) run(ctx context.Context, arguments string) (string, error) {
	args, legacy, isJSON, err := decodeArgs(arguments)
	if err != nil {
		return "", invalidFormat("Invalid input format. Please provide the city name.", err)
	}

	raw, days := legacy, defaultForecastDays
	if isJSON {
		raw = args.city()
		n, ok, err := args.days()
		if err != nil {
			return "", invalidFormat(msgDaysNotPositive, err)
		}
		if ok {
			days = n
		}
	} else if strings.Contains(legacy, ",") {
		city, n, err := ParseCityAndDays(legacy)
		if err != nil {
			return "", invalidFormat(msgCityAndDays, err)
		}
		raw, days = city, n
	}
	if days < 1 {
		return "", invalidFormat(msgDaysNotPositive, nil)
	}

	city, err := resolveCity(ctx, t.geo, raw)
	if err != nil {
		return "", err
	}
	log.Printf("📅 Fetching %d-day forecast for %s", days, city)
	return t.api.Forecast(ctx, city, days)
}

// HistoricalTool answers questions about days before today.
type HistoricalTool struct {
	api HistoryAPI
	geo Locator
}

// NewHistoricalTool creates the getHistoricalData tool on top of api, which
// may be either historical provider.
func NewHistoricalTool(api HistoryAPI, geo Locator) *HistoricalTool {
	return &HistoricalTool{api: api, geo: geo}
}

// Definition describes getHistoricalData. Both city and days are required.
func (t *HistoricalTool) Definition() Tool {
	return NewFunctionTool(
		HistoricalToolName,
		"Fetches historical weather data for a city. Two inputs are required: city and days ago. "+
			"If no city is provided, pass 'None' and the user's location is detected from their IP. "+
			"Use this tool to answer any questions about rain, temperature, or weather for days before today.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"city": cityProperty(),
				"days": {Type: "integer", Description: "How many days ago, a positive integer."},
			},
			Required: []string{"city", "days"},
		},
	)
}

// Execute validates days, resolves the city and returns the provider payload
// or an "Error: ..." string.
func (t *HistoricalTool) Execute(ctx context.Context, arguments string) (string, error) {
	return Render(t.run(ctx, arguments)), nil
}

func (t *HistoricalTool) run(ctx context.Context, arguments string) (string, error) {
	raw, days, err := historicalInput(arguments)
	if err != nil {
		return "", err
	}
	city, err := resolveCity(ctx, t.geo, raw)
	if err != nil {
		return "", err
	}
	log.Printf("🕰️ Fetching weather history for %s (%d day(s) ago)", city, days)
	return t.api.History(ctx, city, days)
}

// historicalInput extracts city and a positive day count from either form.
func historicalInput(arguments string) (string, int, error) {
	args, legacy, isJSON, err := decodeArgs(arguments)
	if err != nil {
		return "", 0, invalidFormat(msgCityAndDays, err)
	}

	var (
		raw  string
		days int
	)
	if isJSON {
		n, ok, err := args.days()
		switch {
		case err != nil:
			return "", 0, invalidFormat(msgDaysNotPositive, err)
		case !ok:
			return "", 0, invalidFormat(msgCityAndDays, nil)
		}
		raw, days = args.city(), n
	} else {
		city, n, err := ParseCityAndDays(legacy)
		if errors.Is(err, ErrFieldCount) {
			return "", 0, invalidFormat(msgCityAndDays, err)
		}
		if err != nil {
			return "", 0, invalidFormat(msgDaysNotPositive, err)
		}
		raw, days = city, n
	}
	if days < 1 {
		return "", 0, invalidFormat(msgDaysNotPositive, nil)
	}
	return raw, days, nil
}
