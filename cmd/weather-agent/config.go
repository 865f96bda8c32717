// In file: cmd/weather-agent/config.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/history"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	HistoricalOpenWeatherMap = "openweathermap"
	HistoricalTomorrowIO     = "tomorrowio"

	BackendAuto   = "auto"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendMemory = "memory"

	defaultConfigFile   = "config.yaml"
	defaultPort         = "8000"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultFrontendURL  = "http://localhost:3000"
	defaultWeatherLimit = 15 * time.Second
)

// LLMSettings selects and tunes the model backend.
type LLMSettings struct {
	Provider            string        `yaml:"provider"`
	BaseURL             string        `yaml:"base_url"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// HistorySettings selects the session store and its window policy.
type HistorySettings struct {
	Backend      string        `yaml:"backend"`
	WindowPolicy string        `yaml:"window_policy"`
	Collection   string        `yaml:"collection"`
	UserID       string        `yaml:"user_id"`
	TTL          time.Duration `yaml:"ttl"`
}

// WeatherSettings holds upstream endpoints and the historical provider choice.
type WeatherSettings struct {
	Timeout            time.Duration `yaml:"timeout"`
	HistoricalProvider string        `yaml:"historical_provider"`
	OpenWeatherMapURL  string        `yaml:"openweathermap_url"`
	OWMHistoryURL      string        `yaml:"openweathermap_history_url"`
	TomorrowIOURL      string        `yaml:"tomorrowio_url"`
	GeolocationURL     string        `yaml:"geolocation_url"`
}

// CORSSettings lists the browser origins allowed to call the API.
type CORSSettings struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// FileConfig mirrors config.yaml.
type FileConfig struct {
	LLM        LLMSettings              `yaml:"llm"`
	Agent      agent.Config             `yaml:"agent"`
	History    HistorySettings          `yaml:"history"`
	Weather    WeatherSettings          `yaml:"weather"`
	CORS       CORSSettings             `yaml:"cors"`
	ModelCosts map[string]llm.TokenCost `yaml:"model_costs"`
}

// AppConfig holds all configuration for the agent, loaded from the environment and config.yaml.
type AppConfig struct {
	FileConfig

	LLMAPIKey         string
	OpenWeatherMapKey string
	TomorrowIOKey     string
	RedisAddr         string
	DatabaseDSN       string
	Port              string
	WindowPolicy      history.WindowPolicy
}

// LoadConfig loads configuration from a .env file, environment variables and
// config.yaml. Missing required keys are reported together in one error.
func LoadConfig() (*AppConfig, error) {
	// In containers (GIN_MODE=release) configuration arrives as plain environment variables.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	fileCfg, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		FileConfig:        *fileCfg,
		OpenWeatherMapKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		TomorrowIOKey:     os.Getenv("TOMORROW_IO_API_KEY"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		DatabaseDSN:       os.Getenv("DATABASE_DSN"),
		Port:              os.Getenv("PORT"),
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Agent.Model = v
	}
	if v := os.Getenv("HISTORICAL_PROVIDER"); v != "" {
		cfg.Weather.HistoricalProvider = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	var missing []string
	keyVar := llmKeyVar(cfg.LLM.Provider)
	cfg.LLMAPIKey = os.Getenv(keyVar)
	if cfg.LLMAPIKey == "" {
		missing = append(missing, keyVar)
	}
	if cfg.OpenWeatherMapKey == "" {
		missing = append(missing, "OPENWEATHERMAP_API_KEY")
	}
	if cfg.Weather.HistoricalProvider == HistoricalTomorrowIO && cfg.TomorrowIOKey == "" {
		missing = append(missing, "TOMORROW_IO_API_KEY")
	}
	if cfg.History.Backend == BackendRedis && cfg.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}
	if cfg.History.Backend == BackendSQL && cfg.DatabaseDSN == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// readConfigFile parses config.yaml. A missing file yields an empty config.
func readConfigFile(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: %s not found, using built-in defaults.", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case "":
		c.LLM.Provider = ProviderGroq
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case ProviderGroq:
			c.LLM.BaseURL = llm.DefaultOpenAIBaseURL
		case ProviderOpenAI:
			c.LLM.BaseURL = defaultOpenAIURL
		}
	}
	if c.Agent.Model == "" {
		switch c.LLM.Provider {
		case ProviderGroq:
			c.Agent.Model = llm.DefaultModel
		case ProviderOpenAI:
			c.Agent.Model = defaultOpenAIModel
		case ProviderGemini:
			c.Agent.Model = llm.DefaultGeminiModel
		}
	}
	if c.LLM.HealthCheckInterval == 0 {
		c.LLM.HealthCheckInterval = 5 * time.Minute
	}

	if err := c.Agent.Validate(); err != nil {
		return err
	}
	c.Agent = c.Agent.WithDefaults()

	policy, err := history.ParseWindowPolicy(c.History.WindowPolicy)
	if err != nil {
		return err
	}
	c.WindowPolicy = policy
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	switch c.History.Backend {
	case "":
		c.History.Backend = BackendAuto
	case BackendAuto, BackendRedis, BackendSQL, BackendMemory:
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}

	c.Weather.HistoricalProvider = strings.ToLower(strings.TrimSpace(c.Weather.HistoricalProvider))
	switch c.Weather.HistoricalProvider {
	case "":
		c.Weather.HistoricalProvider = HistoricalOpenWeatherMap
	case HistoricalOpenWeatherMap, HistoricalTomorrowIO:
	default:
		return fmt.Errorf("unknown historical provider %q", c.Weather.HistoricalProvider)
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = defaultWeatherLimit
	}
	if c.Weather.OpenWeatherMapURL == "" {
		c.Weather.OpenWeatherMapURL = weather.DefaultOpenWeatherMapURL
	}
	if c.Weather.OWMHistoryURL == "" {
		c.Weather.OWMHistoryURL = weather.DefaultOWMHistoryURL
	}
	if c.Weather.TomorrowIOURL == "" {
		c.Weather.TomorrowIOURL = weather.DefaultTomorrowIOURL
	}
	if c.Weather.GeolocationURL == "" {
		c.Weather.GeolocationURL = weather.DefaultGeoURL
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{defaultFrontendURL}
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	return nil
}

func llmKeyVar(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return "GROQ_API_KEY"
}
