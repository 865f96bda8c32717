// In file: cmd/weather-agent/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/history"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/metrics"
	"github.com/dileep-u-k/weather-agent/internal/tools"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// main is the Composition Root: it loads configuration, initializes all
// services, injects dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Weather Agent | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Printf("✅ Configuration loaded. Provider: %s, Model: %s", cfg.LLM.Provider, cfg.Agent.Model)

	// 2. INITIALIZE SERVICES
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ FATAL: Could not connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("✅ Connected to Redis.")
	}

	store, err := initializeHistoryStore(cfg, rdb)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	baseClient, err := initializeLLMClient(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	client := baseClient

	var profiler *llm.Profiler
	if rdb != nil {
		profiler = llm.NewProfiler(rdb, cfg.ModelCosts)
		client = llm.NewProfiledClient(baseClient, profiler, cfg.Agent.Model)
	}

	toolManager, err := initializeToolManager(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	m := metrics.New()
	executor := agent.NewExecutor(client, toolManager, cfg.Agent).WithObserver(m)
	dispatcher := agent.NewDispatcher(store, executor, cfg.Agent.HistoryWindow)
	handler := NewChatHandler(dispatcher, profiler, m, cfg.LLM.Provider, cfg.Agent.Model)
	log.Println("✅ All services initialized.")

	// 3. START BACKGROUND PROCESSES
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if profiler != nil {
		go startHealthChecker(bgCtx, cfg.LLM.HealthCheckInterval, cfg.Agent.Model, baseClient, profiler)
	}

	// 4. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: NewRouter(handler, cfg.CORS.AllowedOrigins),
	}
	runServerWithGracefulShutdown(srv)
}

// initializeHistoryStore picks the session backend. "auto" prefers redis,
// then a SQL database, then process memory.
func initializeHistoryStore(cfg *AppConfig, rdb *redis.Client) (history.Store, error) {
	opts := history.Options{
		Collection: cfg.History.Collection,
		UserID:     cfg.History.UserID,
		Policy:     cfg.WindowPolicy,
		TTL:        cfg.History.TTL,
	}

	backend := cfg.History.Backend
	if backend == BackendAuto {
		switch {
		case rdb != nil:
			backend = BackendRedis
		case cfg.DatabaseDSN != "":
			backend = BackendSQL
		default:
			backend = BackendMemory
		}
	}

	switch backend {
	case BackendRedis:
		log.Printf("✅ Chat history stored in Redis (window policy: %s).", cfg.WindowPolicy)
		return history.NewRedisStore(rdb, opts), nil
	case BackendSQL:
		db, err := history.OpenDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("could not open history database: %w", err)
		}
		log.Printf("✅ Chat history stored in SQL database (window policy: %s).", cfg.WindowPolicy)
		return history.NewSQLStore(db, opts), nil
	default:
		log.Printf("⚠️ Chat history kept in memory only (window policy: %s).", cfg.WindowPolicy)
		return history.NewMemoryStore(cfg.WindowPolicy), nil
	}
}

// initializeLLMClient creates the model client for the configured provider.
func initializeLLMClient(cfg *AppConfig) (llm.LLMClient, error) {
	var (
		client llm.LLMClient
		err    error
	)
	switch cfg.LLM.Provider {
	case ProviderGemini:
		client, err = llm.NewGeminiClient(cfg.LLMAPIKey, cfg.Agent.Model)
	default:
		client, err = llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLM.BaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider, err)
	}
	log.Printf("✅ LLM client initialized for %s.", cfg.LLM.Provider)
	return client, nil
}

// initializeToolManager creates the weather clients and registers the tools.
func initializeToolManager(cfg *AppConfig) (*tools.ToolManager, error) {
	timeout := cfg.Weather.Timeout

	owm, err := weather.NewOpenWeatherMap(cfg.OpenWeatherMapKey, cfg.Weather.OpenWeatherMapURL, timeout,
		weather.WithHistoryURL(cfg.Weather.OWMHistoryURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenWeatherMap client: %w", err)
	}
	geo := weather.NewGeoLocator(cfg.Weather.GeolocationURL, timeout)

	var historical weather.HistoryProvider = owm
	if cfg.Weather.HistoricalProvider == HistoricalTomorrowIO {
		historical, err = weather.NewTomorrowIO(cfg.TomorrowIOKey, cfg.Weather.TomorrowIOURL, timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Tomorrow.io client: %w", err)
		}
	}

	manager := tools.NewToolManager()
	manager.Register(tools.NewCurrentWeatherTool(owm, geo))
	manager.Register(tools.NewForecastTool(owm, geo))
	manager.Register(tools.NewHistoricalTool(historical, geo))

	log.Printf("✅ Tool Manager initialized with %d tools (historical provider: %s).", manager.ToolCount(), historical.Name())
	return manager, nil
}

// startHealthChecker periodically probes the model and records the result in its profile.
func startHealthChecker(ctx context.Context, interval time.Duration, modelID string, client llm.LLMClient, profiler *llm.Profiler) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("🩺 Health checker started.")

	runCheck := func() {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		config := &llm.GenerationConfig{Model: modelID, MaxTokens: 5}
		prompt := []llm.Message{{Role: llm.RoleUser, Content: "Reply with OK."}}

		_, err := client.Generate(checkCtx, prompt, config, nil)
		isHealthy := err == nil
		profiler.UpdateProfileOnHealthCheck(context.WithoutCancel(ctx), modelID, isHealthy)
		log.Printf("🩺 Health check for %s: Healthy = %v", modelID, isHealthy)
	}

	runCheck()
	for {
		select {
		case <-ctx.Done():
			log.Println("🩺 Health checker stopped.")
			return
		case <-ticker.C:
			runCheck()
		}
	}
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Weather agent is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("❌ Server shutdown failed:", err)
		return
	}

	log.Println("👋 Server exited gracefully.")
}
