// In file: cmd/weather-agent/handler.go
package main

import (
	"context"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/metrics"
	componentversion "github.com/dileep-u-k/weather-agent/internal/version"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// chatService answers one chat turn. *agent.Dispatcher implements it.
type chatService interface {
	Handle(ctx context.Context, query, sessionID string) (string, error)
}

// ChatHandler holds the dependencies for the HTTP routes.
type ChatHandler struct {
	chat     chatService
	profiler *llm.Profiler
	metrics  *metrics.Metrics
	provider string
	model    string
}

// NewChatHandler wires the routes. profiler and m may be nil.
func NewChatHandler(chat chatService, profiler *llm.Profiler, m *metrics.Metrics, provider, model string) *ChatHandler {
	return &ChatHandler{chat: chat, profiler: profiler, metrics: m, provider: provider, model: model}
}

// HandleChat answers POST /chat.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	start := time.Now()
	defer func() { h.metrics.ObserveChat(c.Writer.Status(), time.Since(start)) }()

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Query must not be empty."})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
		log.Printf("No session_id supplied, started session %s", sessionID)
	}

	// The caller's address lets the geolocation fallback find the user rather than the server.
	ctx := weather.WithCallerIP(c.Request.Context(), c.ClientIP())
	answer, err := h.chat.Handle(ctx, query, sessionID)
	if err != nil {
		log.Printf("❌ Chat failed for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, api.ChatResponse{Response: answer, SessionID: sessionID})
}

// HandleStatus answers GET /status.
func (h *ChatHandler) HandleStatus(c *gin.Context) {
	resp := api.StatusResponse{
		Version:    GetBuildInfo().Version,
		Components: componentversion.Summary(),
		Model:      h.model,
		Provider:   h.provider,
	}
	if h.profiler != nil {
		profile, err := h.profiler.GetProfile(c.Request.Context(), h.model)
		if err != nil {
			log.Printf("⚠️ Could not load profile for %s: %v", h.model, err)
		} else {
			resp.Profile = profile
		}
	}
	c.JSON(http.StatusOK, resp)
}

// NewRouter builds the gin engine with CORS, the chat routes and /metrics.
func NewRouter(h *ChatHandler, allowedOrigins []string) *gin.Engine {
	engine := gin.Default()

	corsCfg := cors.DefaultConfig()
	if slices.Contains(allowedOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	engine.Use(cors.New(corsCfg))

	engine.POST("/chat", h.HandleChat)
	engine.GET("/status", h.HandleStatus)
	if h.metrics != nil {
		engine.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	return engine
}
