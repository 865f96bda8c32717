// In file: internal/llm/profiler.go
package llm

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/redis/go-redis/v9"
)

const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// ModelProfile tracks performance, cost, and reliability metrics for a model.
type ModelProfile struct {
	ModelID            string    `json:"model_id" redis:"model_id"`
	AvgLatencyMS       int64     `json:"avg_latency_ms" redis:"avg_latency_ms"`
	CostPerInputToken  float64   `json:"cost_per_input_token" redis:"cost_per_input_token"`
	CostPerOutputToken float64   `json:"cost_per_output_token" redis:"cost_per_output_token"`
	Status             string    `json:"status" redis:"status"`
	ErrorRate          float64   `json:"error_rate" redis:"error_rate"`
	TotalSuccesses     int64     `json:"total_successes" redis:"total_successes"`
	TotalFailures      int64     `json:"total_failures" redis:"total_failures"`
	TotalInputTokens   int64     `json:"total_input_tokens" redis:"total_input_tokens"`
	TotalOutputTokens  int64     `json:"total_output_tokens" redis:"total_output_tokens"`
	LastHealthCheck    time.Time `json:"last_health_check" redis:"last_health_check"`
	CostSpentMonthly   float64   `json:"cost_spent_monthly"`
}

// TokenCost is the price of one input and one output token for a model.
type TokenCost struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// Profiler keeps one redis hash per model under "profile:<model>".
type Profiler struct {
	rdb   *redis.Client
	costs map[string]TokenCost
	now   func() time.Time
}

// NewProfiler returns a profiler that stores model stats in rdb. costs maps
// model ids to per-token prices and may be nil.
func NewProfiler(rdb *redis.Client, costs map[string]TokenCost) *Profiler {
	if costs == nil {
		costs = map[string]TokenCost{}
	}
	for modelID, c := range costs {
		log.Printf("Loaded cost config for %s: Input=$%.8f/token, Output=$%.8f/token", modelID, c.Input, c.Output)
	}
	return &Profiler{rdb: rdb, costs: costs, now: time.Now}
}

func (p *Profiler) getProfileKey(modelID string) string {
	return fmt.Sprintf("profile:%s", modelID)
}

func (p *Profiler) costKey(modelID string) string {
	return fmt.Sprintf("cost:%s:%s", modelID, p.now().Format("2006-01"))
}

// GetProfile retrieves a model's profile, creating a default one if it doesn't exist.
func (p *Profiler) GetProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	key := p.getProfileKey(modelID)
	profileData, err := p.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	if len(profileData) == 0 {
		return p.createDefaultProfile(ctx, modelID)
	}

	profile := &ModelProfile{ModelID: modelID}
	profile.AvgLatencyMS, _ = strconv.ParseInt(profileData["avg_latency_ms"], 10, 64)
	profile.CostPerInputToken, _ = strconv.ParseFloat(profileData["cost_per_input_token"], 64)
	profile.CostPerOutputToken, _ = strconv.ParseFloat(profileData["cost_per_output_token"], 64)
	profile.Status = profileData["status"]
	profile.ErrorRate, _ = strconv.ParseFloat(profileData["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(profileData["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(profileData["total_failures"], 10, 64)
	profile.TotalInputTokens, _ = strconv.ParseInt(profileData["total_input_tokens"], 10, 64)
	profile.TotalOutputTokens, _ = strconv.ParseInt(profileData["total_output_tokens"], 10, 64)
	profile.LastHealthCheck, _ = time.Parse(time.RFC3339Nano, profileData["last_health_check"])
	profile.CostSpentMonthly, _ = p.rdb.Get(ctx, p.costKey(modelID)).Float64()

	return profile, nil
}

func (p *Profiler) createDefaultProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	costs, ok := p.costs[modelID]
	if !ok {
		log.Printf("⚠️ No cost information for model '%s'. Defaulting to zero cost.", modelID)
	}

	profile := &ModelProfile{
		ModelID:            modelID,
		AvgLatencyMS:       2000,
		CostPerInputToken:  costs.Input,
		CostPerOutputToken: costs.Output,
		Status:             StatusOnline,
		LastHealthCheck:    p.now(),
	}

	key := p.getProfileKey(modelID)
	pipe := p.rdb.Pipeline()
	pipe.HSet(ctx, key,
		"model_id", profile.ModelID,
		"avg_latency_ms", profile.AvgLatencyMS,
		"cost_per_input_token", profile.CostPerInputToken,
		"cost_per_output_token", profile.CostPerOutputToken,
		"status", profile.Status,
		"total_successes", profile.TotalSuccesses,
		"total_failures", profile.TotalFailures,
		"error_rate", profile.ErrorRate,
		"last_health_check", profile.LastHealthCheck.Format(time.RFC3339Nano),
	)
	_, err := pipe.Exec(ctx)

	log.Printf("✅ Created profile for %s", modelID)
	return profile, err
}

// UpdateProfileOnSuccess folds one successful call into the moving latency
// average, the token totals and this month's spend.
func (p *Profiler) UpdateProfileOnSuccess(ctx context.Context, modelID string, latency time.Duration, usage api.Usage) {
	if _, err := p.GetProfile(ctx, modelID); err != nil {
		log.Printf("Error ensuring profile exists for %s: %v", modelID, err)
	}

	key := p.getProfileKey(modelID)
	const alpha = 0.1

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		currentLatencyStr, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		currentLatency, _ := strconv.ParseInt(currentLatencyStr, 10, 64)
		newLatency := int64((alpha * float64(latency.Milliseconds())) + ((1.0 - alpha) * float64(currentLatency)))
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", modelID, err)
	}

	cost := p.costs[modelID]
	callCost := float64(usage.PromptTokens)*cost.Input + float64(usage.CompletionTokens)*cost.Output
	costKey := p.costKey(modelID)

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "status", StatusOnline)
	pipe.IncrByFloat(ctx, costKey, callCost)
	pipe.Expire(ctx, costKey, 35*24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error in success update pipeline for %s: %v", modelID, err)
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.setErrorRate(ctx, key, totalFailures, successes.Val()+totalFailures)
}

// UpdateProfileOnFailure counts one failed call for modelID.
func (p *Profiler) UpdateProfileOnFailure(ctx context.Context, modelID string) {
	if _, err := p.GetProfile(ctx, modelID); err != nil {
		log.Printf("Error ensuring profile exists for %s: %v", modelID, err)
	}

	key := p.getProfileKey(modelID)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "status", StatusDegraded)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error in failure update pipeline for %s: %v", modelID, err)
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.setErrorRate(ctx, key, failures.Val(), totalSuccesses+failures.Val())
}

func (p *Profiler) setErrorRate(ctx context.Context, key string, failures, total int64) {
	if total <= 0 {
		return
	}
	p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total))
}

// UpdateProfileOnHealthCheck records the outcome of a proactive health probe.
// It ensures a full profile exists first so the checker never writes a partial hash.
func (p *Profiler) UpdateProfileOnHealthCheck(ctx context.Context, modelID string, isHealthy bool) {
	if _, err := p.GetProfile(ctx, modelID); err != nil {
		log.Printf("Error ensuring profile exists during health check for %s: %v", modelID, err)
	}

	status := StatusOffline
	if isHealthy {
		status = StatusOnline
	}

	key := p.getProfileKey(modelID)
	pipe := p.rdb.Pipeline()
	pipe.HSet(ctx, key, "status", status)
	pipe.HSet(ctx, key, "last_health_check", p.now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error updating health check for %s: %v", modelID, err)
	}
}

// ProfiledClient decorates an LLMClient so every call updates the model profile.
type ProfiledClient struct {
	next     LLMClient
	profiler *Profiler
	modelID  string
}

var _ LLMClient = (*ProfiledClient)(nil)

// NewProfiledClient wraps next so every Generate call updates the profile of modelID.
func NewProfiledClient(next LLMClient, profiler *Profiler, modelID string) *ProfiledClient {
	return &ProfiledClient{next: next, profiler: profiler, modelID: modelID}
}

// Generate forwards to the wrapped client and records latency, tokens and outcome.
func (c *ProfiledClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	start := time.Now()
	result, err := c.next.Generate(ctx, messages, config, availableTools)
	// Recorded even when the request context was cancelled.
	bg := context.WithoutCancel(ctx)
	if err != nil {
		c.profiler.UpdateProfileOnFailure(bg, c.modelID)
		return nil, err
	}
	c.profiler.UpdateProfileOnSuccess(bg, c.modelID, time.Since(start), result.Usage)
	return result, nil
}
