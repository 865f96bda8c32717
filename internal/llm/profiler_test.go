package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfiler(t *testing.T) (*Profiler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	p := NewProfiler(rdb, map[string]TokenCost{"m": {Input: 0.001, Output: 0.002}})
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p, mr
}

func TestProfilerCreatesDefaultProfile(t *testing.T) {
	p, mr := newTestProfiler(t)

	profile, err := p.GetProfile(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, profile.Status)
	assert.Equal(t, int64(2000), profile.AvgLatencyMS)
	assert.Equal(t, 0.001, profile.CostPerInputToken)
	assert.Equal(t, "m", mr.HGet("profile:m", "model_id"))
}

func TestProfilerSuccessAndFailure(t *testing.T) {
	p, mr := newTestProfiler(t)
	ctx := context.Background()

	p.UpdateProfileOnSuccess(ctx, "m", 1000*time.Millisecond, api.Usage{PromptTokens: 100, CompletionTokens: 50})
	p.UpdateProfileOnFailure(ctx, "m")

	profile, err := p.GetProfile(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TotalSuccesses)
	assert.Equal(t, int64(1), profile.TotalFailures)
	assert.Equal(t, int64(100), profile.TotalInputTokens)
	assert.Equal(t, int64(50), profile.TotalOutputTokens)
	assert.Equal(t, StatusDegraded, profile.Status)
	assert.InDelta(t, 0.5, profile.ErrorRate, 0.0001)
	// 0.1*1000 + 0.9*2000
	assert.Equal(t, int64(1900), profile.AvgLatencyMS)
	assert.InDelta(t, 0.2, profile.CostSpentMonthly, 0.0001)
	assert.True(t, mr.Exists("cost:m:2026-03"))
}

func TestProfilerHealthCheck(t *testing.T) {
	p, _ := newTestProfiler(t)
	ctx := context.Background()

	p.UpdateProfileOnHealthCheck(ctx, "m", false)
	profile, err := p.GetProfile(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, profile.Status)
	assert.Equal(t, int64(2000), profile.AvgLatencyMS)
}

type stubClient struct {
	result *GenerationResult
	err    error
}

func (s stubClient) Generate(context.Context, []Message, *GenerationConfig, []tools.Tool) (*GenerationResult, error) {
	return s.result, s.err
}

func TestProfiledClientRecordsOutcome(t *testing.T) {
	p, _ := newTestProfiler(t)
	ctx := context.Background()

	ok := NewProfiledClient(stubClient{result: &GenerationResult{Content: "hi", Usage: api.Usage{PromptTokens: 3}}}, p, "m")
	res, err := ok.Generate(ctx, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Content)

	failing := NewProfiledClient(stubClient{err: errors.New("boom")}, p, "m")
	_, err = failing.Generate(ctx, nil, nil, nil)
	assert.EqualError(t, err, "boom")

	profile, err := p.GetProfile(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TotalSuccesses)
	assert.Equal(t, int64(1), profile.TotalFailures)
	assert.Equal(t, int64(3), profile.TotalInputTokens)
}
