package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveChat(http.StatusOK, 1500*time.Millisecond)
	m.ObserveChat(http.StatusInternalServerError, time.Second)
	m.ObserveToolCall("getCurrentWeather", false)
	m.ObserveToolCall("getCurrentWeather", true)
	m.ObserveToolCall("getCurrentWeather", true)
	m.ObserveIterations(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("500")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("getCurrentWeather", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.chatLatency))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveToolCall("getDailyForecast", false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `weather_agent_tool_calls_total{outcome="ok",tool="getDailyForecast"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveChat(http.StatusOK, time.Second)
		m.ObserveToolCall("x", true)
		m.ObserveIterations(1)
	})
}
