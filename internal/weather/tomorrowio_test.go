package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTomorrowIOHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, recentHistoryPath, r.URL.Path)
		assert.Equal(t, "tio-key", r.URL.Query().Get("apikey"))
		switch r.URL.Query().Get("location") {
		case "Dhaka":
			w.Write([]byte(`{"timelines":{"hourly":[{"time":"t1"}],"daily":[{"time":"d1"}]}}`))
		case "Nowhere":
			w.Write([]byte(`{"timelines":{"hourly":[],"daily":[]}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":400001,"type":"Invalid Query Parameters","message":"failed to query by the term"}`))
		}
	}))
	defer srv.Close()

	tio, err := NewTomorrowIO("tio-key", srv.URL, 5*time.Second)
	require.NoError(t, err)

	body, err := tio.History(context.Background(), "Dhaka", 3)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"time":"d1"}]`, body)

	_, err = tio.History(context.Background(), "Nowhere", 1)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, "No hourly historical data available for Nowhere.", err.Error())

	_, err = tio.History(context.Background(), "???", 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "failed to query by the term", apiErr.Message)
}
