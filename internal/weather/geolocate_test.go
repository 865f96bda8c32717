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

func TestGeoLocatorLocate(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/8.8.8.8/json" {
			w.Write([]byte(`{"ip":"8.8.8.8","city":"Mountain View"}`))
			return
		}
		w.Write([]byte(`{"ip":"1.2.3.4","city":"Dhaka"}`))
	}))
	defer srv.Close()

	geo := NewGeoLocator(srv.URL, 5*time.Second)

	city, err := geo.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dhaka", city)

	city, err = geo.Locate(WithCallerIP(context.Background(), "8.8.8.8"))
	require.NoError(t, err)
	assert.Equal(t, "Mountain View", city)

	// Private addresses say nothing about the user's city.
	_, err = geo.Locate(WithCallerIP(context.Background(), "192.168.1.10"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/json", "/8.8.8.8/json", "/json"}, paths)
}

func TestGeoLocatorMissingCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"1.2.3.4","bogon":true}`))
	}))
	defer srv.Close()

	city, err := NewGeoLocator(srv.URL, time.Second).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", city)
}

func TestGeoLocatorTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewGeoLocator(srv.URL, time.Second).Locate(context.Background())
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestCallerIP(t *testing.T) {
	_, ok := CallerIP(context.Background())
	assert.False(t, ok)
	_, ok = CallerIP(WithCallerIP(context.Background(), "127.0.0.1"))
	assert.False(t, ok)
	_, ok = CallerIP(WithCallerIP(context.Background(), "not-an-ip"))
	assert.False(t, ok)
	addr, ok := CallerIP(WithCallerIP(context.Background(), "::ffff:8.8.4.4"))
	assert.True(t, ok)
	assert.Equal(t, "8.8.4.4", addr.String())
}
