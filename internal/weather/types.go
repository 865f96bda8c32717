// In file: internal/weather/types.go

// Package weather contains thin clients for the upstream weather and IP
// geolocation APIs used by the agent's tools. Every client performs a single
// attempt per call; the tools decide how failures are reported to the model.
package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Units is sent with every OpenWeatherMap request.
const Units = "metric"

var (
	// ErrTransport marks a failure to reach an upstream API at all.
	ErrTransport = errors.New("upstream transport failure")
	// ErrNoData marks a reachable upstream that had nothing to report.
	ErrNoData = errors.New("no data available")
)

// APIError is a logical failure reported by an upstream inside its own payload,
// e.g. OpenWeatherMap's {"cod":"404","message":"city not found"}.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NoDataError carries the human-readable explanation for an empty result.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string { return e.Message }

func (e *NoDataError) Unwrap() error { return ErrNoData }

// Coordinates locate a city for the coordinate-based history endpoint.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// envelope is the status part shared by OpenWeatherMap responses. The code is
// an integer on /weather and a string on /forecast and history endpoints.
type envelope struct {
	Cod     json.RawMessage `json:"cod"`
	Message json.RawMessage `json:"message"`
}

func (e envelope) code() string {
	return strings.Trim(strings.TrimSpace(string(e.Cod)), `"`)
}

func (e envelope) message() string {
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return s
	}
	return strings.Trim(string(e.Message), `"`)
}

// checkEnvelope returns an *APIError when body reports a non-200 code.
// A body without a code is judged by the HTTP status alone.
func checkEnvelope(body []byte, httpOK bool, status string) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !httpOK {
			return &APIError{Message: status}
		}
		return fmt.Errorf("%w: invalid JSON response: %v", ErrTransport, err)
	}
	code := env.code()
	if code == "" {
		if httpOK {
			return nil
		}
		msg := env.message()
		if msg == "" {
			msg = status
		}
		return &APIError{Message: msg}
	}
	if code != "200" {
		msg := env.message()
		if msg == "" {
			msg = "Unknown error"
		}
		return &APIError{Code: code, Message: msg}
	}
	return nil
}

// transportError strips the request URL from net/http errors so API keys in
// query strings never leak into tool output.
func transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s request failed: %v", ErrTransport, urlErr.Op, urlErr.Err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
