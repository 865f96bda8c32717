// In file: internal/tools/failure.go
package tools

import (
	"errors"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// FailureKind classifies why a tool could not produce a weather payload.
type FailureKind string

const (
	KindTransport            FailureKind = "upstream_transport"
	KindUpstream             FailureKind = "upstream_logical"
	KindInvalidFormat        FailureKind = "invalid_format"
	KindUnresolvableLocation FailureKind = "unresolvable_location"
	KindNoData               FailureKind = "no_data"
)

const (
	msgUnresolvable    = "Unable to detect city from IP."
	msgCityAndDays     = "Invalid input format. Please provide city and days in the format: city, days"
	msgDaysNotPositive = "Invalid input format. Days must be a positive integer."
)

var (
	ErrInvalidFormat        = errors.New("invalid input format")
	ErrUnresolvableLocation = errors.New("unresolvable location")
)

// Failure is the tagged error every tool produces internally. It is turned
// into plain text only by Output, at the boundary with the model.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Output renders the failure as tool output for the model.
func (f *Failure) Output() string {
	if f.Kind == KindNoData {
		return f.Message
	}
	return "Error: " + f.Message
}

func invalidFormat(message string, err error) *Failure {
	if err == nil {
		err = ErrInvalidFormat
	}
	return &Failure{Kind: KindInvalidFormat, Message: message, Err: err}
}

func unresolvable(err error) *Failure {
	if err == nil {
		err = ErrUnresolvableLocation
	}
	return &Failure{Kind: KindUnresolvableLocation, Message: msgUnresolvable, Err: err}
}

// classify maps an upstream client error onto the failure taxonomy.
func classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	var apiErr *weather.APIError
	if errors.As(err, &apiErr) {
		return &Failure{Kind: KindUpstream, Message: apiErr.Message, Err: err}
	}
	var noData *weather.NoDataError
	if errors.As(err, &noData) {
		return &Failure{Kind: KindNoData, Message: noData.Message, Err: err}
	}
	return &Failure{Kind: KindTransport, Message: err.Error(), Err: err}
}

// Render converts the (payload, error) pair of a tool run into the single
// string handed back to the model.
func Render(payload string, err error) string {
	if err != nil {
		return classify(err).Output()
	}
	return payload
}
