// In file: internal/tools/arguments.go
package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// cityArgs is the typed input of every weather tool. Models sometimes use
// "location" instead of "city", and send days as a string.
type cityArgs struct {
	City     string          `json:"city"`
	Location string          `json:"location"`
	Days     json.RawMessage `json:"days"`
}

func (a cityArgs) city() string {
	if a.City != "" {
		return a.City
	}
	return a.Location
}

// days returns the day count and whether one was supplied at all.
func (a cityArgs) days() (int, bool, error) {
	raw := strings.TrimSpace(string(a.Days))
	if raw == "" || raw == "null" {
		return 0, false, nil
	}
	var n int
	if err := json.Unmarshal(a.Days, &n); err == nil {
		return n, true, nil
	}
	var s string
	if err := json.Unmarshal(a.Days, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true, nil
		}
	}
	return 0, true, fmt.Errorf("%w: days %s is not an integer", ErrInvalidFormat, raw)
}

// decodeArgs accepts either a JSON object or the legacy bare-string form.
// It reports whether the input was JSON so callers can apply legacy parsing.
func decodeArgs(arguments string) (cityArgs, string, bool, error) {
	trimmed := strings.TrimSpace(arguments)
	if strings.HasPrefix(trimmed, "{") {
		var args cityArgs
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return cityArgs{}, "", true, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return args, "", true, nil
	}
	// A JSON string literal is still the legacy form once unquoted.
	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		trimmed = s
	}
	return cityArgs{}, trimmed, false, nil
}
