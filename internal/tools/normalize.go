// In file: internal/tools/normalize.go
package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// placeholderTokens are words the model uses when it means "no city given".
// Any one of them anywhere in the argument marks the city as unspecified, so
// phrasings like "(detect automatically)" or "user's location" are caught.
var placeholderTokens = map[string]struct{}{
	"none":          {},
	"null":          {},
	"nil":           {},
	"detect":        {},
	"auto":          {},
	"automatically": {},
	"location":      {},
	"unknown":       {},
	"unspecified":   {},
}

// placeholderPhrases only match the whole argument. Words like "my" or
// "current" also occur in real place names ("My Tho", "Current River").
var placeholderPhrases = map[string]struct{}{
	"detect user's location automatically": {},
	"n/a":                                  {},
	"here":                                 {},
	"current":                              {},
	"current city":                         {},
	"my city":                              {},
	"":                                     {},
}

// NormalizeCity returns "" when raw is a placeholder for "unspecified" and the
// trimmed raw value otherwise. It is pure and idempotent.
func NormalizeCity(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lowered := strings.ToLower(trimmed)
	if _, ok := placeholderPhrases[lowered]; ok {
		return ""
	}
	for _, token := range strings.Fields(lowered) {
		token = strings.Trim(token, `()[]{}"'.,;:!?`)
		if _, ok := placeholderTokens[token]; ok {
			return ""
		}
	}
	return trimmed
}

var (
	// ErrFieldCount means the composite argument did not split into two fields.
	ErrFieldCount = fmt.Errorf("%w: expected \"city, days\"", ErrInvalidFormat)
	// ErrDaysNotInteger means the second field was not an integer.
	ErrDaysNotInteger = fmt.Errorf("%w: days is not an integer", ErrInvalidFormat)
)

// ParseCityAndDays splits the legacy "city, days" argument form. The city is
// returned un-normalized; days is not range checked.
func ParseCityAndDays(raw string) (string, int, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w, got %d field(s)", ErrFieldCount, len(fields))
	}
	days, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrDaysNotInteger, strings.TrimSpace(fields[1]))
	}
	return strings.TrimSpace(fields[0]), days, nil
}
