// In file: internal/weather/geolocate.go
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultGeoURL = "https://ipinfo.io"

type callerIPKey struct{}

// WithCallerIP records the address of the end user so that geolocation
// resolves the caller rather than the host running the service.
func WithCallerIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, callerIPKey{}, ip)
}

// CallerIP returns the public caller address stored in ctx, if any.
func CallerIP(ctx context.Context) (netip.Addr, bool) {
	raw, _ := ctx.Value(callerIPKey{}).(string)
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return netip.Addr{}, false
	}
	return addr, true
}

// GeoLocator resolves a city name from an IP address.
type GeoLocator struct {
	client *resty.Client
}

// NewGeoLocator returns a locator for an ipinfo-compatible endpoint.
// An empty baseURL uses DefaultGeoURL.
func NewGeoLocator(baseURL string, timeout time.Duration) *GeoLocator {
	if baseURL == "" {
		baseURL = DefaultGeoURL
	}
	return &GeoLocator{client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout)}
}

// Locate returns the city of the caller, or "" when the upstream has none.
func (g *GeoLocator) Locate(ctx context.Context) (string, error) {
	path := "/json"
	if addr, ok := CallerIP(ctx); ok {
		path = "/" + addr.String() + "/json"
	}

	res, err := g.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return "", transportError(err)
	}
	if !res.IsSuccess() {
		return "", &APIError{Code: fmt.Sprint(res.StatusCode()), Message: res.Status()}
	}

	var payload struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return "", fmt.Errorf("%w: invalid JSON response: %v", ErrTransport, err)
	}
	return payload.City, nil
}
