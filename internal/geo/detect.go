package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// ErrLocationUnavailable is returned when the device location cannot be
// determined. Callers show mosques without distances.
var ErrLocationUnavailable = errors.New("location unavailable")

// Location holds geographic coordinates detected from the user's IP.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// geoAPIURL is the geolocation API endpoint. It is a variable (not a constant)
// so that tests can override it with an httptest server URL.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// Detect uses ip-api.com to determine the user's location from their public
// IP address. Every failure wraps ErrLocationUnavailable.
func Detect(ctx context.Context) (*Location, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: geolocation request failed: %v", ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geolocation API returned status %d", ErrLocationUnavailable, resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode geolocation response: %v", ErrLocationUnavailable, err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrLocationUnavailable, result.Message)
	}

	return &Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}

// Cache remembers a detected location between runs.
type Cache interface {
	LoadGeo() *Location
	SaveGeo(loc *Location) error
}

// Locator resolves the device location: a manual override first, then the
// cache, then detection.
type Locator struct {
	Manual *Location
	Cache  Cache
	Detect func(ctx context.Context) (*Location, error)
}

// Locate returns the best known location. A failed cache write is ignored.
func (l *Locator) Locate(ctx context.Context) (*Location, error) {
	if l.Manual != nil {
		return l.Manual, nil
	}
	if l.Cache != nil {
		if loc := l.Cache.LoadGeo(); loc != nil {
			return loc, nil
		}
	}

	detect := l.Detect
	if detect == nil {
		detect = Detect
	}
	loc, err := detect(ctx)
	if err != nil {
		return nil, err
	}
	if l.Cache != nil {
		_ = l.Cache.SaveGeo(loc)
	}
	return loc, nil
}
