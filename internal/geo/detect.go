package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Source records where a Location came from.
type Source string

const (
	SourceFlags    Source = "flags"
	SourceConfig   Source = "config"
	SourceCache    Source = "cache"
	SourceIP       Source = "ip"
	SourceFallback Source = "fallback"
)

// Location is an observer position with the place details that came
// with it.
type Location struct {
	Coordinates
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Source   Source `json:"source,omitempty"`
}

// Zone loads the location's IANA time zone. It returns nil when the zone
// is unset or unknown to the system tz database.
func (l Location) Zone() *time.Location {
	if l.Timezone == "" {
		return nil
	}
	z, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil
	}
	return z
}

// Label is a short human description such as "London, United Kingdom",
// falling back to the coordinates.
func (l Location) Label() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	default:
		return l.Coordinates.String()
	}
}

// Fallback is the location used when nothing better is known: the Kaaba.
func Fallback() Location {
	return Location{
		Coordinates: Kaaba,
		City:        "Mecca",
		Country:     "Saudi Arabia",
		Timezone:    "Asia/Riyadh",
		Source:      SourceFallback,
	}
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

// geoAPIURL is a variable so tests can point it at an httptest server.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

var httpClient = &http.Client{Timeout: 5 * time.Second}

// DetectLocation uses ip-api.com to determine the user's location from their
// public IP address. The service needs no API key.
func DetectLocation(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("geolocation request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	return &Location{
		Coordinates: Coordinates{Latitude: result.Lat, Longitude: result.Lon},
		City:        result.City,
		Country:     result.Country,
		Timezone:    result.Timezone,
		Source:      SourceIP,
	}, nil
}
