package geo

import "fmt"

// Coordinates is an observer position in decimal degrees. Latitude is
// positive north, longitude positive east.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Kaaba is the position of the Kaaba in Mecca. It is the qibla target and
// the location of last resort when nothing better is known.
var Kaaba = Coordinates{Latitude: 21.4225, Longitude: 39.8262}

// String formats the coordinates with four decimals, e.g. "21.4225, 39.8262".
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

// IsZero reports whether both components are zero, which the config layer
// uses to mean "not set".
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}
