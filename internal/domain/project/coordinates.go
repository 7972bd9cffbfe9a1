package project

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoordinates splits a "lat,lon" registry string into decimal degrees.
// The backend API wants the two numbers separately, so malformed coordinates
// must be caught here, before anything goes on the wire.
func ParseCoordinates(coords string) (lat, lon float64, err error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: coordinates must be \"lat,lon\", got %q", ErrInvalidInput, coords)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidInput, strings.TrimSpace(parts[0]))
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidInput, strings.TrimSpace(parts[1]))
	}

	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, lon)
	}
	return lat, lon, nil
}

// FormatCoordinates renders the registry representation of a lat/lon pair.
func FormatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
