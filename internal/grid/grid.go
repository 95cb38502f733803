package grid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolution is the spatial step of the ERA5 grid in degrees.
const Resolution = 0.25

// ErrMalformedBox indicates a bounding box string that does not parse.
var ErrMalformedBox = errors.New("grid: malformed bounding box")

// Box is a geographic bounding box in decimal degrees.
type Box struct {
	LonMin float64
	LatMin float64
	LonMax float64
	LatMax float64
}

// ParseBox parses a bounding box in control-file order:
// lat_max/lon_min/lat_min/lon_max.
func ParseBox(s string) (Box, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return Box{}, fmt.Errorf("%w: %q", ErrMalformedBox, s)
	}

	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Box{}, fmt.Errorf("%w: %q", ErrMalformedBox, s)
		}
		vals[i] = v
	}

	return Box{
		LatMax: vals[0],
		LonMin: vals[1],
		LatMin: vals[2],
		LonMax: vals[3],
	}, nil
}

// SnapOut expands the box outward to the nearest grid lines: lower bounds
// are floored and upper bounds are ceiled in steps of Resolution. Bounds
// already on a grid line stay put, so the result always contains b.
func (b Box) SnapOut() Box {
	return Box{
		LonMin: math.Floor(b.LonMin/Resolution) * Resolution,
		LatMin: math.Floor(b.LatMin/Resolution) * Resolution,
		LonMax: math.Ceil(b.LonMax/Resolution) * Resolution,
		LatMax: math.Ceil(b.LatMax/Resolution) * Resolution,
	}
}

// Contains reports whether other lies entirely within b.
func (b Box) Contains(other Box) bool {
	return b.LonMin <= other.LonMin && b.LatMin <= other.LatMin &&
		b.LonMax >= other.LonMax && b.LatMax >= other.LatMax
}

// Area formats the box as a CDS area string, lat_max/lon_min/lat_min/lon_max.
func (b Box) Area() string {
	return formatCoord(b.LatMax) + "/" + formatCoord(b.LonMin) + "/" +
		formatCoord(b.LatMin) + "/" + formatCoord(b.LonMax)
}

// String implements fmt.Stringer. It uses the same order as Area.
func (b Box) String() string {
	return b.Area()
}

// Validate checks ordering and world bounds. Longitudes may use either
// the -180..180 or the 0..360 convention.
func (b Box) Validate() error {
	if b.LatMin > b.LatMax {
		return fmt.Errorf("grid: lat_min %v greater than lat_max %v", b.LatMin, b.LatMax)
	}
	if b.LonMin > b.LonMax {
		return fmt.Errorf("grid: lon_min %v greater than lon_max %v", b.LonMin, b.LonMax)
	}
	if b.LatMin < -90 || b.LatMax > 90 {
		return fmt.Errorf("grid: latitude out of range: %v..%v", b.LatMin, b.LatMax)
	}
	if b.LonMin < -180 || b.LonMax > 360 {
		return fmt.Errorf("grid: longitude out of range: %v..%v", b.LonMin, b.LonMax)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
