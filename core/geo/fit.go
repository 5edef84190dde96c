// Package geo provides the pure geometric helpers behind the dispatch map:
// viewport fitting over marker coordinates and great-circle distances.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/fieldline/dispatch/core/model"
)

// Padding inflates a fitted region per edge so markers are not hidden behind
// overlay panels. Values are fractions of the raw span (0.1 = 10%). The
// collapsed/expanded header state maps to different paddings; choosing them is
// the caller's concern.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Region is a map camera target: a center plus the visible span in degrees.
type Region struct {
	Center   model.Coordinate
	LatDelta float64
	LngDelta float64
}

// Contains reports whether c lies within the region.
func (r Region) Contains(c model.Coordinate) bool {
	return c.Lat >= r.Center.Lat-r.LatDelta/2 && c.Lat <= r.Center.Lat+r.LatDelta/2 &&
		c.Lng >= r.Center.Lng-r.LngDelta/2 && c.Lng <= r.Center.Lng+r.LngDelta/2
}

// minSpanDeg keeps a single marker from collapsing the region to a point.
const minSpanDeg = 0.01

// FitRegion returns the smallest region containing every coordinate, inflated
// by pad. It reports false for an empty input; the caller must then leave the
// current viewport untouched. The function is pure and deterministic: equal
// inputs yield equal regions.
func FitRegion(coords []model.Coordinate, pad Padding) (Region, bool) {
	if len(coords) == 0 {
		return Region{}, false
	}
	rect := s2.EmptyRect()
	for _, c := range coords {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lng))
	}

	center := rect.Center()
	size := rect.Size()
	latSpan := size.Lat.Degrees()
	lngSpan := size.Lng.Degrees()
	if latSpan < minSpanDeg {
		latSpan = minSpanDeg
	}
	if lngSpan < minSpanDeg {
		lngSpan = minSpanDeg
	}

	// Asymmetric padding both widens the span and shifts the center away
	// from the heavier edge.
	latDelta := latSpan * (1 + pad.Top + pad.Bottom)
	lngDelta := lngSpan * (1 + pad.Left + pad.Right)
	centerLat := center.Lat.Degrees() + latSpan*(pad.Top-pad.Bottom)/2
	centerLng := center.Lng.Degrees() + lngSpan*(pad.Right-pad.Left)/2

	return Region{
		Center:   model.Coordinate{Lat: centerLat, Lng: centerLng},
		LatDelta: latDelta,
		LngDelta: lngDelta,
	}, true
}
