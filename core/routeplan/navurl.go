package routeplan

import (
	"net/url"
	"strconv"
	"strings"
)

const mapsDirBase = "https://www.google.com/maps/dir/"

// NavigationURL builds a single multi-stop turn-by-turn URL over the stops
// that have coordinates, in current route order: the last qualifying stop is
// the destination, the rest are waypoints. It reports false when no stop
// qualifies; the caller must then not launch navigation.
func (b *Builder) NavigationURL() (string, bool) {
	var coords []string
	for _, s := range b.Stops() {
		if !s.OK || s.Job.Location == nil {
			continue
		}
		coords = append(coords, formatCoord(s.Job.Location.Lat, s.Job.Location.Lng))
	}
	if len(coords) == 0 {
		return "", false
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("travelmode", "driving")
	q.Set("destination", coords[len(coords)-1])
	if len(coords) > 1 {
		q.Set("waypoints", strings.Join(coords[:len(coords)-1], "|"))
	}
	return mapsDirBase + "?" + q.Encode(), true
}

func formatCoord(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
}
