package routeplan

import (
	"gonum.org/v1/gonum/floats"

	"github.com/fieldline/dispatch/core/geo"
	"github.com/fieldline/dispatch/core/model"
)

// nearestNeighborOrder greedily orders the resolvable, geocoded stops by
// great-circle distance, starting from the dispatcher's position. Stops
// without coordinates keep their relative order at the end of the route so
// nothing is silently lost when the remote optimizer is down.
func (b *Builder) nearestNeighborOrder(origin model.Coordinate, ids []string) []string {
	type stop struct {
		id  string
		loc model.Coordinate
	}
	var located []stop
	var unlocated []string
	for _, id := range ids {
		j, ok := b.resolver.Job(id)
		if !ok {
			continue
		}
		if j.Location == nil {
			unlocated = append(unlocated, id)
			continue
		}
		located = append(located, stop{id: id, loc: *j.Location})
	}

	order := make([]string, 0, len(ids))
	cur := origin
	for len(located) > 0 {
		dists := make([]float64, len(located))
		for i, s := range located {
			dists[i] = geo.DistanceMeters(cur, s.loc)
		}
		i := floats.MinIdx(dists)
		order = append(order, located[i].id)
		cur = located[i].loc
		located = append(located[:i], located[i+1:]...)
	}
	return append(order, unlocated...)
}
