package routeplan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fieldline/dispatch/core/model"
	"github.com/fieldline/dispatch/infra/logger"
)

type fakeOptimizer struct {
	order []string
	err   error
	calls int
}

func (f *fakeOptimizer) OptimizeRoute(_ context.Context, ids []string, _ *model.Coordinate) ([]string, error) {
	f.calls++
	return f.order, f.err
}

type fakeResolver map[string]model.Job

func (f fakeResolver) Job(id string) (model.Job, bool) {
	j, ok := f[id]
	return j, ok
}

func loc(lat, lng float64) *model.Coordinate {
	return &model.Coordinate{Lat: lat, Lng: lng}
}

func newTestBuilder(t *testing.T, opt *fakeOptimizer, r fakeResolver, fallback bool) *Builder {
	t.Helper()
	b, err := NewBuilder(opt, r, fallback, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return b
}

func TestAddRejectsDuplicates(t *testing.T) {
	b := newTestBuilder(t, &fakeOptimizer{}, fakeResolver{}, false)
	if err := b.Add("j1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Add("j1"); !errors.Is(err, ErrDuplicateStop) {
		t.Fatalf("duplicate add = %v want ErrDuplicateStop", err)
	}
	if b.Len() != 1 {
		t.Fatalf("route length = %d want 1", b.Len())
	}
}

func TestRemoveAndClear(t *testing.T) {
	b := newTestBuilder(t, &fakeOptimizer{}, fakeResolver{}, false)
	_ = b.Add("j1")
	_ = b.Add("j2")
	b.Remove("j1")
	b.Remove("missing")
	if got := b.IDs(); len(got) != 1 || got[0] != "j2" {
		t.Fatalf("after remove: %v", got)
	}
	b.Clear()
	if b.Len() != 0 {
		t.Fatal("clear must empty the route")
	}
}

func TestStopsAreRenumberedOnRead(t *testing.T) {
	r := fakeResolver{"j1": {ID: "j1"}, "j2": {ID: "j2"}, "j3": {ID: "j3"}}
	b := newTestBuilder(t, &fakeOptimizer{}, r, false)
	for _, id := range []string{"j1", "j2", "j3"} {
		_ = b.Add(id)
	}
	b.Remove("j2")
	stops := b.Stops()
	if len(stops) != 2 || stops[0].Seq != 1 || stops[1].Seq != 2 {
		t.Fatalf("stops must be renumbered for display: %+v", stops)
	}
}

func TestOptimizeFailsFastBelowTwoStops(t *testing.T) {
	opt := &fakeOptimizer{}
	b := newTestBuilder(t, opt, fakeResolver{"j1": {ID: "j1"}}, false)
	_ = b.Add("j1")
	if err := b.Optimize(context.Background(), nil); !errors.Is(err, ErrTooFewStops) {
		t.Fatalf("optimize = %v want ErrTooFewStops", err)
	}
	if opt.calls != 0 {
		t.Fatal("optimize below two stops must not call the network")
	}
	if got := b.IDs(); len(got) != 1 || got[0] != "j1" {
		t.Fatalf("order must be unchanged: %v", got)
	}
}

func TestOptimizeReplacesOrder(t *testing.T) {
	r := fakeResolver{"J1": {ID: "J1"}, "J2": {ID: "J2"}, "J3": {ID: "J3"}}
	opt := &fakeOptimizer{order: []string{"J3", "J1", "J2"}}
	b := newTestBuilder(t, opt, r, false)
	for _, id := range []string{"J1", "J2", "J3"} {
		_ = b.Add(id)
	}
	if err := b.Optimize(context.Background(), nil); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	got := b.IDs()
	want := []string{"J3", "J1", "J2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v want %v", got, want)
		}
	}
}

func TestOptimizeDropsUnknownAndAbsentIDs(t *testing.T) {
	r := fakeResolver{"J1": {ID: "J1"}, "J2": {ID: "J2"}, "J3": {ID: "J3"}}
	opt := &fakeOptimizer{order: []string{"J3", "J9"}} // J9 was never in the route
	b := newTestBuilder(t, opt, r, false)
	for _, id := range []string{"J1", "J2", "J3"} {
		_ = b.Add(id)
	}
	if err := b.Optimize(context.Background(), nil); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if got := b.IDs(); len(got) != 1 || got[0] != "J3" {
		t.Fatalf("order = %v want [J3]", got)
	}
}

func TestOptimizeDropsUnresolvableIDs(t *testing.T) {
	// J2 is in the route but no longer resolves to a job.
	r := fakeResolver{"J1": {ID: "J1"}}
	opt := &fakeOptimizer{order: []string{"J2", "J1"}}
	b := newTestBuilder(t, opt, r, false)
	_ = b.Add("J1")
	_ = b.Add("J2")
	if err := b.Optimize(context.Background(), nil); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if got := b.IDs(); len(got) != 1 || got[0] != "J1" {
		t.Fatalf("order = %v want [J1]", got)
	}
}

func TestOptimizeFailureLeavesOrderUnchanged(t *testing.T) {
	r := fakeResolver{"J1": {ID: "J1"}, "J2": {ID: "J2"}}
	opt := &fakeOptimizer{err: errors.New("offline")}
	b := newTestBuilder(t, opt, r, false)
	_ = b.Add("J1")
	_ = b.Add("J2")
	if err := b.Optimize(context.Background(), nil); err == nil {
		t.Fatal("expected optimize error")
	}
	got := b.IDs()
	if len(got) != 2 || got[0] != "J1" || got[1] != "J2" {
		t.Fatalf("failed optimize must not touch the order: %v", got)
	}
	if b.Optimizing() {
		t.Fatal("optimizing flag must clear after failure")
	}
}

func TestOptimizeFallbackNearestNeighbor(t *testing.T) {
	r := fakeResolver{
		"far":  {ID: "far", Location: loc(10, 10)},
		"near": {ID: "near", Location: loc(1, 1)},
		"mid":  {ID: "mid", Location: loc(5, 5)},
	}
	opt := &fakeOptimizer{err: errors.New("offline")}
	b := newTestBuilder(t, opt, r, true)
	for _, id := range []string{"far", "near", "mid"} {
		_ = b.Add(id)
	}
	origin := model.Coordinate{Lat: 0, Lng: 0}
	if err := b.Optimize(context.Background(), &origin); err != nil {
		t.Fatalf("fallback optimize: %v", err)
	}
	got := b.IDs()
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v want %v", got, want)
		}
	}
}

func TestNavigationURL(t *testing.T) {
	r := fakeResolver{
		"a": {ID: "a", Location: loc(-16.9, 145.7)},
		"b": {ID: "b"}, // no coordinates, skipped
		"c": {ID: "c", Location: loc(-17.0, 145.8)},
	}
	b := newTestBuilder(t, &fakeOptimizer{}, r, false)
	for _, id := range []string{"a", "b", "c"} {
		_ = b.Add(id)
	}
	u, ok := b.NavigationURL()
	if !ok {
		t.Fatal("expected a navigation URL")
	}
	if !strings.Contains(u, "destination=-17.000000%2C145.800000") {
		t.Fatalf("last qualifying stop must be the destination: %s", u)
	}
	if !strings.Contains(u, "waypoints=-16.900000%2C145.700000") {
		t.Fatalf("earlier stops must be waypoints: %s", u)
	}
}

func TestNavigationURLNoQualifyingStops(t *testing.T) {
	r := fakeResolver{"b": {ID: "b"}}
	b := newTestBuilder(t, &fakeOptimizer{}, r, false)
	_ = b.Add("b")
	if _, ok := b.NavigationURL(); ok {
		t.Fatal("no qualifying stops must not produce a URL")
	}
}
