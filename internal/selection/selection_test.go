package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/snap"
)

func newTestController(t *testing.T, n int) (*Controller, *registry.Registry) {
	t.Helper()
	reg := registry.Spread(n, geo.DefaultRadius)
	c := New(reg, snap.NewCatalog([]float64{0, 90, 180, 270}), Config{Radius: geo.DefaultRadius, Labels: n})
	return c, reg
}

func state(t *testing.T, reg *registry.Registry, id int) registry.State {
	t.Helper()
	o, ok := reg.Get(id)
	require.True(t, ok)
	return o.State
}

func TestPointerDown_ObjectHitStartsDrag(t *testing.T) {
	c, reg := newTestController(t, 4)

	f, out := c.PointerDown(Focus{}, []Hit{ObjectHit(2)})

	assert.Equal(t, DragStarted, out)
	assert.Equal(t, Focus{Object: 2, Label: 2}, f)
	assert.Equal(t, registry.Dragging, state(t, reg, 2))
	o, _ := reg.Get(2)
	assert.Equal(t, registry.FocusPriority, o.Priority)
}

func TestPointerDown_LabelWinsOverObject(t *testing.T) {
	orders := [][]Hit{
		{ObjectHit(1), LabelHit(3)},
		{LabelHit(3), ObjectHit(1)},
		{ObjectHit(3), LabelHit(3)},
	}

	for _, hits := range orders {
		c, reg := newTestController(t, 4)

		f, out := c.PointerDown(Focus{}, hits)

		assert.Equal(t, LabelSelected, out, "hits %v", hits)
		assert.Equal(t, Focus{Object: 3, Label: 3}, f)
		assert.Equal(t, registry.Selected, state(t, reg, 3), "label selection never drags")
		assert.Equal(t, registry.Idle, state(t, reg, 1))
	}
}

func TestPointerDown_LabelDemotesPreviousFocus(t *testing.T) {
	c, reg := newTestController(t, 4)

	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(1)})
	c.PointerUp(f)
	require.Equal(t, registry.Selected, state(t, reg, 1))

	f, _ = c.PointerDown(f, []Hit{LabelHit(2)})

	assert.Equal(t, Focus{Object: 2, Label: 2}, f)
	assert.Equal(t, registry.Idle, state(t, reg, 1))
	o, _ := reg.Get(1)
	assert.Equal(t, registry.BasePriority, o.Priority)
	assert.Equal(t, registry.Selected, state(t, reg, 2))
}

func TestPointerDown_TopmostObjectWins(t *testing.T) {
	c, reg := newTestController(t, 4)
	require.NoError(t, reg.SetPriority(3, registry.FocusPriority))

	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(2), ObjectHit(3), ObjectHit(4)})
	assert.Equal(t, 3, f.Object)

	c2, _ := newTestController(t, 4)
	f, _ = c2.PointerDown(Focus{}, []Hit{ObjectHit(4), ObjectHit(2)})
	assert.Equal(t, 2, f.Object, "equal priority resolves to the first registered")
}

func TestPointerDown_NoHitsKeepsState(t *testing.T) {
	c, reg := newTestController(t, 2)
	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(1)})
	c.PointerUp(f)

	got, out := c.PointerDown(f, nil)
	assert.Equal(t, Unchanged, out)
	assert.Equal(t, f, got)
	assert.Equal(t, registry.Selected, state(t, reg, 1))

	got, out = c.PointerDown(f, []Hit{ObjectHit(99), LabelHit(42)})
	assert.Equal(t, Unchanged, out, "unknown ids are lookup misses")
	assert.Equal(t, f, got)
}

func TestPointerDown_ObjectWithoutLabel(t *testing.T) {
	reg := registry.Spread(3, geo.DefaultRadius)
	c := New(reg, snap.NewCatalog(nil), Config{Labels: 1})

	f, out := c.PointerDown(Focus{}, []Hit{ObjectHit(3)})
	assert.Equal(t, DragStarted, out)
	assert.Equal(t, Focus{Object: 3}, f)

	_, out = c.PointerDown(f, []Hit{LabelHit(3)})
	assert.Equal(t, Unchanged, out, "object 3 has no label")
}

func TestPointerMove_StaysOnCircle(t *testing.T) {
	c, reg := newTestController(t, 3)
	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(1)})

	pointers := []geo.Position{
		{X: 10, Y: 0},
		{X: 0.1, Y: -0.2},
		{},
		{X: -7, Y: 7},
		{X: 1e-15, Y: 0},
	}
	for _, p := range pointers {
		moved := c.PointerMove(p)
		assert.Equal(t, []int{1}, moved)
		o, _ := reg.Get(1)
		assert.False(t, math.IsNaN(o.Position.X) || math.IsNaN(o.Position.Y), "pointer %v", p)
		assert.InDelta(t, geo.DefaultRadius, o.Position.Length(), 1e-9, "pointer %v", p)
	}

	o, _ := reg.Get(1)
	assert.Equal(t, 315, o.Bearing())
	assert.Equal(t, 1, f.Object)
}

func TestPointerMove_ZeroPointerKeepsDirection(t *testing.T) {
	c, reg := newTestController(t, 2)
	c.PointerDown(Focus{}, []Hit{ObjectHit(1)})

	c.PointerMove(geo.Position{X: 5, Y: 0})
	c.PointerMove(geo.Position{})

	o, _ := reg.Get(1)
	assert.Equal(t, 90, o.Bearing())
}

func TestPointerMove_IgnoresIdleObjects(t *testing.T) {
	c, reg := newTestController(t, 2)

	assert.Empty(t, c.PointerMove(geo.Position{X: 1, Y: 1}))
	o, _ := reg.Get(1)
	assert.Equal(t, 0, o.Bearing())
}

func TestPointerUp(t *testing.T) {
	c, reg := newTestController(t, 3)
	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(2)})
	// A stray drag that is not the focus.
	require.NoError(t, reg.SetState(3, registry.Dragging))

	released := c.PointerUp(f)

	assert.Equal(t, []int{2, 3}, released)
	assert.Equal(t, registry.Selected, state(t, reg, 2))
	assert.Equal(t, registry.Idle, state(t, reg, 3))
	assert.Empty(t, c.PointerMove(geo.Position{X: 1}))
}

func TestSnap(t *testing.T) {
	c, reg := newTestController(t, 2)
	require.NoError(t, reg.SetPosition(1, geo.FromBearing(85, geo.DefaultRadius)))
	f, _ := c.PointerDown(Focus{}, []Hit{LabelHit(1)})

	res, err := c.Snap(f)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ID)
	assert.InDelta(t, 85, res.From, 1e-9)
	assert.Equal(t, 90.0, res.Zone)

	o, _ := reg.Get(1)
	assert.True(t, o.Snapped)
	assert.Equal(t, 90.0, o.SnappedBearing)
	assert.Equal(t, 90, o.Bearing())
	assert.InDelta(t, geo.DefaultRadius, o.Position.Length(), 1e-9)
	assert.Equal(t, registry.Selected, o.State, "snap leaves the interaction state alone")
}

func TestSnap_NoFocus(t *testing.T) {
	c, reg := newTestController(t, 2)
	before := reg.All()

	_, err := c.Snap(Focus{})
	assert.ErrorIs(t, err, ErrNoFocus)
	assert.Equal(t, before, reg.All())
}

func TestSnap_NoZones(t *testing.T) {
	reg := registry.Spread(2, geo.DefaultRadius)
	c := New(reg, snap.NewCatalog(nil), Config{Labels: 2})
	f, _ := c.PointerDown(Focus{}, []Hit{ObjectHit(2)})
	before := reg.All()

	_, err := c.Snap(f)
	assert.ErrorIs(t, err, snap.ErrNoZones)
	assert.Equal(t, before, reg.All())
}

func TestNew_DefaultRadius(t *testing.T) {
	c := New(registry.New(), nil, Config{})
	assert.Equal(t, geo.DefaultRadius, c.Radius())
}
