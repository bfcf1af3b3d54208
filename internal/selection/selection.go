// Package selection resolves pointer input into selection, drag and snap
// transitions on the object registry.
//
// The controller keeps no focus of its own: every transition takes the
// current Focus and returns the updated one.
package selection

import (
	"errors"
	"fmt"

	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/snap"
)

// ErrNoFocus is returned by Snap when no object is focused.
var ErrNoFocus = errors.New("no focused object")

// HitKind tells what a hit-test candidate is.
type HitKind int

const (
	// HitObject is a marker on the circle.
	HitObject HitKind = iota
	// HitLabel is the companion label of an object.
	HitLabel
)

func (k HitKind) String() string {
	if k == HitLabel {
		return "label"
	}
	return "object"
}

// Hit is one candidate under the pointer. ID is the object id, which is
// also the id of the object's label.
type Hit struct {
	Kind HitKind
	ID   int
}

// ObjectHit is a hit on the marker of object id.
func ObjectHit(id int) Hit { return Hit{Kind: HitObject, ID: id} }

// LabelHit is a hit on the label of object id.
func LabelHit(id int) Hit { return Hit{Kind: HitLabel, ID: id} }

// Focus is the last selected object and its highlighted label. Zero means none.
type Focus struct {
	Object int
	Label  int
}

// HasObject reports whether an object is focused.
func (f Focus) HasObject() bool { return f.Object > 0 }

// HasLabel reports whether a label is highlighted.
func (f Focus) HasLabel() bool { return f.Label > 0 }

// Outcome describes what a pointer-down did.
type Outcome int

const (
	Unchanged Outcome = iota
	LabelSelected
	DragStarted
)

func (o Outcome) String() string {
	switch o {
	case LabelSelected:
		return "label-selected"
	case DragStarted:
		return "drag-started"
	default:
		return "unchanged"
	}
}

// SnapResult describes a completed snap.
type SnapResult struct {
	ID       int
	From     float64
	Zone     float64
	Position geo.Position
}

// Config holds the controller's fixed geometry.
type Config struct {
	// Radius of the circle dragged and snapped objects are held on.
	Radius float64
	// Labels is how many objects have a companion label, starting at id 1.
	Labels int
}

// Controller applies transitions to a registry.
type Controller struct {
	reg     *registry.Registry
	catalog *snap.Catalog
	radius  float64
	labels  int
}

// New creates a Controller. A non-positive radius falls back to geo.DefaultRadius.
func New(reg *registry.Registry, catalog *snap.Catalog, cfg Config) *Controller {
	radius := cfg.Radius
	if radius <= 0 {
		radius = geo.DefaultRadius
	}
	return &Controller{
		reg:     reg,
		catalog: catalog,
		radius:  radius,
		labels:  cfg.Labels,
	}
}

// Radius returns the circle radius used for drags and snaps.
func (c *Controller) Radius() float64 {
	return c.radius
}

// PointerDown evaluates a pointer press against every candidate under the
// pointer. A label hit always wins and selects its object without dragging.
// Otherwise the topmost object hit is focused and starts dragging.
func (c *Controller) PointerDown(f Focus, hits []Hit) (Focus, Outcome) {
	for _, h := range hits {
		if h.Kind != HitLabel || !c.hasLabel(h.ID) {
			continue
		}
		c.demote(f, h.ID)
		c.promote(h.ID, registry.Selected)
		return Focus{Object: h.ID, Label: h.ID}, LabelSelected
	}

	var (
		top   registry.Object
		found bool
	)
	for _, h := range hits {
		if h.Kind != HitObject {
			continue
		}
		o, ok := c.reg.Get(h.ID)
		if !ok {
			continue
		}
		if !found || o.Above(top) {
			top, found = o, true
		}
	}
	if !found {
		return f, Unchanged
	}

	c.demote(f, top.ID)
	c.promote(top.ID, registry.Dragging)
	return Focus{Object: top.ID, Label: c.labelFor(top.ID)}, DragStarted
}

// PointerMove projects the pointer onto the circle for every dragging object
// and returns the ids that moved, in registry order. A pointer on the centre
// keeps each object's current direction.
func (c *Controller) PointerMove(pointer geo.Position) []int {
	var moved []int
	for _, o := range c.reg.All() {
		if o.State != registry.Dragging {
			continue
		}
		_ = c.reg.SetPosition(o.ID, geo.OnCircle(pointer, o.Position, c.radius))
		moved = append(moved, o.ID)
	}
	return moved
}

// PointerUp ends every drag. The focused object stays selected; any other
// dragging object goes back to idle.
func (c *Controller) PointerUp(f Focus) []int {
	var released []int
	for _, o := range c.reg.All() {
		if o.State != registry.Dragging {
			continue
		}
		next := registry.Idle
		if o.ID == f.Object {
			next = registry.Selected
		}
		_ = c.reg.SetState(o.ID, next)
		released = append(released, o.ID)
	}
	return released
}

// Snap moves the focused object to the nearest allowed bearing. The
// interaction state is left alone.
func (c *Controller) Snap(f Focus) (SnapResult, error) {
	if !f.HasObject() {
		return SnapResult{}, ErrNoFocus
	}
	o, ok := c.reg.Get(f.Object)
	if !ok {
		return SnapResult{}, fmt.Errorf("snap %d: %w", f.Object, registry.ErrUnknownObject)
	}

	from := geo.BearingOf(o.Position)
	zone, err := c.catalog.Nearest(from)
	if err != nil {
		return SnapResult{}, fmt.Errorf("snap %d: %w", o.ID, err)
	}

	pos := geo.FromBearing(zone, c.radius)
	_ = c.reg.SetSnapped(o.ID, zone)
	_ = c.reg.SetPosition(o.ID, pos)

	return SnapResult{ID: o.ID, From: from, Zone: zone, Position: pos}, nil
}

// demote returns the previous focus object to idle unless it is next.
func (c *Controller) demote(f Focus, next int) {
	if !f.HasObject() || f.Object == next {
		return
	}
	_ = c.reg.SetState(f.Object, registry.Idle)
	_ = c.reg.SetPriority(f.Object, registry.BasePriority)
}

func (c *Controller) promote(id int, state registry.State) {
	_ = c.reg.SetState(id, state)
	_ = c.reg.SetPriority(id, registry.FocusPriority)
}

func (c *Controller) hasLabel(id int) bool {
	_, ok := c.reg.Get(id)
	return ok && id <= c.labels
}

func (c *Controller) labelFor(id int) int {
	if c.hasLabel(id) {
		return id
	}
	return 0
}
