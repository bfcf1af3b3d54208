// Package registry holds the fixed set of objects tracked on the panel circle.
package registry

import (
	"errors"
	"fmt"

	"github.com/oscmix/spatializer/internal/geo"
)

// ErrUnknownObject is returned for ids outside the registered range.
var ErrUnknownObject = errors.New("unknown object")

// Priorities mirror the panel's stacking order: the focused object sits above the rest.
const (
	BasePriority  = 8
	FocusPriority = 11
)

// State is the interaction state of an object.
type State int

const (
	Idle State = iota
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Object is a single draggable marker.
type Object struct {
	ID       int
	Position geo.Position
	State    State
	Priority int

	// SnappedBearing caches the zone the object was last snapped to.
	// It is only meaningful while Snapped is true.
	SnappedBearing float64
	Snapped        bool

	// Label is the text of the object's companion label.
	Label string
}

// Bearing returns the object's current rounded bearing.
func (o Object) Bearing() int {
	return geo.ToBearing(o.Position)
}

// Above reports whether o is stacked above other. Higher priority wins;
// on equal priority the object registered first wins.
func (o Object) Above(other Object) bool {
	if o.Priority != other.Priority {
		return o.Priority > other.Priority
	}
	return o.ID < other.ID
}

// Registry is the fixed-size, ordered set of objects. IDs are 1-based and
// follow registration order. It is not safe for concurrent use; callers
// serialise access (see session.Session).
type Registry struct {
	objects []Object
}

// New registers one object per position, in order.
func New(positions ...geo.Position) *Registry {
	r := &Registry{objects: make([]Object, len(positions))}
	for i, p := range positions {
		r.objects[i] = Object{
			ID:       i + 1,
			Position: p,
			State:    Idle,
			Priority: BasePriority,
		}
	}
	return r
}

// Spread registers n objects evenly around a circle of the given radius,
// the first one at the top.
func Spread(n int, radius float64) *Registry {
	positions := make([]geo.Position, 0, max(n, 0))
	for i := 0; i < n; i++ {
		positions = append(positions, geo.FromBearing(360*float64(i)/float64(n), radius))
	}
	return New(positions...)
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Get returns a copy of the object with the given id.
func (r *Registry) Get(id int) (Object, bool) {
	o := r.lookup(id)
	if o == nil {
		return Object{}, false
	}
	return *o, true
}

// All returns copies of every object in registration order.
func (r *Registry) All() []Object {
	out := make([]Object, len(r.objects))
	copy(out, r.objects)
	return out
}

// SetState changes an object's interaction state.
func (r *Registry) SetState(id int, state State) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("set state of %d: %w", id, ErrUnknownObject)
	}
	o.State = state
	return nil
}

// SetPosition moves an object.
func (r *Registry) SetPosition(id int, p geo.Position) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("set position of %d: %w", id, ErrUnknownObject)
	}
	o.Position = p
	return nil
}

// SetPriority changes an object's stacking priority.
func (r *Registry) SetPriority(id int, priority int) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("set priority of %d: %w", id, ErrUnknownObject)
	}
	o.Priority = priority
	return nil
}

// SetSnapped records the zone an object was snapped to.
func (r *Registry) SetSnapped(id int, bearing float64) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("set snapped bearing of %d: %w", id, ErrUnknownObject)
	}
	o.SnappedBearing = bearing
	o.Snapped = true
	return nil
}

// ClearSnapped forgets an object's snapped bearing.
func (r *Registry) ClearSnapped(id int) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("clear snapped bearing of %d: %w", id, ErrUnknownObject)
	}
	o.SnappedBearing = 0
	o.Snapped = false
	return nil
}

// SetLabel sets the text of an object's companion label.
func (r *Registry) SetLabel(id int, text string) error {
	o := r.lookup(id)
	if o == nil {
		return fmt.Errorf("set label of %d: %w", id, ErrUnknownObject)
	}
	o.Label = text
	return nil
}

func (r *Registry) lookup(id int) *Object {
	if id < 1 || id > len(r.objects) {
		return nil
	}
	return &r.objects[id-1]
}
