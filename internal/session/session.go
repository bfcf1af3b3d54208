// Package session ties the object registry, the selection controller and the
// position broadcaster together behind a single lock.
//
// Every exported method may be called from any goroutine. Registry and focus
// are only ever touched with the session mutex held, so the order of
// outbound messages matches the order in which events were applied.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscmix/spatializer/internal/broadcast"
	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
	"github.com/oscmix/spatializer/internal/snap"
	"github.com/oscmix/spatializer/pkg/core"
)

// ErrLayoutMismatch is returned when a layout does not describe exactly the
// registered objects.
var ErrLayoutMismatch = errors.New("layout does not match registered objects")

// Config holds the session timing.
type Config struct {
	// SettleDelay is the wait before the first full broadcast.
	SettleDelay time.Duration
}

// Session is the live state of the panel.
type Session struct {
	mu     sync.Mutex
	reg    *registry.Registry
	ctrl   *selection.Controller
	bc     *broadcast.Broadcaster
	focus  selection.Focus
	settle *broadcast.Settle
	closed bool

	settleDelay time.Duration
	logger      *slog.Logger

	// mirrors focus.Object for log context, readable without the lock
	focused atomic.Int64
}

// New creates a session. ctrl must operate on reg.
func New(reg *registry.Registry, ctrl *selection.Controller, bc *broadcast.Broadcaster, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		reg:         reg,
		ctrl:        ctrl,
		bc:          bc,
		settleDelay: cfg.SettleDelay,
		logger:      logger,
	}
}

// Start schedules the start-up broadcast. Calling it again is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settle != nil || s.closed {
		return
	}
	s.settle = s.bc.StartSettle(s.settleDelay, &s.mu, s.reg.All)
	s.logger.Debug("settle scheduled", "delay", s.settleDelay, "objects", s.reg.Len())
}

// Close cancels a pending start-up broadcast.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.settle.Stop() {
		s.logger.Info("session closed before initial broadcast")
	}
}

// Settled is closed once the start-up broadcast has run or been cancelled
// by Close. It is nil before Start.
func (s *Session) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settle == nil {
		return nil
	}
	return s.settle.Done()
}

// PointerDown applies a pointer press with every candidate under the pointer.
func (s *Session) PointerDown(hits []selection.Hit) selection.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, outcome := s.ctrl.PointerDown(s.focus, hits)
	s.setFocus(f)

	if outcome == selection.Unchanged {
		s.logger.Debug("pointer down without target", "hits", len(hits))
	} else {
		s.logger.Debug("pointer down", "outcome", outcome, "object", f.Object)
	}
	return outcome
}

// PointerMove drags every dragging object towards pointer and broadcasts
// the new bearings.
func (s *Session) PointerMove(pointer geo.Position) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.ctrl.PointerMove(pointer)
	for _, id := range moved {
		o, ok := s.reg.Get(id)
		if !ok {
			continue
		}
		// Failures are logged by the broadcaster.
		_ = s.bc.Position(id, o.Bearing())
	}
	return moved
}

// PointerUp releases every drag.
func (s *Session) PointerUp() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerUp(s.focus)
}

// Snap moves the focused object to its nearest zone and broadcasts the zone.
func (s *Session) Snap() (selection.SnapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.ctrl.Snap(s.focus)
	switch {
	case errors.Is(err, selection.ErrNoFocus):
		s.logger.Debug("snap ignored", "error", err)
		return res, err
	case errors.Is(err, snap.ErrNoZones):
		s.logger.Warn("snap zones not configured", "error", err)
		return res, err
	case err != nil:
		s.logger.Warn("snap failed", "error", err)
		return res, err
	}

	s.logger.Debug("snapped", "object", res.ID, "from", res.From, "zone", res.Zone)
	_ = s.bc.Snapped(res.ID, res.Zone)
	return res, nil
}

// Focus returns the current focus.
func (s *Session) Focus() selection.Focus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Objects returns a snapshot of every object in registry order.
func (s *Session) Objects() []registry.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.All()
}

// Len returns the number of registered objects.
func (s *Session) Len() int {
	return s.reg.Len()
}

// SetLabel changes the label text of an object.
func (s *Session) SetLabel(id int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.SetLabel(id, text)
}

// Layout captures the current positions and labels under name.
func (s *Session) Layout(name string) core.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects := s.reg.All()
	l := core.Layout{
		Name:      core.NormalizeName(name),
		Positions: make([]core.Point, len(objects)),
		Labels:    make([]string, len(objects)),
		SavedAt:   time.Now().UTC(),
	}
	for i, o := range objects {
		l.Positions[i] = core.Point{X: o.Position.X, Y: o.Position.Y}
		l.Labels[i] = o.Label
	}
	return l
}

// ApplyLayout moves every object to the layout's positions, sets its labels
// and re-broadcasts all positions. A layout whose lengths differ from the
// object count is refused without touching any object.
func (s *Session) ApplyLayout(l core.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.reg.Len()
	if len(l.Positions) != n || len(l.Labels) != n {
		err := fmt.Errorf("%w: %q has %d positions and %d labels, want %d",
			ErrLayoutMismatch, l.Name, len(l.Positions), len(l.Labels), n)
		s.logger.Warn("layout not applied", "error", err)
		return err
	}

	for i := range n {
		id := i + 1
		p := l.Positions[i]
		if err := s.reg.SetPosition(id, geo.Position{X: p.X, Y: p.Y}); err != nil {
			return fmt.Errorf("apply layout %q: %w", l.Name, err)
		}
		_ = s.reg.SetLabel(id, l.Labels[i])
		_ = s.reg.ClearSnapped(id)
	}

	s.logger.Info("layout applied", "name", l.Name, "objects", n)
	_ = s.bc.All(s.reg.All())
	return nil
}

// LogAttrs returns attributes describing the session for log records.
// It never takes the session lock.
func (s *Session) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("objects", s.reg.Len()),
		slog.Int64("focus", s.focused.Load()),
	}
}

func (s *Session) setFocus(f selection.Focus) {
	s.focus = f
	s.focused.Store(int64(f.Object))
}
