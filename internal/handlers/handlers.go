// Package handlers turns front-end commands into session, storage and mixer
// calls. Every command is registered on the event dispatcher; typed payloads
// from the terminal panel and string arguments from other front ends are
// both accepted.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oscmix/spatializer/internal/dispatcher"
	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/mixer"
	"github.com/oscmix/spatializer/internal/selection"
	"github.com/oscmix/spatializer/internal/session"
	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/internal/util"
	"github.com/oscmix/spatializer/pkg/core"
)

// Commands understood by the service.
const (
	CmdPointerDown  = ":POINTER:DOWN:"
	CmdPointerMove  = ":POINTER:MOVE:"
	CmdPointerUp    = ":POINTER:UP:"
	CmdSnap         = ":SNAP:"
	CmdLabelSet     = ":LABEL:SET:"
	CmdLayoutSave   = ":LAYOUT:SAVE:"
	CmdLayoutLoad   = ":LAYOUT:LOAD:"
	CmdLayoutDelete = ":LAYOUT:DELETE:"
	CmdLayoutList   = ":LAYOUT:LIST:"
	CmdSoloToggle   = ":SOLO:TOGGLE:"
	CmdSoloClear    = ":SOLO:CLEAR:"
	CmdFaderSet     = ":FADER:SET:"
)

// ErrNoStore is returned by layout commands when no store is configured.
var ErrNoStore = errors.New("no layout store configured")

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session *session.Session
	Store   storage.Backend
	Solo    *mixer.Solo
	// Faders by name, e.g. "master" and "reverb".
	Faders map[string]*mixer.Fader
	Logger *slog.Logger
}

// FaderLevel is the payload of :FADER:SET:.
type FaderLevel struct {
	Name  string
	Value float64
}

// LabelText is the payload of :LABEL:SET:.
type LabelText struct {
	ID   int
	Text string
}

// Service provides the command handlers.
type Service struct {
	deps Dependencies
}

// NewService creates a service. Session is required; the other
// dependencies disable their commands when nil.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers every command with the dispatcher. Pointer
// commands run synchronously so outbound messages keep input order.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdPointerDown, s.handlePointerDown)
	d.Register(CmdPointerMove, s.handlePointerMove)
	d.Register(CmdPointerUp, s.handlePointerUp)
	d.Register(CmdSnap, s.handleSnap, dispatcher.Logged())
	d.Register(CmdLabelSet, s.handleLabelSet, dispatcher.Logged())

	d.Register(CmdLayoutSave, s.handleLayoutSave, dispatcher.Logged())
	d.Register(CmdLayoutLoad, s.handleLayoutLoad, dispatcher.Logged())
	d.Register(CmdLayoutDelete, s.handleLayoutDelete, dispatcher.Logged())
	d.Register(CmdLayoutList, s.handleLayoutList)

	d.Register(CmdSoloToggle, s.handleSoloToggle, dispatcher.Logged())
	d.Register(CmdSoloClear, s.handleSoloClear, dispatcher.Logged())
	d.Register(CmdFaderSet, s.handleFaderSet)
}

func (s *Service) handlePointerDown(e dispatcher.Event) (any, error) {
	hits, ok := e.Payload.([]selection.Hit)
	if !ok {
		var err error
		if hits, err = ParseHits(e.Args); err != nil {
			return nil, fmt.Errorf("pointer down: %w", err)
		}
	}
	return s.deps.Session.PointerDown(hits), nil
}

func (s *Service) handlePointerMove(e dispatcher.Event) (any, error) {
	p, ok := e.Payload.(geo.Position)
	if !ok {
		var err error
		if p, err = ParsePoint(e.Args); err != nil {
			return nil, fmt.Errorf("pointer move: %w", err)
		}
	}
	return s.deps.Session.PointerMove(p), nil
}

func (s *Service) handlePointerUp(dispatcher.Event) (any, error) {
	return s.deps.Session.PointerUp(), nil
}

func (s *Service) handleSnap(dispatcher.Event) (any, error) {
	res, err := s.deps.Session.Snap()
	if errors.Is(err, selection.ErrNoFocus) {
		// Snapping with nothing selected does nothing.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) handleLabelSet(e dispatcher.Event) (any, error) {
	lt, ok := e.Payload.(LabelText)
	if !ok {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("label set: want id and text, got %d args", len(e.Args))
		}
		id, err := parseInt(e.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("label set: %w", err)
		}
		lt = LabelText{ID: id, Text: util.Unquote(strings.Join(e.Args[1:], ","))}
	}
	if err := s.deps.Session.SetLabel(lt.ID, lt.Text); err != nil {
		return nil, err
	}
	return lt, nil
}

func (s *Service) handleLayoutSave(e dispatcher.Event) (any, error) {
	if s.deps.Store == nil {
		return nil, ErrNoStore
	}
	name, err := storage.ValidateName(s.layoutName(e))
	if err != nil {
		return nil, err
	}
	l := s.deps.Session.Layout(name)
	if err := s.deps.Store.Save(l); err != nil {
		return nil, fmt.Errorf("saving layout: %w", err)
	}
	s.deps.Logger.Info("layout saved", "name", l.Name, "objects", len(l.Positions))
	return l.Info(), nil
}

func (s *Service) handleLayoutLoad(e dispatcher.Event) (any, error) {
	if s.deps.Store == nil {
		return nil, ErrNoStore
	}
	l, err := s.deps.Store.Load(s.layoutName(e))
	if err != nil {
		return nil, err
	}
	if err := s.deps.Session.ApplyLayout(l); err != nil {
		return nil, err
	}
	return l.Info(), nil
}

func (s *Service) handleLayoutDelete(e dispatcher.Event) (any, error) {
	if s.deps.Store == nil {
		return nil, ErrNoStore
	}
	name := s.layoutName(e)
	if err := s.deps.Store.Delete(name); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("layout deleted", "name", core.NormalizeName(name))
	return nil, nil
}

func (s *Service) handleLayoutList(dispatcher.Event) (any, error) {
	if s.deps.Store == nil {
		return nil, ErrNoStore
	}
	return s.deps.Store.List()
}

func (s *Service) handleSoloToggle(e dispatcher.Event) (any, error) {
	if s.deps.Solo == nil {
		return nil, errors.New("solo not configured")
	}
	ch, ok := e.Payload.(int)
	if !ok {
		var err error
		if ch, err = parseInt(e.Arg(0)); err != nil {
			return nil, fmt.Errorf("solo toggle: %w", err)
		}
	}
	return s.deps.Solo.Toggle(ch)
}

func (s *Service) handleSoloClear(dispatcher.Event) (any, error) {
	if s.deps.Solo == nil {
		return nil, errors.New("solo not configured")
	}
	s.deps.Solo.Clear()
	return nil, nil
}

func (s *Service) handleFaderSet(e dispatcher.Event) (any, error) {
	lvl, ok := e.Payload.(FaderLevel)
	if !ok {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("fader set: want name and value, got %d args", len(e.Args))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(e.Arg(1)), 64)
		if err != nil {
			return nil, fmt.Errorf("fader set: %w", err)
		}
		lvl = FaderLevel{Name: util.Unquote(e.Arg(0)), Value: v}
	}
	f, ok := s.deps.Faders[strings.ToLower(lvl.Name)]
	if !ok {
		return nil, fmt.Errorf("unknown fader %q", lvl.Name)
	}
	return f.Set(lvl.Value), nil
}

func (s *Service) layoutName(e dispatcher.Event) string {
	if name, ok := e.Payload.(string); ok {
		return name
	}
	return util.Unquote(strings.Join(e.Args, ","))
}
