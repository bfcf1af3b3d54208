// Package monitor periodically writes a snapshot of the panel state to a
// status file, for operators watching a headless instance.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// State is the read side of the session.
type State interface {
	Objects() []registry.Object
	Focus() selection.Focus
}

// Levels reports the input meters.
type Levels interface {
	Levels() []float64
}

// Soloed reports the soloed channel, 0 for none.
type Soloed interface {
	Soloed() int
}

// Decibels reports a fader level.
type Decibels interface {
	Decibels() float64
}

// Dependencies holds all dependencies for the monitor service. Only State
// and StatusPath are required.
type Dependencies struct {
	State      State
	Meters     Levels
	Solo       Soloed
	Faders     map[string]Decibels
	StatusPath string
	Interval   time.Duration
	Logger     *slog.Logger
	LocalIP    string
	Target     string
}

// ObjectStatus is one object in the status file.
type ObjectStatus struct {
	ID       int      `json:"id"`
	Bearing  int      `json:"bearing"`
	State    string   `json:"state"`
	Label    string   `json:"label,omitempty"`
	Snapped  *float64 `json:"snapped,omitempty"`
	Priority int      `json:"priority"`
}

// Status is the content of the status file.
type Status struct {
	Time    time.Time          `json:"time"`
	LocalIP string             `json:"localIp,omitempty"`
	Target  string             `json:"target,omitempty"`
	Focus   int                `json:"focus"`
	Label   int                `json:"focusLabel"`
	Objects []ObjectStatus     `json:"objects"`
	Soloed  int                `json:"soloed"`
	Meters  []float64          `json:"meters,omitempty"`
	Faders  map[string]float64 `json:"faders,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps: deps,
		now:  time.Now,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current panel status.
func (s *Service) GetStatus() Status {
	focus := s.deps.State.Focus()
	st := Status{
		Time:    s.now().UTC(),
		LocalIP: s.deps.LocalIP,
		Target:  s.deps.Target,
		Focus:   focus.Object,
		Label:   focus.Label,
	}

	for _, o := range s.deps.State.Objects() {
		obj := ObjectStatus{
			ID:       o.ID,
			Bearing:  o.Bearing(),
			State:    o.State.String(),
			Label:    o.Label,
			Priority: o.Priority,
		}
		if o.Snapped {
			b := o.SnappedBearing
			obj.Snapped = &b
		}
		st.Objects = append(st.Objects, obj)
	}

	if s.deps.Solo != nil {
		st.Soloed = s.deps.Solo.Soloed()
	}
	if s.deps.Meters != nil {
		st.Meters = s.deps.Meters.Levels()
	}
	if len(s.deps.Faders) > 0 {
		st.Faders = make(map[string]float64, len(s.deps.Faders))
		for name, f := range s.deps.Faders {
			st.Faders[name] = f.Decibels()
		}
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	if err := os.Rename(tmp, s.deps.StatusPath); err != nil {
		return fmt.Errorf("replacing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.State == nil || s.deps.StatusPath == "" {
		return fmt.Errorf("monitor needs a state and a status path")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			if err := s.WriteStatus(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
