// Package panel is the terminal front end: it draws the circle, the markers
// and the label column, and turns mouse and key input into dispatcher
// events.
package panel

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oscmix/spatializer/internal/dispatcher"
	"github.com/oscmix/spatializer/internal/handlers"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
)

// refreshInterval is how often meters and positions are redrawn.
const refreshInterval = 100 * time.Millisecond

// faderStep is how far one key press moves a fader.
const faderStep = 0.05

// State is the read side of the session.
type State interface {
	Objects() []registry.Object
	Focus() selection.Focus
}

// Dispatcher delivers front-end events.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Levels reports the input meters.
type Levels interface {
	Levels() []float64
}

// Soloed reports the soloed channel, 0 for none.
type Soloed interface {
	Soloed() int
}

// Fader reports a fader position.
type Fader interface {
	Value() float64
	Decibels() float64
}

// Config holds what the panel shows besides the session.
type Config struct {
	Radius  float64
	Labels  int
	Zones   []float64
	LocalIP string
	Target  string

	Meters Levels
	Solo   Soloed
	Master Fader
	Reverb Fader
}

type tickMsg time.Time

// Model is the bubbletea model of the panel.
type Model struct {
	state State
	d     Dispatcher
	cfg   Config
	grid  Grid

	pressed  bool
	prompt   prompt
	status   string
	quitting bool
}

// New creates a panel model.
func New(state State, d Dispatcher, cfg Config) Model {
	return Model{
		state: state,
		d:     d,
		cfg:   cfg,
		grid:  DefaultGrid(cfg.Radius, cfg.Labels),
	}
}

// Grid returns the cell mapping used for hit testing.
func (m Model) Grid() Grid {
	return m.grid
}

// Status returns the last status line.
func (m Model) Status() string {
	return m.status
}

// Init implements tea.Model interface.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case tea.MouseMsg:
		return m.mouse(msg), nil
	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m Model) mouse(msg tea.MouseMsg) Model {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		hits := m.grid.HitTest(msg.X, msg.Y, m.state.Objects())
		out, err := m.dispatch(handlers.CmdPointerDown, hits)
		if err == nil {
			m.pressed = true
			if o, ok := out.(selection.Outcome); ok && o != selection.Unchanged {
				m.status = o.String()
			}
		}
	case tea.MouseActionMotion:
		if m.pressed {
			m.dispatch(handlers.CmdPointerMove, m.grid.ToPanel(msg.X, msg.Y))
		}
	case tea.MouseActionRelease:
		if m.pressed {
			m.pressed = false
			m.dispatch(handlers.CmdPointerUp, nil)
		}
	}
	return m
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt.active() {
		return m.promptKey(msg)
	}
	switch k := msg.String(); k {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "s":
		out, err := m.dispatch(handlers.CmdSnap, nil)
		if err == nil {
			if res, ok := out.(selection.SnapResult); ok {
				m.status = fmt.Sprintf("object %d snapped to %.0f°", res.ID, res.Zone)
			}
		}
	case "c":
		if _, err := m.dispatch(handlers.CmdSoloClear, nil); err == nil {
			m.status = "solo cleared"
		}
	case "+", "=":
		m.stepFader("master", m.cfg.Master, faderStep)
	case "-":
		m.stepFader("master", m.cfg.Master, -faderStep)
	case "]":
		m.stepFader("reverb", m.cfg.Reverb, faderStep)
	case "[":
		m.stepFader("reverb", m.cfg.Reverb, -faderStep)
	case "w":
		m = m.openPrompt(promptSave)
	case "o":
		m = m.openPrompt(promptLoad)
	case "x":
		m = m.openPrompt(promptDelete)
	case "e":
		m = m.openPrompt(promptLabel)
	case "l":
		m.listLayouts()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		ch := int(k[0] - '0')
		if out, err := m.dispatch(handlers.CmdSoloToggle, ch); err == nil {
			m.status = fmt.Sprintf("solo %d %s", ch, map[bool]string{true: "on", false: "off"}[out == true])
		}
	}
	return m, nil
}

func (m *Model) stepFader(name string, f Fader, delta float64) {
	if f == nil {
		return
	}
	if out, err := m.dispatch(handlers.CmdFaderSet, handlers.FaderLevel{Name: name, Value: f.Value() + delta}); err == nil {
		m.status = fmt.Sprintf("%s %.1f dB", name, out)
	}
}

// dispatch sends an event and records a failure in the status line.
func (m *Model) dispatch(cmd string, payload any) (any, error) {
	out, err := m.d.Dispatch(dispatcher.Event{Command: cmd, Payload: payload})
	if err != nil {
		m.status = err.Error()
	}
	return out, err
}
