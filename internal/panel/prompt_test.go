package panel

import (
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/internal/broadcast"
	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/dispatcher"
	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/handlers"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
	"github.com/oscmix/spatializer/internal/session"
	"github.com/oscmix/spatializer/internal/snap"
	"github.com/oscmix/spatializer/internal/storage/memory"
	"github.com/oscmix/spatializer/pkg/core"
	"github.com/oscmix/spatializer/pkg/protocol"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func key(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m, _ = update(t, m, key(string(r)))
	}
	return m
}

func TestPrompt_SaveAndLoadLayout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.Spread(4, geo.DefaultRadius)
	rec := &protocol.Recorder{}
	bc, err := broadcast.New(rec, broadcast.WithLogger(logger))
	require.NoError(t, err)
	ctrl := selection.New(reg, snap.NewCatalog(nil), selection.Config{Radius: geo.DefaultRadius, Labels: 4})
	sess := session.New(reg, ctrl, bc, session.Config{}, logger)

	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	store := memory.New(config.MemoryConfig{})
	handlers.NewService(handlers.Dependencies{Session: sess, Store: store, Logger: logger}).RegisterHandlers(d)

	m := New(sess, d, Config{Radius: geo.DefaultRadius, Labels: 4})

	// label object 1 through the prompt
	sess.PointerDown([]selection.Hit{selection.ObjectHit(1)})
	sess.PointerUp()
	m, _ = update(t, m, key("e"))
	m = typeText(t, m, "Lead Vox")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `object 1 labelled "Lead Vox"`, m.Status())

	m, _ = update(t, m, key("w"))
	m = typeText(t, m, "front of house")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `saved layout "front of house" (4 objects)`, m.Status())

	sess.PointerDown([]selection.Hit{selection.ObjectHit(1)})
	sess.PointerMove(geo.Position{X: 0, Y: -3})
	sess.PointerUp()
	require.NoError(t, sess.SetLabel(1, "changed"))
	rec.Reset()

	m, _ = update(t, m, key("o"))
	m = typeText(t, m, "front of house")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `loaded layout "front of house"`, m.Status())

	o, _ := reg.Get(1)
	assert.Equal(t, "Lead Vox", o.Label)
	assert.Equal(t, 0, o.Bearing())
	assert.Equal(t, []protocol.Message{
		protocol.ObjectPosition(1, 0),
		protocol.ObjectPosition(2, 90),
		protocol.ObjectPosition(3, 180),
		protocol.ObjectPosition(4, 270),
	}, rec.Messages())

	m, _ = update(t, m, key("l"))
	assert.Equal(t, "layouts: front of house", m.Status())

	m, _ = update(t, m, key("x"))
	m = typeText(t, m, "front of house")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `deleted layout "front of house"`, m.Status())

	m, _ = update(t, m, key("l"))
	assert.Equal(t, "no saved layouts", m.Status())
}

func TestPrompt_EditingKeys(t *testing.T) {
	d := &fakeDispatcher{}
	m, _ := newModel(d)

	m, _ = update(t, m, key("w"))
	m = typeText(t, m, "showx")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Contains(t, m.View(), "save layout: show█")

	// keys type into the prompt instead of acting
	m, _ = update(t, m, key("q"))
	m, _ = update(t, m, key("s"))
	assert.Empty(t, d.events)
	assert.Contains(t, m.View(), "save layout: showqs█")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, m.View(), "save layout:")
	assert.Empty(t, d.events)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
}

func TestPrompt_LabelNeedsFocus(t *testing.T) {
	d := &fakeDispatcher{}
	m, st := newModel(d)

	m, _ = update(t, m, key("e"))
	assert.Equal(t, "select an object to label", m.Status())
	assert.False(t, m.prompt.active())

	st.focus = selection.Focus{Object: 1, Label: 1}
	m, _ = update(t, m, key("e"))
	assert.Contains(t, m.View(), "label: Vox█")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, d.events, 1)
	assert.Equal(t, handlers.CmdLabelSet, d.events[0].Command)
	assert.Equal(t, handlers.LabelText{ID: 1, Text: "Vo"}, d.events[0].Payload)
}

func TestPrompt_FailureShownInStatus(t *testing.T) {
	d := &fakeDispatcher{err: handlers.ErrNoStore}
	m, _ := newModel(d)

	m, _ = update(t, m, key("o"))
	m = typeText(t, m, "show")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, handlers.ErrNoStore.Error(), m.Status())
	assert.Equal(t, "show", d.events[0].Payload)
}

func TestKeys_Reverb(t *testing.T) {
	d := &fakeDispatcher{out: map[string]any{handlers.CmdFaderSet: -8.0}}
	m, _ := newModel(d)
	m.cfg.Reverb = fixedFader{v: 0.3}

	m, _ = update(t, m, key("]"))
	m, _ = update(t, m, key("["))

	require.Len(t, d.events, 2)
	up := d.events[0].Payload.(handlers.FaderLevel)
	down := d.events[1].Payload.(handlers.FaderLevel)
	assert.Equal(t, "reverb", up.Name)
	assert.InDelta(t, 0.35, up.Value, 1e-12)
	assert.InDelta(t, 0.25, down.Value, 1e-12)
	assert.Equal(t, "reverb -8.0 dB", m.Status())
	assert.Contains(t, m.View(), "reverb -12.5 dB")
}

func TestListLayouts(t *testing.T) {
	d := &fakeDispatcher{out: map[string]any{handlers.CmdLayoutList: []core.LayoutInfo{{Name: "a"}, {Name: "b"}}}}
	m, _ := newModel(d)
	m, _ = update(t, m, key("l"))
	assert.Equal(t, "layouts: a, b", m.Status())
}
