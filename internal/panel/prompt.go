package panel

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oscmix/spatializer/internal/handlers"
	"github.com/oscmix/spatializer/pkg/core"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptSave
	promptLoad
	promptDelete
	promptLabel
)

var promptTitles = map[promptKind]string{
	promptSave:   "save layout: ",
	promptLoad:   "load layout: ",
	promptDelete: "delete layout: ",
	promptLabel:  "label: ",
}

// prompt is a one-line text input shown in place of the status line.
type prompt struct {
	kind  promptKind
	input []rune
	// object whose label is being edited
	target int
}

func (p prompt) active() bool {
	return p.kind != promptNone
}

func (p prompt) String() string {
	return promptTitles[p.kind] + string(p.input) + "█"
}

// openPrompt starts text entry. Editing a label needs a focused object and
// starts from its current text.
func (m Model) openPrompt(kind promptKind) Model {
	p := prompt{kind: kind}
	if kind == promptLabel {
		id := m.state.Focus().Object
		if id == 0 {
			m.status = "select an object to label"
			return m
		}
		p.target = id
		for _, o := range m.state.Objects() {
			if o.ID == id {
				p.input = []rune(o.Label)
			}
		}
	}
	m.prompt = p
	return m
}

func (m Model) promptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompt = prompt{}
	case tea.KeyEnter:
		p := m.prompt
		m.prompt = prompt{}
		m.commit(p)
	case tea.KeyBackspace:
		if n := len(m.prompt.input); n > 0 {
			m.prompt.input = m.prompt.input[:n-1:n-1]
		}
	case tea.KeySpace:
		m.prompt.input = append(m.prompt.input, ' ')
	case tea.KeyRunes:
		m.prompt.input = append(m.prompt.input, msg.Runes...)
	}
	return m, nil
}

func (m *Model) commit(p prompt) {
	text := strings.TrimSpace(string(p.input))
	switch p.kind {
	case promptSave:
		if out, err := m.dispatch(handlers.CmdLayoutSave, text); err == nil {
			if info, ok := out.(core.LayoutInfo); ok {
				m.status = fmt.Sprintf("saved layout %q (%d objects)", info.Name, info.Objects)
			}
		}
	case promptLoad:
		if out, err := m.dispatch(handlers.CmdLayoutLoad, text); err == nil {
			if info, ok := out.(core.LayoutInfo); ok {
				m.status = fmt.Sprintf("loaded layout %q", info.Name)
			}
		}
	case promptDelete:
		if _, err := m.dispatch(handlers.CmdLayoutDelete, text); err == nil {
			m.status = fmt.Sprintf("deleted layout %q", text)
		}
	case promptLabel:
		if _, err := m.dispatch(handlers.CmdLabelSet, handlers.LabelText{ID: p.target, Text: text}); err == nil {
			m.status = fmt.Sprintf("object %d labelled %q", p.target, text)
		}
	}
}

func (m *Model) listLayouts() {
	out, err := m.dispatch(handlers.CmdLayoutList, nil)
	if err != nil {
		return
	}
	infos, _ := out.([]core.LayoutInfo)
	if len(infos) == 0 {
		m.status = "no saved layouts"
		return
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	m.status = "layouts: " + strings.Join(names, ", ")
}
