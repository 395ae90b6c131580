// Package panel is the interactive face of the controller: a bubbletea
// program that feeds host notifications into the controller one at a time
// and shows the current build target, shortcut and build phase.
package panel

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/devloop/internal/build"
	"github.com/timvw/devloop/internal/controller"
	"github.com/timvw/devloop/internal/events"
)

const notSet = "<NOT SET>"

// keyMap holds the panel-local key bindings. Host key notifications go
// through the controller; these only apply while the panel has the terminal.
type keyMap struct {
	Pick    key.Binding
	Rebuild key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pick: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "change folder"),
		),
		Rebuild: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rebuild"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.Rebuild, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// messages
type eventMsg struct {
	event events.Event
}

type sourceClosedMsg struct{}

// Panel runs the interactive controller.
type Panel struct {
	Controller *controller.Controller
	Events     <-chan events.Event
	Theme      Theme
}

type panelModel struct {
	ctrl   *controller.Controller
	ctx    context.Context
	in     <-chan events.Event
	keys   keyMap
	help   help.Model
	styles styles

	status  controller.Status
	handled int

	width  int
	height int
}

func newModel(ctx context.Context, ctrl *controller.Controller, in <-chan events.Event, theme Theme) *panelModel {
	return &panelModel{
		ctrl:   ctrl,
		ctx:    ctx,
		in:     in,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: newStyles(theme),
		status: ctrl.Status(),
	}
}

// Run shows the panel until the user quits, the event source closes, ctx is
// done or the controller closes itself.
func (p *Panel) Run(ctx context.Context) error {
	m := newModel(ctx, p.Controller, p.Events, p.Theme)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}

func (m *panelModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a tea.Cmd that blocks until the next notification.
func (m *panelModel) waitForEvent() tea.Cmd {
	in := m.in
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case e, ok := <-in:
			if !ok {
				return sourceClosedMsg{}
			}
			return eventMsg{event: e}
		case <-ctx.Done():
			return sourceClosedMsg{}
		}
	}
}

func (m *panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.ctrl.Handle(m.ctx, msg.event)
		m.handled++
		m.status = m.ctrl.Status()
		if m.status.Closed {
			return m, tea.Quit
		}
		return m, m.waitForEvent()

	case sourceClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *panelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pick):
		m.ctrl.RequestDirectory(m.ctx)
	case key.Matches(msg, m.keys.Rebuild):
		m.ctrl.Recompile(m.ctx)
	default:
		return m, nil
	}
	m.status = m.ctrl.Status()
	return m, nil
}

func (m *panelModel) View() string {
	s := m.status
	st := m.styles

	folder := st.unset.Render(notSet)
	if s.HasTarget {
		folder = st.folder.Render(s.Target)
	}
	shortcut := st.shortcut.Render("<" + s.Shortcut + ">")

	lines := []string{
		st.title.Render(controller.PaneTitle),
		st.text.Render("This plugin will help you develop a Zellij plugin in Rust."),
		"",
		st.text.Render("Press ") + shortcut + st.text.Render(" to:"),
		"  " + st.text.Render("1. Run ") + st.command.Render(s.BuildCommand),
		"  " + st.text.Render("2. Load or Reload the plugin"),
		"",
		st.text.Render("Closing the plugin window will close this plugin."),
		"",
		st.text.Render("Current Folder: ") + folder + " " + st.shortcut.Render("<Ctrl f>") + st.text.Render(" to change"),
		"",
		m.phaseLine(),
		"",
		m.help.View(m.keys),
	}
	body := strings.Join(lines, "\n")

	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// phaseLine summarizes the build pane and plugin pane state.
func (m *panelModel) phaseLine() string {
	s := m.status
	st := m.styles

	var phase string
	switch s.Phase {
	case build.PhaseRunning:
		phase = st.running.Render("building...")
	case build.PhaseSucceeded:
		phase = st.ok.Render("✓ built and reloaded")
	case build.PhaseFailed:
		phase = st.failed.Render("✗ build failed")
	default:
		phase = st.dim.Render("not built yet")
	}

	parts := []string{phase}
	if s.HasPlugin {
		parts = append(parts, st.dim.Render(fmt.Sprintf("plugin pane %d", s.PluginPane.ID)))
	}
	if !s.ShortcutOn {
		parts = append(parts, st.dim.Render("shortcut inactive"))
	}
	return strings.Join(parts, st.dim.Render("  ·  "))
}
