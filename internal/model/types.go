// Package model holds the host-side data types the controller reasons about:
// pane identities, pane and tab inventories, input modes, commands and
// inter-plugin messages. Values are snapshots delivered by the host and are
// replaced wholesale, never patched in place.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// PaneKind distinguishes terminal panes from plugin panes. The host numbers
// each kind independently, so an id is only meaningful together with its kind.
type PaneKind string

const (
	PaneTerminal PaneKind = "terminal"
	PanePlugin   PaneKind = "plugin"
)

// PaneID identifies a pane hosted by the multiplexer.
type PaneID struct {
	Kind PaneKind `json:"kind"`
	ID   uint32   `json:"id"`
}

// TerminalPane returns the id of a terminal (command) pane.
func TerminalPane(id uint32) PaneID {
	return PaneID{Kind: PaneTerminal, ID: id}
}

// PluginPane returns the id of a plugin pane.
func PluginPane(id uint32) PaneID {
	return PaneID{Kind: PanePlugin, ID: id}
}

// IsTerminal reports whether the pane is a terminal pane.
func (p PaneID) IsTerminal() bool { return p.Kind == PaneTerminal }

// IsPlugin reports whether the pane is a plugin pane.
func (p PaneID) IsPlugin() bool { return p.Kind == PanePlugin }

func (p PaneID) String() string {
	return fmt.Sprintf("%s_%d", p.Kind, p.ID)
}

// Validate checks that the kind is known.
func (p PaneID) Validate() error {
	switch p.Kind {
	case PaneTerminal, PanePlugin:
		return nil
	default:
		return fmt.Errorf("invalid pane kind %q", p.Kind)
	}
}

// PaneInfo describes a single pane in the host's pane inventory.
type PaneInfo struct {
	// ID is the pane's numeric id, scoped by IsPlugin.
	ID uint32 `json:"id"`
	// IsPlugin is true for plugin panes, false for terminal panes.
	IsPlugin bool `json:"is_plugin"`
	// Title is the title the host currently displays for the pane.
	Title string `json:"title,omitempty"`
	// PluginURL is the locator the plugin was loaded from. Empty for terminals.
	PluginURL string `json:"plugin_url,omitempty"`
	// IsFocused reports whether the pane has focus in its tab.
	IsFocused bool `json:"is_focused,omitempty"`
	// IsFloating reports whether the pane is floating.
	IsFloating bool `json:"is_floating,omitempty"`
	// IsSuppressed reports whether the pane is hidden.
	IsSuppressed bool `json:"is_suppressed,omitempty"`
	// Exited reports whether a command pane's process has exited.
	Exited bool `json:"exited,omitempty"`
	// ExitStatus is the exit status of an exited command pane.
	ExitStatus *int `json:"exit_status,omitempty"`
}

// PaneRef returns the typed id of the pane.
func (p PaneInfo) PaneRef() PaneID {
	if p.IsPlugin {
		return PluginPane(p.ID)
	}
	return TerminalPane(p.ID)
}

// PaneManifest is the host's pane inventory keyed by tab position.
type PaneManifest struct {
	Panes map[int][]PaneInfo `json:"panes"`
}

// TabIndexes returns the tab positions present in the manifest in ascending
// order, so scans over the inventory are deterministic.
func (m PaneManifest) TabIndexes() []int {
	idx := make([]int, 0, len(m.Panes))
	for tab := range m.Panes {
		idx = append(idx, tab)
	}
	sort.Ints(idx)
	return idx
}

// TabOfPlugin returns the position of the tab hosting the plugin pane with
// the given id.
func (m PaneManifest) TabOfPlugin(id uint32) (int, bool) {
	for _, tab := range m.TabIndexes() {
		for _, p := range m.Panes[tab] {
			if p.IsPlugin && p.ID == id {
				return tab, true
			}
		}
	}
	return 0, false
}

// FindPlugin returns the first plugin pane, in tab order, whose plugin URL
// equals url.
func (m PaneManifest) FindPlugin(url string) (PaneInfo, bool) {
	if url == "" {
		return PaneInfo{}, false
	}
	for _, tab := range m.TabIndexes() {
		for _, p := range m.Panes[tab] {
			if p.IsPlugin && p.PluginURL == url {
				return p, true
			}
		}
	}
	return PaneInfo{}, false
}

// Len returns the total number of panes across all tabs.
func (m PaneManifest) Len() int {
	n := 0
	for _, panes := range m.Panes {
		n += len(panes)
	}
	return n
}

// TabInfo describes a tab in the host's tab inventory.
type TabInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// InputMode is the host's input mode (e.g. "normal", "locked"). Keybindings
// are registered per mode.
type InputMode string

// Known input modes.
const (
	ModeNormal InputMode = "normal"
	ModeLocked InputMode = "locked"
)

// Normalize returns the lower-case form the host's keybinding config expects.
func (m InputMode) Normalize() InputMode {
	return InputMode(strings.ToLower(strings.TrimSpace(string(m))))
}

// CommandToRun is a command the host should run in a command pane.
type CommandToRun struct {
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
	Cwd  string   `json:"cwd,omitempty"`
}

// ParseCommand splits a whitespace-separated command line into a command.
func ParseCommand(line string) (CommandToRun, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandToRun{}, fmt.Errorf("empty command")
	}
	return CommandToRun{Path: fields[0], Args: fields[1:]}, nil
}

func (c CommandToRun) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// MessageToPlugin is a message sent to another plugin instance, launching it
// if it is not already running.
type MessageToPlugin struct {
	Name      string            `json:"name"`
	PluginURL string            `json:"plugin_url,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
	// PaneTitle is the title requested for a newly launched instance.
	PaneTitle string `json:"pane_title,omitempty"`
}

// PipeMessage is an inter-plugin message delivered to the controller.
type PipeMessage struct {
	Name      string            `json:"name"`
	Payload   *string           `json:"payload,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
	IsPrivate bool              `json:"is_private,omitempty"`
}

// PluginIDs identifies the controller's own plugin instance at load time.
type PluginIDs struct {
	PluginID   uint32 `json:"plugin_id"`
	InitialCwd string `json:"initial_cwd,omitempty"`
}
