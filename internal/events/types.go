package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
)

// ErrInvalidEvent wraps every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

// Kind names a host notification.
type Kind string

const (
	KindLoad              Kind = "load"
	KindPermissionResult  Kind = "permission_result"
	KindPaneUpdate        Kind = "pane_update"
	KindTabUpdate         Kind = "tab_update"
	KindKey               Kind = "key"
	KindModeUpdate        Kind = "mode_update"
	KindCommandPaneOpened Kind = "command_pane_opened"
	KindCommandPaneExited Kind = "command_pane_exited"
	KindPaneClosed        Kind = "pane_closed"
	KindPipe              Kind = "pipe"
)

// Event is a host notification as delivered by the bridge. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind Kind `json:"kind"`

	// load
	PluginIDs     *model.PluginIDs  `json:"plugin_ids,omitempty"`
	Configuration map[string]string `json:"configuration,omitempty"`

	// permission_result
	Granted bool `json:"granted,omitempty"`

	// pane_update
	Panes *model.PaneManifest `json:"panes,omitempty"`

	// tab_update
	Tabs []model.TabInfo `json:"tabs"`

	// key
	Key *keybind.Key `json:"key,omitempty"`

	// mode_update
	Mode model.InputMode `json:"mode,omitempty"`

	// command_pane_opened, command_pane_exited
	TerminalID *uint32 `json:"terminal_id,omitempty"`
	ExitCode   *int    `json:"exit_code,omitempty"`

	// pane_closed
	Pane *model.PaneID `json:"pane,omitempty"`

	// pipe
	Pipe *model.PipeMessage `json:"pipe,omitempty"`
}

// Validate checks that the fields required by Kind are present.
func (e Event) Validate() error {
	switch e.Kind {
	case KindLoad:
		if e.PluginIDs == nil {
			return invalid("load requires plugin_ids")
		}
	case KindPermissionResult:
	case KindPaneUpdate:
		if e.Panes == nil {
			return invalid("pane_update requires panes")
		}
	case KindTabUpdate:
		if e.Tabs == nil {
			return invalid("tab_update requires tabs")
		}
	case KindKey:
		if e.Key == nil || e.Key.IsZero() {
			return invalid("key requires key")
		}
	case KindModeUpdate:
		if strings.TrimSpace(string(e.Mode)) == "" {
			return invalid("mode_update requires mode")
		}
	case KindCommandPaneOpened, KindCommandPaneExited:
		if e.TerminalID == nil {
			return invalid(fmt.Sprintf("%s requires terminal_id", e.Kind))
		}
	case KindPaneClosed:
		if e.Pane == nil {
			return invalid("pane_closed requires pane")
		}
		if err := e.Pane.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
	case KindPipe:
		if e.Pipe == nil || strings.TrimSpace(e.Pipe.Name) == "" {
			return invalid("pipe requires a named message")
		}
	case "":
		return invalid("kind is required")
	default:
		return invalid(fmt.Sprintf("unknown kind %q", e.Kind))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, msg)
}

// Recompile returns the private message that triggers a build.
func Recompile() Event {
	return Event{Kind: KindPipe, Pipe: &model.PipeMessage{Name: "recompile", IsPrivate: true}}
}

// CommandPaneExited returns an exit notification for a terminal pane.
func CommandPaneExited(id uint32, exitCode *int) Event {
	return Event{Kind: KindCommandPaneExited, TerminalID: &id, ExitCode: exitCode}
}

// CommandPaneOpened returns an opened notification for a terminal pane.
func CommandPaneOpened(id uint32) Event {
	return Event{Kind: KindCommandPaneOpened, TerminalID: &id}
}

// PaneClosed returns a closed notification.
func PaneClosed(id model.PaneID) Event {
	return Event{Kind: KindPaneClosed, Pane: &id}
}

// PaneUpdate returns a pane inventory notification.
func PaneUpdate(m model.PaneManifest) Event {
	return Event{Kind: KindPaneUpdate, Panes: &m}
}

// TabUpdate returns a tab inventory notification.
func TabUpdate(tabs []model.TabInfo) Event {
	if tabs == nil {
		tabs = []model.TabInfo{}
	}
	return Event{Kind: KindTabUpdate, Tabs: tabs}
}

// ModeUpdate returns a mode notification.
func ModeUpdate(mode model.InputMode) Event {
	return Event{Kind: KindModeUpdate, Mode: mode}
}

// KeyPress returns a key notification.
func KeyPress(k keybind.Key) Event {
	return Event{Kind: KindKey, Key: &k}
}

// Load returns a load notification.
func Load(ids model.PluginIDs, configuration map[string]string) Event {
	return Event{Kind: KindLoad, PluginIDs: &ids, Configuration: configuration}
}

// PipeMessage returns a pipe notification.
func PipeMessage(msg model.PipeMessage) Event {
	return Event{Kind: KindPipe, Pipe: &msg}
}
