// Package host abstracts the terminal multiplexer that hosts the controller.
//
// Host instructions are fire-and-forget: the controller queues them and never
// waits for an answer. Anything the host reports back arrives later as a
// separate notification (see package events).
package host

import (
	"sync"

	"github.com/timvw/devloop/internal/model"
)

// Host is the instruction surface of the multiplexer.
type Host interface {
	// RequestPermissions asks the user to grant the controller permissions.
	RequestPermissions(perms ...Permission)
	// Subscribe registers interest in notification categories.
	Subscribe(kinds ...EventType)
	// RenamePane sets the title of a pane.
	RenamePane(id model.PaneID, name string)
	// ShowPane reveals a pane, floating it if it was hidden and floatIfHidden is set.
	ShowPane(id model.PaneID, floatIfHidden bool)
	// HidePane suppresses a pane.
	HidePane(id model.PaneID)
	// RerunCommandPane re-executes the command of a terminal command pane.
	RerunCommandPane(terminalID uint32)
	// OpenCommandPaneFloating launches a command in a new floating pane.
	OpenCommandPaneFloating(cmd model.CommandToRun)
	// HideSelf hides the controller's own pane.
	HideSelf()
	// StartOrReloadPlugin loads the plugin at url, or reloads it if running.
	StartOrReloadPlugin(url string)
	// Reconfigure applies a configuration snippet (e.g. keybindings).
	Reconfigure(config string, saveToDisk bool)
	// PipeMessageToPlugin sends a message to another plugin instance.
	PipeMessageToPlugin(msg model.MessageToPlugin)
	// CloseSelf closes the controller's own pane.
	CloseSelf()
}

// Permission is a capability the controller asks the host for.
type Permission string

const (
	PermReadApplicationState         Permission = "ReadApplicationState"
	PermRunCommands                  Permission = "RunCommands"
	PermOpenTerminalsOrPlugins       Permission = "OpenTerminalsOrPlugins"
	PermReconfigure                  Permission = "Reconfigure"
	PermChangeApplicationState       Permission = "ChangeApplicationState"
	PermMessageAndLaunchOtherPlugins Permission = "MessageAndLaunchOtherPlugins"
)

// EventType is a notification category the controller can subscribe to.
type EventType string

const (
	EventModeUpdate              EventType = "ModeUpdate"
	EventTabUpdate               EventType = "TabUpdate"
	EventKey                     EventType = "Key"
	EventCommandPaneOpened       EventType = "CommandPaneOpened"
	EventCommandPaneExited       EventType = "CommandPaneExited"
	EventPaneUpdate              EventType = "PaneUpdate"
	EventPaneClosed              EventType = "PaneClosed"
	EventPermissionRequestResult EventType = "PermissionRequestResult"
)

// Op names a host instruction.
type Op string

const (
	OpRequestPermissions      Op = "request_permissions"
	OpSubscribe               Op = "subscribe"
	OpRenamePane              Op = "rename_pane"
	OpShowPane                Op = "show_pane"
	OpHidePane                Op = "hide_pane"
	OpRerunCommandPane        Op = "rerun_command_pane"
	OpOpenCommandPaneFloating Op = "open_command_pane_floating"
	OpHideSelf                Op = "hide_self"
	OpStartOrReloadPlugin     Op = "start_or_reload_plugin"
	OpReconfigure             Op = "reconfigure"
	OpPipeMessageToPlugin     Op = "pipe_message_to_plugin"
	OpCloseSelf               Op = "close_self"
)

// Instruction is a single host instruction as a value. Only the fields
// relevant to Op are set.
type Instruction struct {
	Op            Op                     `json:"op"`
	Pane          *model.PaneID          `json:"pane,omitempty"`
	TerminalID    uint32                 `json:"terminal_id,omitempty"`
	Name          string                 `json:"name,omitempty"`
	URL           string                 `json:"url,omitempty"`
	Command       *model.CommandToRun    `json:"command,omitempty"`
	Config        string                 `json:"config,omitempty"`
	Message       *model.MessageToPlugin `json:"message,omitempty"`
	Permissions   []Permission           `json:"permissions,omitempty"`
	Events        []EventType            `json:"events,omitempty"`
	FloatIfHidden bool                   `json:"float_if_hidden,omitempty"`
	SaveToDisk    bool                   `json:"save_to_disk,omitempty"`
}

// Sink receives instructions in issue order.
type Sink interface {
	Issue(in Instruction)
}

// Issuer implements Host by turning every call into an Instruction and
// handing it to a Sink.
type Issuer struct {
	sink Sink
}

// New returns a Host that forwards instructions to sink.
func New(sink Sink) *Issuer {
	return &Issuer{sink: sink}
}

func (h *Issuer) RequestPermissions(perms ...Permission) {
	h.sink.Issue(Instruction{Op: OpRequestPermissions, Permissions: perms})
}

func (h *Issuer) Subscribe(kinds ...EventType) {
	h.sink.Issue(Instruction{Op: OpSubscribe, Events: kinds})
}

func (h *Issuer) RenamePane(id model.PaneID, name string) {
	h.sink.Issue(Instruction{Op: OpRenamePane, Pane: &id, Name: name})
}

func (h *Issuer) ShowPane(id model.PaneID, floatIfHidden bool) {
	h.sink.Issue(Instruction{Op: OpShowPane, Pane: &id, FloatIfHidden: floatIfHidden})
}

func (h *Issuer) HidePane(id model.PaneID) {
	h.sink.Issue(Instruction{Op: OpHidePane, Pane: &id})
}

func (h *Issuer) RerunCommandPane(terminalID uint32) {
	h.sink.Issue(Instruction{Op: OpRerunCommandPane, TerminalID: terminalID})
}

func (h *Issuer) OpenCommandPaneFloating(cmd model.CommandToRun) {
	h.sink.Issue(Instruction{Op: OpOpenCommandPaneFloating, Command: &cmd})
}

func (h *Issuer) HideSelf() {
	h.sink.Issue(Instruction{Op: OpHideSelf})
}

func (h *Issuer) StartOrReloadPlugin(url string) {
	h.sink.Issue(Instruction{Op: OpStartOrReloadPlugin, URL: url})
}

func (h *Issuer) Reconfigure(config string, saveToDisk bool) {
	h.sink.Issue(Instruction{Op: OpReconfigure, Config: config, SaveToDisk: saveToDisk})
}

func (h *Issuer) PipeMessageToPlugin(msg model.MessageToPlugin) {
	h.sink.Issue(Instruction{Op: OpPipeMessageToPlugin, Message: &msg})
}

func (h *Issuer) CloseSelf() {
	h.sink.Issue(Instruction{Op: OpCloseSelf})
}

// Recorder is a Host that keeps every instruction in memory. It backs the
// replay command and the tests.
type Recorder struct {
	*Issuer

	mu  sync.Mutex
	log []Instruction
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.Issuer = New(r)
	return r
}

// Issue implements Sink.
func (r *Recorder) Issue(in Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, in)
}

// Instructions returns a copy of everything recorded so far.
func (r *Recorder) Instructions() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instruction, len(r.log))
	copy(out, r.log)
	return out
}

// Ops returns the recorded instruction ops in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]Op, len(r.log))
	for i, in := range r.log {
		ops[i] = in.Op
	}
	return ops
}

// Count returns how many instructions with the given op were recorded.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, in := range r.log {
		if in.Op == op {
			n++
		}
	}
	return n
}

// Reset discards all recorded instructions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = nil
}
