package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
)

func TestValidate_Constructors(t *testing.T) {
	valid := []Event{
		Load(model.PluginIDs{PluginID: 3, InitialCwd: "/p"}, nil),
		{Kind: KindPermissionResult, Granted: true},
		PaneUpdate(model.PaneManifest{}),
		TabUpdate(nil),
		KeyPress(keybind.MustParse("Ctrl f")),
		ModeUpdate(model.ModeNormal),
		CommandPaneOpened(7),
		CommandPaneExited(7, nil),
		PaneClosed(model.TerminalPane(7)),
		Recompile(),
		PipeMessage(model.PipeMessage{Name: "filepicker_result"}),
	}
	for _, e := range valid {
		if err := e.Validate(); err != nil {
			t.Errorf("%s: expected valid, got %v", e.Kind, err)
		}
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		e    Event
	}{
		{name: "missing kind", e: Event{}},
		{name: "unknown kind", e: Event{Kind: "resize"}},
		{name: "load without ids", e: Event{Kind: KindLoad}},
		{name: "pane update without panes", e: Event{Kind: KindPaneUpdate}},
		{name: "tab update without tabs", e: Event{Kind: KindTabUpdate}},
		{name: "key without key", e: Event{Kind: KindKey}},
		{name: "blank mode", e: Event{Kind: KindModeUpdate, Mode: " "}},
		{name: "exit without id", e: Event{Kind: KindCommandPaneExited}},
		{name: "closed without pane", e: Event{Kind: KindPaneClosed}},
		{name: "closed with bad kind", e: Event{Kind: KindPaneClosed, Pane: &model.PaneID{Kind: "tab", ID: 1}}},
		{name: "pipe without name", e: Event{Kind: KindPipe, Pipe: &model.PipeMessage{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}
}

func TestDecode_WireFormat(t *testing.T) {
	raw := `{"kind":"command_pane_exited","terminal_id":7,"exit_code":0}`
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if *e.TerminalID != 7 || e.ExitCode == nil || *e.ExitCode != 0 {
		t.Errorf("unexpected event: %+v", e)
	}

	raw = `{"kind":"key","key":"Ctrl f"}`
	e = Event{}
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("decode key: %v", err)
	}
	if e.Key == nil || e.Key.Bare != "f" || !e.Key.Has(keybind.Ctrl) {
		t.Errorf("unexpected key: %+v", e.Key)
	}

	raw = `{"kind":"pane_update","panes":{"panes":{"0":[{"id":3,"is_plugin":true}],"1":[{"id":5,"is_plugin":true,"plugin_url":"file:/p.wasm"}]}}}`
	e = Event{}
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("decode panes: %v", err)
	}
	if tab, ok := e.Panes.TabOfPlugin(5); !ok || tab != 1 {
		t.Errorf("TabOfPlugin(5): got %d, %v", tab, ok)
	}

	for _, orig := range []Event{TabUpdate(nil), TabUpdate([]model.TabInfo{{Position: 2, Name: "dev", Active: true}})} {
		data, err := json.Marshal(orig)
		if err != nil {
			t.Fatalf("encode tab update: %v", err)
		}
		e = Event{}
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if err := e.Validate(); err != nil {
			t.Errorf("tab update %s does not survive encoding: %v", data, err)
		}
		if len(e.Tabs) != len(orig.Tabs) {
			t.Errorf("tabs: got %d, want %d", len(e.Tabs), len(orig.Tabs))
		}
	}
}
