package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/build"
	"github.com/timvw/devloop/internal/config"
	"github.com/timvw/devloop/internal/host"
	"github.com/timvw/devloop/internal/keybind"
)

func useDefaults(t *testing.T) {
	t.Helper()
	c := config.Defaults()
	c.Shortcut = keybind.Default
	c.Command = build.DefaultCommand
	cfg = c
	logger = zap.NewNop()
}

const session = `# own plugin 1 in tab 0, plugin under development 5 in tab 1
{"kind":"load","plugin_ids":{"plugin_id":1,"initial_cwd":"/home/u/myplug"}}
{"kind":"mode_update","mode":"normal"}
{"kind":"tab_update","tabs":[{"position":0,"active":true},{"position":1}]}
{"kind":"pane_update","panes":{"panes":{"0":[{"id":1,"is_plugin":true}],"1":[{"id":5,"is_plugin":true,"plugin_url":"file:/home/u/myplug/target/wasm32-wasi/debug/myplug.wasm"}]}}}
{"kind":"pipe","pipe":{"name":"recompile","is_private":true}}
{"kind":"command_pane_opened","terminal_id":7}
{"kind":"command_pane_exited","terminal_id":7,"exit_code":0}

{"kind":"pane_closed","pane":{"kind":"plugin","id":5}}
{"kind":"mode_update","mode":"locked"}
`

func TestReplay_Session(t *testing.T) {
	useDefaults(t)

	var out bytes.Buffer
	if err := replay(replayCmd, strings.NewReader(session), &out); err != nil {
		t.Fatalf("replay: %v", err)
	}

	var steps []replayStep
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var s replayStep
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			t.Fatalf("decode step %q: %v", sc.Text(), err)
		}
		steps = append(steps, s)
	}

	// Replay stops once the controller closes itself.
	if len(steps) != 8 {
		t.Fatalf("expected 8 steps, got %d", len(steps))
	}

	ops := func(s replayStep) []host.Op {
		var o []host.Op
		for _, in := range s.Instructions {
			o = append(o, in.Op)
		}
		return o
	}
	assertOps := func(i int, want ...host.Op) {
		t.Helper()
		got := ops(steps[i])
		if len(got) != len(want) {
			t.Fatalf("step %d (%s): got ops %v, want %v", i, steps[i].Kind, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("step %d (%s): got ops %v, want %v", i, steps[i].Kind, got, want)
			}
		}
	}

	assertOps(0, host.OpRequestPermissions, host.OpSubscribe)
	assertOps(1)
	// The own tab is only known once the pane inventory arrives.
	assertOps(2)
	assertOps(3, host.OpReconfigure, host.OpRenamePane)
	assertOps(4, host.OpOpenCommandPaneFloating, host.OpHideSelf)
	assertOps(5)
	assertOps(6, host.OpStartOrReloadPlugin, host.OpHidePane)
	assertOps(7, host.OpCloseSelf)

	if steps[4].Line != 6 {
		t.Errorf("line numbers should count comments: got %d, want 6", steps[4].Line)
	}
	if !steps[5].Redraw {
		t.Error("command pane opened should request a redraw")
	}
}

func TestReplay_RejectsInvalidLine(t *testing.T) {
	useDefaults(t)

	in := "{\"kind\":\"mode_update\",\"mode\":\"normal\"}\n{\"kind\":\"command_pane_exited\"}\n"
	err := replay(replayCmd, strings.NewReader(in), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}
