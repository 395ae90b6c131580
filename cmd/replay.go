package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/devloop/internal/events"
	"github.com/timvw/devloop/internal/host"
)

var flagReplaySummary bool

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed a notification log through the controller",
	Long: `Replay a JSON-lines notification log (one events.Event per line, "-" for
stdin) through a controller backed by a recording host, and print the host
instructions each notification produced.

Output is one JSON object per notification:
  {"line":3,"kind":"command_pane_exited","redraw":true,"instructions":[...]}

Nothing is sent to a real host, so this is a dry run of the build loop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		return replay(cmd, r, os.Stdout)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&flagReplaySummary, "summary", false, "print the final controller status to stderr")
	rootCmd.AddCommand(replayCmd)
}

type replayStep struct {
	Line         int                `json:"line"`
	Kind         events.Kind        `json:"kind"`
	Redraw       bool               `json:"redraw,omitempty"`
	Instructions []host.Instruction `json:"instructions"`
}

func replay(cmd *cobra.Command, r io.Reader, w io.Writer) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rec := host.NewRecorder()
	ctrl := newController(rec, nil, nil, nil)
	enc := json.NewEncoder(w)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), events.DefaultMaxPayloadBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var e events.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		rec.Reset()
		redraw := ctrl.Handle(ctx, e)
		step := replayStep{
			Line:         line,
			Kind:         e.Kind,
			Redraw:       redraw,
			Instructions: rec.Instructions(),
		}
		if step.Instructions == nil {
			step.Instructions = []host.Instruction{}
		}
		if err := enc.Encode(step); err != nil {
			return err
		}
		if ctrl.Closed() {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if flagReplaySummary {
		s := ctrl.Status()
		folder := "<NOT SET>"
		if s.HasTarget {
			folder = s.Target
		}
		fmt.Fprintf(os.Stderr, "folder: %s\nphase: %s\nshortcut bound: %v\nplugin pane resolved: %v\nclosed: %v\n",
			folder, s.Phase, s.ShortcutOn, s.HasPlugin, s.Closed)
	}
	return nil
}
