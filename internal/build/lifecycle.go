// Package build drives the compile-and-reload loop: it runs the build command
// in a single floating command pane, and when that pane exits successfully it
// loads or reloads the plugin artifact the build produced.
//
// Only one build pane is tracked at a time. Triggering a build while one is
// tracked re-runs that pane in place instead of spawning a second one.
package build

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/artifact"
	"github.com/timvw/devloop/internal/host"
	"github.com/timvw/devloop/internal/model"
	telem "github.com/timvw/devloop/internal/otel"
)

// ErrNoBuildTarget is returned by Trigger when no project directory is set.
var ErrNoBuildTarget = errors.New("no build target chosen")

// DefaultCommand is the command run in the build pane.
var DefaultCommand = model.CommandToRun{Path: "cargo", Args: []string{"build"}}

// Phase is the observable state of the build pane.
type Phase string

const (
	PhaseAbsent    Phase = "absent"    // no build pane tracked
	PhaseRunning   Phase = "running"   // build pane launched or re-run
	PhaseSucceeded Phase = "succeeded" // exited 0, reload issued, pane hidden
	PhaseFailed    Phase = "failed"    // exited non-zero, pane left visible
)

// Options configures a Lifecycle.
type Options struct {
	Command model.CommandToRun
	Layout  artifact.Layout
	Logger  *zap.Logger
	Metrics *telem.Metrics
}

// Lifecycle tracks the build target and the build pane.
type Lifecycle struct {
	host    host.Host
	command model.CommandToRun
	layout  artifact.Layout
	log     *zap.Logger
	metrics *telem.Metrics

	target    string
	hasTarget bool

	surface    uint32
	hasSurface bool
	phase      Phase
}

// New returns a Lifecycle issuing instructions to h.
func New(h host.Host, opts Options) *Lifecycle {
	if opts.Command.Path == "" {
		opts.Command = DefaultCommand
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Lifecycle{
		host:    h,
		command: opts.Command,
		layout:  opts.Layout,
		log:     opts.Logger,
		metrics: opts.Metrics,
		phase:   PhaseAbsent,
	}
}

// SetTarget replaces the build target.
func (l *Lifecycle) SetTarget(path string) {
	l.target = path
	l.hasTarget = true
}

// Target returns the build target, if one is set.
func (l *Lifecycle) Target() (string, bool) {
	return l.target, l.hasTarget
}

// Artifact resolves the artifact of the current build target. It is computed
// on every call so it can never go stale.
func (l *Lifecycle) Artifact() (artifact.Artifact, bool) {
	if !l.hasTarget {
		return artifact.Artifact{}, false
	}
	return l.layout.Resolve(l.target)
}

// Surface returns the id of the tracked build pane, if any.
func (l *Lifecycle) Surface() (uint32, bool) {
	return l.surface, l.hasSurface
}

// Phase returns the current phase of the build pane.
func (l *Lifecycle) Phase() Phase {
	return l.phase
}

// Command returns the build command.
func (l *Lifecycle) Command() model.CommandToRun {
	return l.command
}

// Trigger starts a build. A tracked build pane is revealed and re-run;
// otherwise a new floating pane runs the build command in the target
// directory. Either way the controller's own pane is hidden.
func (l *Lifecycle) Trigger(ctx context.Context) error {
	if l.hasSurface {
		l.host.ShowPane(model.TerminalPane(l.surface), true)
		l.host.RerunCommandPane(l.surface)
		l.host.HideSelf()
		l.phase = PhaseRunning
		l.metrics.RecordBuildTriggered(ctx, "rerun")
		l.log.Debug("re-running build pane", zap.Uint32("terminal_id", l.surface))
		return nil
	}
	if !l.hasTarget {
		return ErrNoBuildTarget
	}
	cmd := l.command
	cmd.Args = append([]string(nil), l.command.Args...)
	cmd.Cwd = l.target
	l.host.OpenCommandPaneFloating(cmd)
	l.host.HideSelf()
	l.phase = PhaseRunning
	l.metrics.RecordBuildTriggered(ctx, "launch")
	l.log.Debug("launching build pane", zap.String("command", cmd.String()), zap.String("cwd", cmd.Cwd))
	return nil
}

// SurfaceOpened records id as the build pane, replacing any previous one.
func (l *Lifecycle) SurfaceOpened(id uint32) {
	l.surface = id
	l.hasSurface = true
	l.phase = PhaseRunning
}

// SurfaceExited handles the exit of a command pane. A successful exit of the
// tracked build pane loads or reloads the artifact and hides the pane. Any
// other exit leaves everything as is: a failed build stays visible with its
// own output. exitCode is nil when the host could not determine it.
func (l *Lifecycle) SurfaceExited(ctx context.Context, id uint32, exitCode *int) {
	if !l.hasSurface || id != l.surface {
		return
	}
	if exitCode == nil || *exitCode != 0 {
		l.phase = PhaseFailed
		l.metrics.RecordBuildCompleted(ctx, false)
		return
	}
	l.metrics.RecordBuildCompleted(ctx, true)
	if art, ok := l.Artifact(); ok {
		l.host.StartOrReloadPlugin(art.Locator)
		l.metrics.RecordReload(ctx)
	} else {
		l.log.Warn("build succeeded but the artifact cannot be located", zap.String("target", l.target))
	}
	l.host.HidePane(model.TerminalPane(id))
	l.phase = PhaseSucceeded
}

// SurfaceClosed forgets the build pane if id is the tracked one, so the next
// Trigger launches a fresh pane.
func (l *Lifecycle) SurfaceClosed(id model.PaneID) {
	if !id.IsTerminal() || !l.hasSurface || id.ID != l.surface {
		return
	}
	l.surface = 0
	l.hasSurface = false
	l.phase = PhaseAbsent
}
