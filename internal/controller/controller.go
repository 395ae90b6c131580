// Package controller is the root of the development loop. It receives every
// host notification, routes it to the build lifecycle, the workspace binding
// and the directory-picker correlator, and re-runs the workspace derivations
// after each inventory update.
//
// A Controller is not safe for concurrent use: notifications must be handled
// one at a time, each to completion. Run enforces this for a channel of
// notifications.
package controller

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/artifact"
	"github.com/timvw/devloop/internal/build"
	"github.com/timvw/devloop/internal/correlate"
	"github.com/timvw/devloop/internal/events"
	"github.com/timvw/devloop/internal/host"
	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
	telem "github.com/timvw/devloop/internal/otel"
	"github.com/timvw/devloop/internal/workspace"
)

const (
	// PaneTitle is the title of the controller's own pane.
	PaneTitle = "Develop Zellij Plugin"

	// FilepickerResult is the message name of directory picker responses.
	FilepickerResult = "filepicker_result"

	// ShortcutOption is the only recognized plugin configuration key.
	ShortcutOption = "reload_shortcut"

	requestIDArg = "request_id"

	defaultFilepickerURL   = "filepicker"
	defaultFilepickerTitle = "Select a folder in which to develop your Zellij plugin..."
)

// FilepickerKey opens the directory picker.
var FilepickerKey = keybind.Key{Bare: "f", Mods: keybind.Ctrl}

// Permissions requested at load.
var Permissions = []host.Permission{
	host.PermReadApplicationState,
	host.PermRunCommands,
	host.PermOpenTerminalsOrPlugins,
	host.PermReconfigure,
	host.PermChangeApplicationState,
	host.PermMessageAndLaunchOtherPlugins,
}

// Subscriptions requested at load.
var Subscriptions = []host.EventType{
	host.EventModeUpdate,
	host.EventTabUpdate,
	host.EventKey,
	host.EventCommandPaneOpened,
	host.EventCommandPaneExited,
	host.EventPaneUpdate,
	host.EventPaneClosed,
	host.EventPermissionRequestResult,
}

// Options configures a Controller.
type Options struct {
	Shortcut        keybind.Key
	BuildCommand    model.CommandToRun
	Layout          artifact.Layout
	FilepickerURL   string
	FilepickerTitle string
	// OnTargetChanged is called whenever the build target is replaced.
	OnTargetChanged func(root string)
	// NewToken overrides the request token generator.
	NewToken func() string
	Logger   *zap.Logger
	Metrics  *telem.Metrics
	// Tracer records one span per notification. Defaults to the global
	// tracer provider.
	Tracer trace.Tracer
}

// Controller owns the build lifecycle, the workspace binding and the
// request correlator.
type Controller struct {
	host    host.Host
	build   *build.Lifecycle
	ws      *workspace.Binding
	picker  *correlate.Correlator
	log     *zap.Logger
	metrics *telem.Metrics
	tracer  trace.Tracer

	filepickerURL   string
	filepickerTitle string
	onTargetChanged func(string)
	closed          bool
}

// New returns a Controller issuing instructions to h.
func New(h host.Host, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("devloop")
	}
	if opts.FilepickerURL == "" {
		opts.FilepickerURL = defaultFilepickerURL
	}
	if opts.FilepickerTitle == "" {
		opts.FilepickerTitle = defaultFilepickerTitle
	}
	picker := correlate.New()
	if opts.NewToken != nil {
		picker = correlate.NewWithTokens(opts.NewToken)
	}
	return &Controller{
		host: h,
		build: build.New(h, build.Options{
			Command: opts.BuildCommand,
			Layout:  opts.Layout,
			Logger:  opts.Logger.Named("build"),
			Metrics: opts.Metrics,
		}),
		ws: workspace.New(h, workspace.Options{
			Shortcut: opts.Shortcut,
			Logger:   opts.Logger.Named("workspace"),
			Metrics:  opts.Metrics,
		}),
		picker:          picker,
		log:             opts.Logger,
		metrics:         opts.Metrics,
		tracer:          opts.Tracer,
		filepickerURL:   opts.FilepickerURL,
		filepickerTitle: opts.FilepickerTitle,
		onTargetChanged: opts.OnTargetChanged,
	}
}

// Load registers the controller with the host: it requests permissions,
// subscribes to notifications, applies the plugin configuration, records its
// own id and starts with the initial working directory as build target.
func (c *Controller) Load(configuration map[string]string, ids model.PluginIDs) {
	c.host.RequestPermissions(Permissions...)
	c.host.Subscribe(Subscriptions...)
	if spec, ok := configuration[ShortcutOption]; ok {
		if err := c.ws.SetShortcut(spec); err != nil {
			c.log.Debug("ignoring reload shortcut", zap.String("value", spec), zap.Error(err))
		}
	}
	c.ws.SetOwnID(ids.PluginID)
	if ids.InitialCwd != "" {
		c.setTarget(ids.InitialCwd)
	}
}

// Handle processes one notification to completion and reports whether the
// panel should be redrawn.
func (c *Controller) Handle(ctx context.Context, e events.Event) bool {
	ctx, span := c.tracer.Start(ctx, "notification",
		trace.WithAttributes(attribute.String("notification.kind", string(e.Kind))))
	defer span.End()
	c.metrics.RecordNotification(ctx, string(e.Kind))

	switch e.Kind {
	case events.KindLoad:
		if e.PluginIDs != nil {
			c.Load(e.Configuration, *e.PluginIDs)
		}
		return true
	case events.KindPermissionResult:
		if id, ok := c.ws.OwnID(); ok {
			c.host.RenamePane(model.PluginPane(id), PaneTitle)
		}
	case events.KindPaneUpdate:
		if e.Panes != nil {
			c.ws.UpdatePanes(*e.Panes)
		}
		c.deriveBinding(ctx)
		c.deriveTarget()
	case events.KindTabUpdate:
		c.ws.UpdateTabs(e.Tabs)
		c.deriveBinding(ctx)
	case events.KindKey:
		if e.Key != nil && *e.Key == FilepickerKey {
			c.RequestDirectory(ctx)
		}
	case events.KindModeUpdate:
		c.ws.UpdateMode(e.Mode)
		c.deriveBinding(ctx)
	case events.KindCommandPaneOpened:
		if e.TerminalID != nil {
			c.build.SurfaceOpened(*e.TerminalID)
			return true
		}
	case events.KindCommandPaneExited:
		if e.TerminalID != nil {
			c.build.SurfaceExited(ctx, *e.TerminalID, e.ExitCode)
			return true
		}
	case events.KindPaneClosed:
		if e.Pane != nil {
			c.build.SurfaceClosed(*e.Pane)
			if c.ws.SurfaceClosed(*e.Pane) {
				c.closed = true
			}
			return true
		}
	case events.KindPipe:
		if e.Pipe != nil {
			return c.Pipe(ctx, *e.Pipe)
		}
	default:
		c.log.Debug("ignoring notification", zap.String("kind", string(e.Kind)))
	}
	return false
}

// Pipe handles an inter-plugin message.
func (c *Controller) Pipe(ctx context.Context, msg model.PipeMessage) bool {
	switch {
	case msg.IsPrivate && msg.Name == workspace.RecompileMessage:
		c.Recompile(ctx)
		return true
	case msg.Name == FilepickerResult:
		return c.handleFilepickerResult(msg)
	}
	return false
}

// Recompile starts or re-runs the build.
func (c *Controller) Recompile(ctx context.Context) {
	if err := c.build.Trigger(ctx); err != nil {
		if errors.Is(err, build.ErrNoBuildTarget) {
			c.log.Warn("cannot build: no folder chosen, press Ctrl f to pick one")
			return
		}
		c.log.Error("build trigger failed", zap.Error(err))
	}
}

// RequestDirectory asks the directory picker for a new build target. The
// answer arrives later as a filepicker_result message.
func (c *Controller) RequestDirectory(ctx context.Context) string {
	token := c.picker.Issue()
	c.host.PipeMessageToPlugin(model.MessageToPlugin{
		Name:      "filepicker",
		PluginURL: c.filepickerURL,
		Config:    map[string]string{requestIDArg: token},
		Args:      map[string]string{requestIDArg: token},
		PaneTitle: c.filepickerTitle,
	})
	c.metrics.RecordFilepickerRequest(ctx)
	return token
}

func (c *Controller) handleFilepickerResult(msg model.PipeMessage) bool {
	token, hasToken := msg.Args[requestIDArg]
	if msg.Payload == nil || !hasToken {
		return false
	}
	dir, ok := c.picker.Resolve(token, *msg.Payload)
	if !ok {
		c.metrics.RecordFilepickerUnmatched(context.Background())
		c.log.Warn("request id not found", zap.String("request_id", token))
		return false
	}
	c.setTarget(dir)
	return true
}

func (c *Controller) setTarget(dir string) {
	c.build.SetTarget(dir)
	if c.onTargetChanged != nil {
		c.onTargetChanged(dir)
	}
}

func (c *Controller) deriveBinding(ctx context.Context) {
	c.ws.DeriveTabActivity()
	c.ws.BindShortcutIfNeeded(ctx)
}

func (c *Controller) deriveTarget() {
	art, ok := c.build.Artifact()
	if !ok {
		return
	}
	c.ws.ResolveTarget(art.Locator)
	c.ws.RenameTargetIfNeeded(art.Name)
}

// Closed reports whether the controller has asked the host to close it.
func (c *Controller) Closed() bool {
	return c.closed
}

// Run handles notifications from in until it is closed, ctx is done or the
// controller closes itself. onRender, if set, is called after every
// notification that changes what the panel shows.
func (c *Controller) Run(ctx context.Context, in <-chan events.Event, onRender func(Status)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-in:
			if !ok {
				return nil
			}
			if c.Handle(ctx, e) && onRender != nil {
				onRender(c.Status())
			}
			if c.closed {
				return nil
			}
		}
	}
}
