package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "devloop"

// Metrics holds all OTEL metric instruments for devloop.
// All counters are cumulative (monotonic). A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Build lifecycle
	BuildsTriggered metric.Int64Counter // partitioned by mode: rerun, launch
	BuildsCompleted metric.Int64Counter // partitioned by outcome: success, failure
	PluginReloads   metric.Int64Counter

	// Workspace
	KeybindRegistrations metric.Int64Counter

	// Directory picker
	FilepickerRequests  metric.Int64Counter
	FilepickerUnmatched metric.Int64Counter

	// Notifications partitioned by kind
	Notifications metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	// --- Build lifecycle ---

	m.BuildsTriggered, err = meter.Int64Counter("builds.triggered",
		metric.WithDescription("Builds started, either by rerunning the existing build pane or launching a new one"))
	if err != nil {
		return nil, err
	}

	m.BuildsCompleted, err = meter.Int64Counter("builds.completed",
		metric.WithDescription("Tracked build panes that exited, partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.PluginReloads, err = meter.Int64Counter("plugin.reloads",
		metric.WithDescription("Load-or-reload instructions issued for the built artifact"))
	if err != nil {
		return nil, err
	}

	// --- Workspace ---

	m.KeybindRegistrations, err = meter.Int64Counter("keybind.registrations",
		metric.WithDescription("Reload shortcut registrations issued to the host"))
	if err != nil {
		return nil, err
	}

	// --- Directory picker ---

	m.FilepickerRequests, err = meter.Int64Counter("filepicker.requests",
		metric.WithDescription("Directory picker requests sent"))
	if err != nil {
		return nil, err
	}

	m.FilepickerUnmatched, err = meter.Int64Counter("filepicker.unmatched",
		metric.WithDescription("Directory picker responses with no outstanding request"))
	if err != nil {
		return nil, err
	}

	m.Notifications, err = meter.Int64Counter("notifications.handled",
		metric.WithDescription("Host notifications handled, partitioned by kind"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordBuildTriggered records a build start. mode is "rerun" or "launch".
func (m *Metrics) RecordBuildTriggered(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.BuildsTriggered.Add(ctx, 1, metric.WithAttributes(attribute.String("build.mode", mode)))
}

// RecordBuildCompleted records the exit of the tracked build pane.
func (m *Metrics) RecordBuildCompleted(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.BuildsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("build.outcome", outcome)))
}

// RecordReload records a load-or-reload instruction.
func (m *Metrics) RecordReload(ctx context.Context) {
	if m == nil {
		return
	}
	m.PluginReloads.Add(ctx, 1)
}

// RecordKeybindRegistration records a shortcut registration.
func (m *Metrics) RecordKeybindRegistration(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.KeybindRegistrations.Add(ctx, 1, metric.WithAttributes(attribute.String("input.mode", mode)))
}

// RecordFilepickerRequest records an outgoing directory picker request.
func (m *Metrics) RecordFilepickerRequest(ctx context.Context) {
	if m == nil {
		return
	}
	m.FilepickerRequests.Add(ctx, 1)
}

// RecordFilepickerUnmatched records a response that matched no request.
func (m *Metrics) RecordFilepickerUnmatched(ctx context.Context) {
	if m == nil {
		return
	}
	m.FilepickerUnmatched.Add(ctx, 1)
}

// RecordNotification records a handled host notification.
func (m *Metrics) RecordNotification(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("notification.kind", kind)))
}
