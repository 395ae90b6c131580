// Package workspace keeps the controller in step with the host's workspace:
// it keeps the reload shortcut registered while the controller's tab is
// active, finds the pane hosting the plugin under development, names it, and
// closes the controller once that pane is gone.
//
// Inventories are replaced wholesale on every update. Derivations never run
// on their own: the caller applies updates first and then asks for
// DeriveTabActivity, BindShortcutIfNeeded, ResolveTarget and
// RenameTargetIfNeeded, in that order. Anything that cannot be derived yet is
// simply retried on the next update.
package workspace

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/host"
	"github.com/timvw/devloop/internal/keybind"
	"github.com/timvw/devloop/internal/model"
	telem "github.com/timvw/devloop/internal/otel"
)

// RecompileMessage is the private message the shortcut sends to the controller.
const RecompileMessage = "recompile"

// Options configures a Binding.
type Options struct {
	Shortcut keybind.Key
	Logger   *zap.Logger
	Metrics  *telem.Metrics
}

// Binding is the controller's view of the workspace.
type Binding struct {
	host    host.Host
	log     *zap.Logger
	metrics *telem.Metrics

	shortcut keybind.Key

	mode    model.InputMode
	hasMode bool

	ownID    uint32
	hasOwnID bool

	ownTab    int
	hasOwnTab bool
	tabActive bool
	// bound latches after a registration while the own tab is active and is
	// cleared when that tab goes inactive.
	bound bool

	tabs     []model.TabInfo
	manifest model.PaneManifest

	// target is sticky: once resolved it is never re-resolved.
	target    model.PaneID
	hasTarget bool
	renamed   bool
}

// New returns a Binding issuing instructions to h.
func New(h host.Host, opts Options) *Binding {
	if opts.Shortcut.IsZero() {
		opts.Shortcut = keybind.Default
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Binding{
		host:     h,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		shortcut: opts.Shortcut,
	}
}

// SetOwnID records the controller's own plugin id.
func (b *Binding) SetOwnID(id uint32) {
	b.ownID = id
	b.hasOwnID = true
}

// OwnID returns the controller's own plugin id, if known.
func (b *Binding) OwnID() (uint32, bool) {
	return b.ownID, b.hasOwnID
}

// UpdatePanes replaces the pane inventory.
func (b *Binding) UpdatePanes(m model.PaneManifest) {
	b.manifest = m
}

// UpdateTabs replaces the tab inventory.
func (b *Binding) UpdateTabs(tabs []model.TabInfo) {
	b.tabs = tabs
}

// UpdateMode replaces the base input mode.
func (b *Binding) UpdateMode(mode model.InputMode) {
	b.mode = mode.Normalize()
	b.hasMode = true
}

// Mode returns the base input mode, if known.
func (b *Binding) Mode() (model.InputMode, bool) {
	return b.mode, b.hasMode
}

// Shortcut returns the reload shortcut.
func (b *Binding) Shortcut() keybind.Key {
	return b.shortcut
}

// SetShortcut parses spec and replaces the reload shortcut. On error the
// previous shortcut is kept.
func (b *Binding) SetShortcut(spec string) error {
	k, err := keybind.Parse(spec)
	if err != nil {
		return err
	}
	b.shortcut = k
	return nil
}

// OwnTab returns the position of the tab hosting the controller, if known.
func (b *Binding) OwnTab() (int, bool) {
	return b.ownTab, b.hasOwnTab
}

// TabActive reports whether the controller's tab was active at the last derivation.
func (b *Binding) TabActive() bool {
	return b.tabActive
}

// Bound reports whether the shortcut is registered for the current active period.
func (b *Binding) Bound() bool {
	return b.bound
}

// DeriveTabActivity locates the controller's tab in the pane inventory and
// reads its active flag from the tab inventory. An inactive tab clears the
// bound latch, so the shortcut is registered again once the tab regains focus.
// A tab index that cannot be found keeps the last known one.
func (b *Binding) DeriveTabActivity() {
	if b.hasOwnID {
		if tab, ok := b.manifest.TabOfPlugin(b.ownID); ok {
			b.ownTab = tab
			b.hasOwnTab = true
		}
	}
	if !b.hasOwnTab {
		return
	}
	for _, t := range b.tabs {
		if t.Position != b.ownTab {
			continue
		}
		b.tabActive = t.Active
		if !t.Active {
			b.bound = false
		}
		return
	}
}

// BindShortcutIfNeeded registers the reload shortcut when the mode and own id
// are known, the own tab is active and the shortcut is not registered yet.
// It reports whether a registration was issued.
func (b *Binding) BindShortcutIfNeeded(ctx context.Context) bool {
	if !b.hasMode || !b.hasOwnID || !b.tabActive || b.bound {
		return false
	}
	binding := keybind.Binding{
		Mode:     string(b.mode),
		Key:      b.shortcut,
		PluginID: b.ownID,
		Message:  RecompileMessage,
	}
	b.host.Reconfigure(binding.Config(), false)
	b.bound = true
	b.metrics.RecordKeybindRegistration(ctx, string(b.mode))
	b.log.Debug("registered reload shortcut",
		zap.String("shortcut", b.shortcut.String()),
		zap.String("mode", string(b.mode)),
		zap.Uint32("plugin_id", b.ownID))
	return true
}

// ResolveTarget binds the plugin pane loaded from locator, if none is bound
// yet. Once bound the target never changes, even if another pane with the
// same locator shows up later.
func (b *Binding) ResolveTarget(locator string) bool {
	if b.hasTarget || locator == "" {
		return false
	}
	p, ok := b.manifest.FindPlugin(locator)
	if !ok {
		return false
	}
	b.target = p.PaneRef()
	b.hasTarget = true
	b.log.Debug("resolved plugin pane", zap.Stringer("pane", b.target), zap.String("locator", locator))
	return true
}

// Target returns the pane hosting the plugin under development, if resolved.
func (b *Binding) Target() (model.PaneID, bool) {
	return b.target, b.hasTarget
}

// TargetTitle is the title given to the plugin pane.
func (b *Binding) TargetTitle(name string) string {
	return fmt.Sprintf("%s (%s to rebuild)", name, b.shortcut.Hint())
}

// RenameTargetIfNeeded titles the plugin pane after the plugin and the
// reload shortcut. It fires at most once per process.
func (b *Binding) RenameTargetIfNeeded(name string) bool {
	if b.renamed || !b.hasTarget || name == "" {
		return false
	}
	b.host.RenamePane(b.target, b.TargetTitle(name))
	b.renamed = true
	return true
}

// Renamed reports whether the plugin pane has been renamed.
func (b *Binding) Renamed() bool {
	return b.renamed
}

// SurfaceClosed closes the controller when the plugin pane it manages
// closes. It reports whether the close was issued.
func (b *Binding) SurfaceClosed(id model.PaneID) bool {
	if !b.hasTarget || id != b.target {
		return false
	}
	b.log.Info("plugin pane closed, closing controller", zap.Stringer("pane", id))
	b.host.CloseSelf()
	return true
}
