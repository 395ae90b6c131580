package controller

import (
	"github.com/timvw/devloop/internal/build"
	"github.com/timvw/devloop/internal/model"
)

// Status is a read-only snapshot of the controller for presentation.
type Status struct {
	Target       string
	HasTarget    bool
	TargetName   string
	Locator      string
	Shortcut     string
	BuildCommand string
	Phase        build.Phase
	BuildPane    uint32
	HasBuildPane bool
	PluginPane   model.PaneID
	HasPlugin    bool
	ShortcutOn   bool
	Pending      int
	Closed       bool
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	s := Status{
		Shortcut:     c.ws.Shortcut().String(),
		BuildCommand: c.build.Command().String(),
		Phase:        c.build.Phase(),
		ShortcutOn:   c.ws.Bound(),
		Pending:      c.picker.Pending(),
		Closed:       c.closed,
	}
	s.Target, s.HasTarget = c.build.Target()
	if art, ok := c.build.Artifact(); ok {
		s.TargetName = art.Name
		s.Locator = art.Locator
	}
	s.BuildPane, s.HasBuildPane = c.build.Surface()
	s.PluginPane, s.HasPlugin = c.ws.Target()
	return s
}
