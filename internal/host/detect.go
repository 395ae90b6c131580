package host

import (
	"fmt"
	"os"
	"strconv"
)

// Session describes the multiplexer session the process runs in, as far as
// the environment tells.
type Session struct {
	Name string
	// PaneID is the terminal pane running this process, when known.
	PaneID    uint32
	HasPaneID bool
}

// Detect reports whether the process runs inside a zellij session.
// This is plumbing only: it decides whether a bridge can be reached, not how
// the controller behaves.
func Detect() (Session, error) {
	if os.Getenv("ZELLIJ") == "" && os.Getenv("ZELLIJ_SESSION_NAME") == "" {
		if os.Getenv("TMUX") != "" {
			return Session{}, fmt.Errorf("tmux is not supported: plugins can only be reloaded by zellij")
		}
		return Session{}, fmt.Errorf("no zellij session detected (ZELLIJ is not set)")
	}
	s := Session{Name: os.Getenv("ZELLIJ_SESSION_NAME")}
	if raw := os.Getenv("ZELLIJ_PANE_ID"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			s.PaneID = uint32(id)
			s.HasPaneID = true
		}
	}
	return s, nil
}
