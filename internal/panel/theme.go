package panel

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors used by the panel.
type Theme struct {
	Primary   lipgloss.Color // title
	Secondary lipgloss.Color // current folder
	Accent    lipgloss.Color // shortcuts
	Error     lipgloss.Color // failed build
	Warning   lipgloss.Color // build running, folder not set
	Success   lipgloss.Color // build succeeded
	Text      lipgloss.Color // primary text
	TextMuted lipgloss.Color // secondary text, hints
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Secondary: lipgloss.Color("#5c9cf5"),
		Accent:    lipgloss.Color("#9d7cd8"),
		Error:     lipgloss.Color("#e06c75"),
		Warning:   lipgloss.Color("#f5a742"),
		Success:   lipgloss.Color("#7fd88f"),
		Text:      lipgloss.Color("#eeeeee"),
		TextMuted: lipgloss.Color("#808080"),
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Secondary: lipgloss.Color("#0550ae"),
		Accent:    lipgloss.Color("#6639ba"),
		Error:     lipgloss.Color("#cf222e"),
		Warning:   lipgloss.Color("#bf8700"),
		Success:   lipgloss.Color("#116329"),
		Text:      lipgloss.Color("#1f2328"),
		TextMuted: lipgloss.Color("#656d76"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles holds all lipgloss styles derived from a Theme.
type styles struct {
	title    lipgloss.Style
	folder   lipgloss.Style
	shortcut lipgloss.Style
	command  lipgloss.Style
	running  lipgloss.Style
	ok       lipgloss.Style
	failed   lipgloss.Style
	unset    lipgloss.Style
	text     lipgloss.Style
	dim      lipgloss.Style
}

// newStyles builds all styles from a theme.
func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		folder:   lipgloss.NewStyle().Foreground(t.Secondary),
		shortcut: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		command:  lipgloss.NewStyle().Foreground(t.Primary),
		running:  lipgloss.NewStyle().Foreground(t.Warning),
		ok:       lipgloss.NewStyle().Foreground(t.Success),
		failed:   lipgloss.NewStyle().Foreground(t.Error),
		unset:    lipgloss.NewStyle().Foreground(t.Warning),
		text:     lipgloss.NewStyle().Foreground(t.Text),
		dim:      lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
