// Package keybind parses and renders key combinations in the host's textual
// format ("Ctrl Shift r", "Alt F5") and produces the keybinding configuration
// that routes a combination to a plugin message.
package keybind

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptySpec       = errors.New("empty key spec")
	ErrUnknownModifier = errors.New("unknown modifier")
	ErrUnknownKey      = errors.New("unknown key")
)

// Modifier is a bit set of key modifiers.
type Modifier uint8

const (
	Ctrl Modifier = 1 << iota
	Alt
	Shift
	Super
)

// modifierOrder is the order modifiers are rendered in.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{Ctrl, "Ctrl"},
	{Alt, "Alt"},
	{Shift, "Shift"},
	{Super, "Super"},
}

var namedKeys = map[string]string{
	"enter":     "Enter",
	"esc":       "Esc",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"insert":    "Insert",
	"left":      "Left",
	"right":     "Right",
	"up":        "Up",
	"down":      "Down",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
	"space":     "Space",
}

// Key is a bare key plus modifiers.
type Key struct {
	Bare string
	Mods Modifier
}

// Default is the built-in reload shortcut.
var Default = Key{Bare: "r", Mods: Ctrl | Shift}

// Parse parses a whitespace-separated key spec such as "Ctrl Shift r".
// Modifiers are case-insensitive and must precede exactly one bare key.
func Parse(spec string) (Key, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return Key{}, ErrEmptySpec
	}
	var k Key
	for _, f := range fields[:len(fields)-1] {
		m, ok := parseModifier(f)
		if !ok {
			return Key{}, fmt.Errorf("%w %q in %q", ErrUnknownModifier, f, spec)
		}
		k.Mods |= m
	}
	bare, ok := parseBare(fields[len(fields)-1])
	if !ok {
		return Key{}, fmt.Errorf("%w %q in %q", ErrUnknownKey, fields[len(fields)-1], spec)
	}
	k.Bare = bare
	return k, nil
}

// MustParse is Parse for package-level literals.
func MustParse(spec string) Key {
	k, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return k
}

func parseModifier(s string) (Modifier, bool) {
	for _, m := range modifierOrder {
		if strings.EqualFold(s, m.name) {
			return m.mod, true
		}
	}
	return 0, false
}

func parseBare(s string) (string, bool) {
	if utf8.RuneCountInString(s) == 1 {
		return s, true
	}
	if name, ok := namedKeys[strings.ToLower(s)]; ok {
		return name, true
	}
	// Function keys F1..F12.
	if len(s) >= 2 && (s[0] == 'F' || s[0] == 'f') {
		var n int
		if _, err := fmt.Sscanf(s[1:], "%d", &n); err == nil && n >= 1 && n <= 12 && fmt.Sprint(n) == s[1:] {
			return fmt.Sprintf("F%d", n), true
		}
	}
	return "", false
}

// Has reports whether all of mods are set.
func (k Key) Has(mods Modifier) bool {
	return k.Mods&mods == mods
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Bare == ""
}

// String renders the key in the host's format, e.g. "Ctrl Shift r".
func (k Key) String() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if k.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, k.Bare)
	return strings.Join(parts, " ")
}

// Hint renders the key for display in titles and help text, e.g. "<Ctrl Shift r>".
func (k Key) Hint() string {
	return "<" + k.String() + ">"
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Binding is a keybinding that sends a named message to a plugin instance
// while the host is in Mode.
type Binding struct {
	Mode     string
	Key      Key
	PluginID uint32
	Message  string
}

// Config renders the binding as a host keybinding configuration snippet.
func (b Binding) Config() string {
	var sb strings.Builder
	sb.WriteString("keybinds {\n")
	fmt.Fprintf(&sb, "    %s {\n", strings.ToLower(b.Mode))
	fmt.Fprintf(&sb, "        bind %q {\n", b.Key.String())
	fmt.Fprintf(&sb, "            MessagePluginId %d {\n", b.PluginID)
	fmt.Fprintf(&sb, "                name %q\n", b.Message)
	sb.WriteString("            }\n")
	sb.WriteString("        }\n")
	sb.WriteString("    }\n")
	sb.WriteString("}\n")
	return sb.String()
}
