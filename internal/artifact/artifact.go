// Package artifact derives, from a project root, where the build drops the
// plugin artifact and what the plugin is called. Everything here is pure
// string work: no filesystem access.
package artifact

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultOutputDir is the build output directory relative to the root.
	DefaultOutputDir = "target/wasm32-wasi/debug"
	// DefaultExtension is the artifact's file extension.
	DefaultExtension = "wasm"
	// LocatorScheme prefixes every locator; the host loads local files only.
	LocatorScheme = "file:"
)

// Layout describes where a build places its artifact.
type Layout struct {
	OutputDir string
	Extension string
}

// DefaultLayout returns the layout of a debug wasm build.
func DefaultLayout() Layout {
	return Layout{OutputDir: DefaultOutputDir, Extension: DefaultExtension}
}

// Artifact is the resolved artifact of a build target.
type Artifact struct {
	// Locator is the fully-qualified local-file reference used to load or
	// reload the plugin, e.g. "file:/home/u/myplug/target/.../myplug.wasm".
	Locator string
	// Name is the target name: the root's final normal path component.
	Name string
}

// Resolve derives the artifact for root using the default layout.
func Resolve(root string) (Artifact, bool) {
	return DefaultLayout().Resolve(root)
}

// Resolve derives the artifact for root. It returns false when root has no
// final normal component (empty, "/", ".", or ending in ".."), in which case
// the build target must be treated as unset.
func (l Layout) Resolve(root string) (Artifact, bool) {
	name, ok := TargetName(root)
	if !ok {
		return Artifact{}, false
	}
	if l.OutputDir == "" {
		l.OutputDir = DefaultOutputDir
	}
	if l.Extension == "" {
		l.Extension = DefaultExtension
	}
	file := name + "." + strings.TrimPrefix(l.Extension, ".")
	p := filepath.Join(root, filepath.FromSlash(l.OutputDir), file)
	return Artifact{Locator: LocatorScheme + p, Name: name}, true
}

// TargetName returns the final normal path component of root. Interior and
// trailing "." components and repeated separators are skipped; a trailing
// ".." is not normal and yields false.
func TargetName(root string) (string, bool) {
	parts := strings.FieldsFunc(filepath.ToSlash(root), func(r rune) bool { return r == '/' })
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case ".":
			continue
		case "..":
			return "", false
		default:
			return parts[i], true
		}
	}
	return "", false
}
