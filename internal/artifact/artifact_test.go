package artifact

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		root        string
		wantOK      bool
		wantName    string
		wantLocator string
	}{
		{
			name:        "plain project root",
			root:        "/home/u/myplug",
			wantOK:      true,
			wantName:    "myplug",
			wantLocator: "file:/home/u/myplug/target/wasm32-wasi/debug/myplug.wasm",
		},
		{
			name:        "trailing separator",
			root:        "/home/u/myplug/",
			wantOK:      true,
			wantName:    "myplug",
			wantLocator: "file:/home/u/myplug/target/wasm32-wasi/debug/myplug.wasm",
		},
		{
			name:        "trailing dot component",
			root:        "/home/u/myplug/.",
			wantOK:      true,
			wantName:    "myplug",
			wantLocator: "file:/home/u/myplug/target/wasm32-wasi/debug/myplug.wasm",
		},
		{
			name:        "relative root",
			root:        "work/plug-a",
			wantOK:      true,
			wantName:    "plug-a",
			wantLocator: "file:work/plug-a/target/wasm32-wasi/debug/plug-a.wasm",
		},
		{name: "filesystem root", root: "/", wantOK: false},
		{name: "empty", root: "", wantOK: false},
		{name: "current dir only", root: ".", wantOK: false},
		{name: "trailing parent", root: "/home/u/..", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.root)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if got != (Artifact{}) {
					t.Errorf("expected zero artifact, got %+v", got)
				}
				return
			}
			if got.Name != tt.wantName {
				t.Errorf("Name: got %q, want %q", got.Name, tt.wantName)
			}
			if got.Locator != tt.wantLocator {
				t.Errorf("Locator: got %q, want %q", got.Locator, tt.wantLocator)
			}
		})
	}
}

func TestResolve_LocatorEndsInTargetName(t *testing.T) {
	roots := []string{"/a", "/a/b/c", "rel", "/with space/dir", "/x/y/"}
	for _, root := range roots {
		got, ok := Resolve(root)
		if !ok {
			t.Fatalf("%q: expected ok", root)
		}
		suffix := "/" + DefaultOutputDir + "/" + got.Name + "." + DefaultExtension
		if !strings.HasSuffix(got.Locator, suffix) {
			t.Errorf("%q: locator %q does not end in %q", root, got.Locator, suffix)
		}
		if !strings.HasPrefix(got.Locator, LocatorScheme) {
			t.Errorf("%q: locator %q lacks scheme", root, got.Locator)
		}
	}
}

func TestLayout_Custom(t *testing.T) {
	l := Layout{OutputDir: "target/wasm32-wasip1/release", Extension: ".wasm"}
	got, ok := l.Resolve("/src/zj")
	if !ok {
		t.Fatal("expected ok")
	}
	want := "file:/src/zj/target/wasm32-wasip1/release/zj.wasm"
	if got.Locator != want {
		t.Errorf("got %q, want %q", got.Locator, want)
	}
}

func TestLayout_ZeroValueFallsBackToDefaults(t *testing.T) {
	got, ok := Layout{}.Resolve("/p/q")
	if !ok {
		t.Fatal("expected ok")
	}
	if got.Locator != "file:/p/q/target/wasm32-wasi/debug/q.wasm" {
		t.Errorf("got %q", got.Locator)
	}
}
