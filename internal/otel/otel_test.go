package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "Authorization=Basic abc123", map[string]string{"Authorization": "Basic abc123"}},
		{"multiple with spaces", " a=1 , b = 2 ", map[string]string{"a": "1", "b": "2"}},
		{"value with equals", "token=x=y", map[string]string{"token": "x=y"}},
		{"missing key skipped", "=v,k=v", map[string]string{"k": "v"}},
		{"no separator skipped", "junk,k=v", map[string]string{"k": "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHeaders(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseHeaders(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseHeaders(%q)[%q] = %q, want %q", tt.raw, k, got[k], v)
				}
			}
		})
	}
}

func TestParseCollector(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		host     string
		basePath string
		insecure bool
		wantErr  bool
	}{
		{name: "plain http", endpoint: "http://localhost:4318", host: "localhost:4318", insecure: true},
		{name: "https with prefix", endpoint: "https://otlp.example.com/otlp/", host: "otlp.example.com", basePath: "/otlp"},
		{name: "no host", endpoint: "localhost:4318", wantErr: true},
		{name: "unparsable", endpoint: "http://[::1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseCollector(tt.endpoint, "Authorization=Bearer x")
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCollector(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.host != tt.host || c.basePath != tt.basePath || c.insecure != tt.insecure {
				t.Errorf("parseCollector(%q) = %+v", tt.endpoint, c)
			}
			if c.headers["Authorization"] != "Bearer x" {
				t.Errorf("headers: got %v", c.headers)
			}
		})
	}
}

func TestResourceTagsSessionAndFolder(t *testing.T) {
	ctx := context.Background()
	res, err := newResource(ctx, OTELConfig{Session: "plugin-dev", Folder: "/home/u/myplug"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	set := res.Set()
	if v, ok := set.Value(SessionKey); !ok || v.AsString() != "plugin-dev" {
		t.Errorf("%s: got %q (present %v)", SessionKey, v.AsString(), ok)
	}
	if v, ok := set.Value(FolderKey); !ok || v.AsString() != "/home/u/myplug" {
		t.Errorf("%s: got %q (present %v)", FolderKey, v.AsString(), ok)
	}

	bare, err := newResource(ctx, OTELConfig{})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	if _, ok := bare.Set().Value(SessionKey); ok {
		t.Errorf("%s set outside a session", SessionKey)
	}
}

func TestInitRejectsEndpointWithoutHost(t *testing.T) {
	if _, err := Init(context.Background(), OTELConfig{Endpoint: "localhost:4318"}); err == nil {
		t.Fatal("expected error for endpoint without scheme")
	}
}

func TestInitWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	tel, err := Init(ctx, OTELConfig{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer tel.Shutdown(ctx)

	if tel.Tracer == nil {
		t.Fatal("expected a tracer without an endpoint")
	}
	if tel.Metrics == nil {
		t.Fatal("expected metric instruments without an endpoint")
	}
	tel.Metrics.RecordBuildTriggered(ctx, "launch")
	tel.Metrics.RecordBuildCompleted(ctx, true)
	tel.Metrics.RecordNotification(ctx, "pane_update")
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordBuildTriggered(ctx, "rerun")
	m.RecordBuildCompleted(ctx, false)
	m.RecordReload(ctx)
	m.RecordKeybindRegistration(ctx, "normal")
	m.RecordFilepickerRequest(ctx)
	m.RecordFilepickerUnmatched(ctx)
	m.RecordNotification(ctx, "key")

	var tel *Telemetry
	tel.Shutdown(ctx)
}
