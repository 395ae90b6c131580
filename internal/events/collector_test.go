package events

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCollector_StartBindsSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	c := NewCollector(socketPath, nil)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	if _, err := os.Stat(socketPath); err != nil {
		t.Fatalf("expected socket at %s: %v", socketPath, err)
	}
}

func TestCollector_DeliversValidEventsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	c := NewCollector(socketPath, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	payloads := []string{
		`{"kind":"command_pane_opened","terminal_id":7}`,
		`{"kind":"command_pane_exited","terminal_id":7,"exit_code":0}`,
		`{"kind":"pane_closed","pane":{"kind":"terminal","id":7}}`,
	}
	for _, p := range payloads {
		if err := sendDatagram(socketPath, []byte(p)); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
	}

	want := []Kind{KindCommandPaneOpened, KindCommandPaneExited, KindPaneClosed}
	for i, k := range want {
		e := receive(t, c, time.Second)
		if e.Kind != k {
			t.Fatalf("event %d: got %s, want %s", i, e.Kind, k)
		}
	}
}

func TestCollector_DropsMalformedAndInvalidEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	c := NewCollector(socketPath, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	for _, p := range []string{`not-json`, `{"kind":"command_pane_exited"}`, `{"kind":"bogus"}`} {
		if err := sendDatagram(socketPath, []byte(p)); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
	}
	// A valid event afterwards proves the loop survived the bad ones.
	if err := sendDatagram(socketPath, []byte(`{"kind":"mode_update","mode":"normal"}`)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	e := receive(t, c, time.Second)
	if e.Kind != KindModeUpdate {
		t.Fatalf("expected mode_update, got %s", e.Kind)
	}
	if got := c.Dropped(); got != 3 {
		t.Fatalf("expected 3 dropped datagrams, got %d", got)
	}
}

func TestCollector_RejectsOversizedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	socketPath := shortSocketPath(t)
	c := NewCollector(socketPath, nil)
	c.MaxPayloadBytes = 64
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}

	big := []byte(fmt.Sprintf(`{"kind":"mode_update","mode":"%0100d"}`, 0))
	if err := sendDatagram(socketPath, big); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	select {
	case e := <-c.Events():
		t.Fatalf("expected no event for oversized payload, got %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCollector_ClosesChannelOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	socketPath := shortSocketPath(t)
	c := NewCollector(socketPath, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start collector: %v", err)
	}
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after cancel")
		}
	}
}

func TestCollector_RequiresPath(t *testing.T) {
	c := NewCollector("", nil)
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error for empty socket path")
	}
}

func receive(t *testing.T, c *Collector, timeout time.Duration) Event {
	t.Helper()
	select {
	case e, ok := <-c.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return e
	case <-time.After(timeout):
		t.Fatalf("no event within %s", timeout)
	}
	return Event{}
}

func sendDatagram(socketPath string, payload []byte) error {
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return err
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(payload)
	return err
}

func shortSocketPath(t *testing.T) string {
	t.Helper()
	base := filepath.Join(os.TempDir(), "dl-events")
	if err := os.MkdirAll(base, 0o700); err != nil {
		t.Fatalf("mkdir temp base: %v", err)
	}
	p := filepath.Join(base, fmt.Sprintf("%d-%d.sock", time.Now().UnixNano(), os.Getpid()))
	t.Cleanup(func() {
		_ = os.Remove(p)
	})
	return p
}
