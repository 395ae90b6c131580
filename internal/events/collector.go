// Package events receives host notifications from the bridge plugin.
//
// The bridge sends one JSON-encoded Event per datagram over a unix datagram
// socket. Valid events are delivered on a single channel in arrival order,
// so the controller handles exactly one notification at a time.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxPayloadBytes bounds one datagram. Pane manifests of busy
// sessions are large; 64 KiB fits hundreds of panes.
const DefaultMaxPayloadBytes = 64 * 1024

const defaultBuffer = 64

type Collector struct {
	path string
	out  chan Event
	log  *zap.Logger

	MaxPayloadBytes int

	mu      sync.Mutex
	conn    *net.UnixConn
	closed  bool
	dropped int
}

func NewCollector(socketPath string, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		path:            socketPath,
		out:             make(chan Event, defaultBuffer),
		log:             log,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
	}
}

func (c *Collector) SocketPath() string {
	return c.path
}

// Events returns the channel valid events are delivered on. It is closed
// once the collector stops.
func (c *Collector) Events() <-chan Event {
	return c.out
}

// Dropped returns how many datagrams were discarded as malformed, invalid
// or oversized.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Collector) Start(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("socket path is required")
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = DefaultMaxPayloadBytes
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Chmod(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("chmod socket dir: %w", err)
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", c.path)
	if err != nil {
		return fmt.Errorf("resolve unix addr: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return fmt.Errorf("listen unixgram: %w", err)
	}
	if err := os.Chmod(c.path, 0o600); err != nil {
		_ = conn.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.close()
	}()

	go c.readLoop(ctx)

	return nil
}

func (c *Collector) readLoop(ctx context.Context) {
	defer close(c.out)
	// One extra byte so a payload of exactly MaxPayloadBytes is detectable.
	buf := make([]byte, c.MaxPayloadBytes+1)
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			if c.isClosed() {
				return
			}
			continue
		}

		if n <= 0 || n > c.MaxPayloadBytes {
			c.drop("oversized or empty datagram", nil)
			continue
		}

		var e Event
		if err := json.Unmarshal(buf[:n], &e); err != nil {
			c.drop("malformed datagram", err)
			continue
		}
		if err := e.Validate(); err != nil {
			c.drop("invalid event", err)
			continue
		}

		select {
		case c.out <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Collector) drop(reason string, err error) {
	c.mu.Lock()
	c.dropped++
	c.mu.Unlock()
	c.log.Debug("dropped notification", zap.String("reason", reason), zap.Error(err))
}

func (c *Collector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Collector) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	_ = os.Remove(c.path)
}
