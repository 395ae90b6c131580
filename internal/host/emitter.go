package host

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Emitter is a Sink that writes each instruction as one JSON object per line
// for the host-side bridge to apply. Write failures are logged and counted;
// they never reach the controller.
type Emitter struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	log    *zap.Logger
	failed int
}

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Emitter{w: w, log: log}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// OpenEmitter opens the instruction target named by dest:
//
//	"-" or ""      stdout
//	"unix:<path>"  unix datagram socket, one instruction per datagram
//	anything else  file, appended to
func OpenEmitter(dest string, log *zap.Logger) (*Emitter, error) {
	switch {
	case dest == "" || dest == "-":
		e := NewEmitter(os.Stdout, log)
		e.closer = nil
		return e, nil
	case strings.HasPrefix(dest, "unix:"):
		path := strings.TrimPrefix(dest, "unix:")
		addr, err := net.ResolveUnixAddr("unixgram", path)
		if err != nil {
			return nil, fmt.Errorf("resolve unix addr: %w", err)
		}
		conn, err := net.DialUnix("unixgram", nil, addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", path, err)
		}
		return NewEmitter(conn, log), nil
	default:
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dest, err)
		}
		return NewEmitter(f, log), nil
	}
}

// Issue implements Sink.
func (e *Emitter) Issue(in Instruction) {
	data, err := json.Marshal(in)
	if err != nil {
		e.fail(in, err)
		return
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		e.failed++
		e.log.Warn("emit instruction failed", zap.String("op", string(in.Op)), zap.Error(err))
	}
}

func (e *Emitter) fail(in Instruction, err error) {
	e.mu.Lock()
	e.failed++
	e.mu.Unlock()
	e.log.Warn("encode instruction failed", zap.String("op", string(in.Op)), zap.Error(err))
}

// Failed returns the number of instructions that could not be delivered.
func (e *Emitter) Failed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// Close closes the underlying writer unless it is stdout.
func (e *Emitter) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
