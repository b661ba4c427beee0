package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"mercator-hq/conduit/pkg/stream"
)

// Signal is what a backend envelope found in one payload. The zero Signal
// means the payload carried nothing of interest (e.g. a ping).
type Signal struct {
	// Text is an incremental piece of assistant output
	Text string

	// Done reports that the backend marked the end of the response
	Done bool

	// Error is a failure reported by the backend inside the stream
	Error string
}

// Interpreter decodes one complete payload of a backend's stream.
// A returned error marks the payload as malformed; the stream continues.
type Interpreter interface {
	Interpret(payload []byte) (Signal, error)
}

// InterpreterFunc adapts an ordinary function to the Interpreter interface.
type InterpreterFunc func(payload []byte) (Signal, error)

// Interpret calls f(payload).
func (f InterpreterFunc) Interpret(payload []byte) (Signal, error) {
	return f(payload)
}

// AdapterOptions carries per-backend settings shared by all adapters.
type AdapterOptions struct {
	// Provider is the backend name used in logs and errors
	Provider string

	// Display is the user-facing backend label for in-stream errors
	Display string

	// MaxFrameSize bounds one upstream frame (0 uses the default)
	MaxFrameSize int

	// MaxMalformedFrames is the consecutive malformed frame limit (0 = unlimited)
	MaxMalformedFrames int
}

// AdapterOptionsFor derives adapter options from a backend configuration.
func AdapterOptionsFor(cfg BackendConfig) AdapterOptions {
	return AdapterOptions{
		Provider:           cfg.Name,
		Display:            cfg.Label(),
		MaxFrameSize:       cfg.MaxFrameSize,
		MaxMalformedFrames: cfg.MaxMalformedFrames,
	}
}

// adapterCore holds the state common to both adapter variants: the frame
// source, the queue of decoded events and the single-termination guard.
type adapterCore struct {
	opts   AdapterOptions
	body   io.ReadCloser
	frames *stream.Reassembler

	queue      []stream.Event
	terminated bool // a terminal event has been queued
	finished   bool // the terminal event has been returned

	malformed   int
	consecutive int

	closeOnce sync.Once
	closeErr  error
}

func newAdapterCore(body io.ReadCloser, opts AdapterOptions) adapterCore {
	return adapterCore{
		opts:   opts,
		body:   body,
		frames: stream.NewReassembler(body, stream.WithMaxFrameSize(opts.MaxFrameSize)),
	}
}

// next drives the pull loop. handle is invoked for every frame and eof once
// the upstream body is exhausted; both report through push.
func (c *adapterCore) next(ctx context.Context, handle func([]byte), eof func()) (stream.Event, error) {
	for {
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue = c.queue[1:]
			if ev.Terminal() {
				c.finished = true
				c.queue = nil
				c.Close()
			}
			return ev, nil
		}
		if c.finished {
			return stream.Event{}, io.EOF
		}

		frame, err := c.frames.Next(ctx)
		switch {
		case err == nil:
			handle(frame)

		case errors.Is(err, io.EOF):
			eof()
			// End of input without an explicit marker is a normal finish.
			c.push(stream.Done())

		default:
			c.finished = true
			c.Close()
			return stream.Event{}, &StreamError{
				Provider: c.opts.Provider,
				Message:  "upstream stream interrupted",
				Cause:    err,
			}
		}
	}
}

// push queues an event. Nothing is queued after a terminal event.
func (c *adapterCore) push(ev stream.Event) {
	if c.terminated {
		return
	}
	c.queue = append(c.queue, ev)
	if ev.Terminal() {
		c.terminated = true
	}
}

// apply turns a decoded signal into events.
func (c *adapterCore) apply(sig Signal) {
	c.consecutive = 0
	if sig.Text != "" {
		c.push(stream.TextDelta(sig.Text))
	}
	switch {
	case sig.Error != "":
		c.push(stream.Error(fmt.Sprintf("%s API error: %s", c.opts.Display, sig.Error), http.StatusBadGateway))
	case sig.Done:
		c.push(stream.Done())
	}
}

// reject records a malformed frame and trips the breaker when configured.
func (c *adapterCore) reject(frame []byte, err error) {
	c.malformed++
	c.consecutive++
	slog.Debug("skipping malformed stream frame",
		"provider", c.opts.Provider,
		"frame_bytes", len(frame),
		"error", err,
	)
	if c.opts.MaxMalformedFrames > 0 && c.consecutive >= c.opts.MaxMalformedFrames {
		slog.Warn("too many malformed stream frames",
			"provider", c.opts.Provider,
			"consecutive", c.consecutive,
		)
		c.push(stream.Error(fmt.Sprintf("%s API error: malformed upstream stream", c.opts.Display), http.StatusBadGateway))
	}
}

// Stats reports frame counters for the stream so far.
func (c *adapterCore) Stats() AdapterStats {
	return AdapterStats{Frames: c.frames.Frames(), Malformed: c.malformed}
}

// Close releases the upstream body.
func (c *adapterCore) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.body.Close()
	})
	return c.closeErr
}
