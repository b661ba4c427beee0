package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"mercator-hq/conduit/pkg/stream"
)

// errNotObject marks a line that cannot start an array element.
var errNotObject = errors.New("stream element is not a JSON object")

// TranslatingAdapter handles backends that stream a JSON array of response
// objects instead of SSE. Elements may be compact (several per line) or
// pretty-printed across many lines; the adapter strips the array
// punctuation, accumulates lines until a complete object is available and
// hands each object to the backend's text extractor.
//
// Lines prefixed with "data:" are accepted as well, and a "[DONE]" line
// ends the stream.
type TranslatingAdapter struct {
	adapterCore
	extractor Interpreter
	pending   []byte
	maxObject int
}

// NewTranslatingAdapter creates an adapter reading a bracketed JSON stream
// from body. The adapter owns body and closes it when the stream ends.
func NewTranslatingAdapter(body io.ReadCloser, extractor Interpreter, opts AdapterOptions) *TranslatingAdapter {
	maxObject := opts.MaxFrameSize
	if maxObject <= 0 {
		maxObject = stream.DefaultMaxFrameSize
	}
	return &TranslatingAdapter{
		adapterCore: newAdapterCore(body, opts),
		extractor:   extractor,
		maxObject:   maxObject,
	}
}

// Next returns the next canonical event.
func (a *TranslatingAdapter) Next(ctx context.Context) (stream.Event, error) {
	return a.next(ctx, a.handleFrame, a.flush)
}

func (a *TranslatingAdapter) handleFrame(frame []byte) {
	line := bytes.TrimSpace(frame)
	if rest, ok := bytes.CutPrefix(line, dataField); ok {
		line = bytes.TrimSpace(rest)
	}
	if string(line) == stream.DoneMarker {
		a.pending = a.pending[:0]
		a.push(stream.Done())
		return
	}

	if len(a.pending) == 0 {
		line = bytes.TrimLeft(line, "[, \t")
		if len(line) == 0 || line[0] == ']' {
			return
		}
		if line[0] != '{' {
			a.reject(line, errNotObject)
			return
		}
	}

	a.pending = append(a.pending, line...)
	a.pending = append(a.pending, '\n')
	if len(a.pending) > a.maxObject {
		a.reject(a.pending, fmt.Errorf("%w: %d bytes (limit %d)", stream.ErrFrameTooLarge, len(a.pending), a.maxObject))
		a.pending = a.pending[:0]
		return
	}
	a.drain()
}

// drain decodes every complete object at the front of the pending buffer.
// An incomplete trailing object stays buffered for the next line.
func (a *TranslatingAdapter) drain() {
	for {
		rest := bytes.TrimLeft(a.pending, " \t\r\n,")
		if len(rest) == 0 || rest[0] == ']' {
			a.pending = a.pending[:0]
			return
		}

		dec := json.NewDecoder(bytes.NewReader(rest))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				a.pending = append(a.pending[:0], rest...)
				return
			}
			a.reject(rest, err)
			a.pending = a.pending[:0]
			return
		}

		a.pending = append(a.pending[:0], rest[dec.InputOffset():]...)

		sig, err := a.extractor.Interpret(obj)
		if err != nil {
			a.reject(obj, err)
			continue
		}
		a.apply(sig)
	}
}

// flush reports an object left incomplete when the upstream ended.
func (a *TranslatingAdapter) flush() {
	if len(bytes.TrimSpace(a.pending)) > 0 {
		a.reject(a.pending, io.ErrUnexpectedEOF)
	}
	a.pending = a.pending[:0]
}

var _ Adapter = (*TranslatingAdapter)(nil)
