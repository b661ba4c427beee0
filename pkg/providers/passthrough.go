package providers

import (
	"bytes"
	"context"
	"io"

	"mercator-hq/conduit/pkg/stream"
)

var dataField = []byte("data:")

// PassthroughAdapter handles backends whose native stream is already
// line-oriented SSE with one JSON envelope per data line. Each data
// payload is decoded by the backend's Interpreter; everything else in the
// SSE framing (comments, event names, ids, retry hints) is dropped.
type PassthroughAdapter struct {
	adapterCore
	envelope Interpreter
}

// NewPassthroughAdapter creates an adapter reading SSE frames from body.
// The adapter owns body and closes it when the stream ends.
func NewPassthroughAdapter(body io.ReadCloser, envelope Interpreter, opts AdapterOptions) *PassthroughAdapter {
	return &PassthroughAdapter{
		adapterCore: newAdapterCore(body, opts),
		envelope:    envelope,
	}
}

// Next returns the next canonical event.
func (a *PassthroughAdapter) Next(ctx context.Context) (stream.Event, error) {
	return a.next(ctx, a.handleFrame, func() {})
}

func (a *PassthroughAdapter) handleFrame(frame []byte) {
	payload, ok := ssePayload(frame)
	if !ok {
		return
	}

	sig, err := a.envelope.Interpret(payload)
	if err != nil {
		a.reject(payload, err)
		return
	}
	a.apply(sig)
}

// ssePayload returns the payload of an SSE data line. Blank lines,
// comments and non-data fields report false.
func ssePayload(frame []byte) ([]byte, bool) {
	line := bytes.TrimSuffix(frame, []byte("\r"))
	if len(line) == 0 || line[0] == ':' {
		return nil, false
	}

	if !bytes.HasPrefix(line, dataField) {
		// Any other field (event:, id:, retry:) or a field without a
		// value carries no payload.
		return nil, false
	}

	payload := line[len(dataField):]
	payload = bytes.TrimPrefix(payload, []byte(" "))
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	return payload, true
}

var _ Adapter = (*PassthroughAdapter)(nil)
