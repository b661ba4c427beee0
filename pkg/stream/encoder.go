package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DoneMarker is the literal payload of the terminal success unit.
const DoneMarker = "[DONE]"

// ErrEncoderClosed is returned when an event is encoded after the terminal
// event has been written.
var ErrEncoderClosed = errors.New("stream encoder closed")

// textUnit is the JSON body of a text delta unit.
type textUnit struct {
	Text string `json:"text"`
}

// errorUnit is the JSON body of an in-stream error unit.
type errorUnit struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// Encoder writes canonical events to a client sink in SSE format. Every unit
// is flushed as soon as it is written; nothing is batched or reordered.
//
// After a Done or Error event the encoder is closed and refuses further
// events, so a stream is terminated exactly once. Output already flushed is
// never retracted: an Error after some text deltas simply ends an incomplete
// response.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
	closed  bool
	deltas  int
	written int64
}

// NewEncoder creates an Encoder writing to w. If w implements http.Flusher it
// is flushed after every unit.
func NewEncoder(w io.Writer) *Encoder {
	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// Encode serializes ev and writes it to the sink.
func (e *Encoder) Encode(ev Event) error {
	if e.closed {
		return ErrEncoderClosed
	}

	var payload []byte
	switch ev.Kind {
	case KindTextDelta:
		data, err := json.Marshal(textUnit{Text: ev.Text})
		if err != nil {
			return fmt.Errorf("failed to marshal text unit: %w", err)
		}
		payload = data
	case KindDone:
		payload = []byte(DoneMarker)
	case KindError:
		data, err := json.Marshal(errorUnit{Error: ev.Message, Status: ev.Status})
		if err != nil {
			return fmt.Errorf("failed to marshal error unit: %w", err)
		}
		payload = data
	default:
		return fmt.Errorf("unknown event kind %s", ev.Kind)
	}

	if ev.Terminal() {
		e.closed = true
	}

	if err := e.writeUnit(payload); err != nil {
		// A broken sink cannot carry further units.
		e.closed = true
		return err
	}

	if ev.Kind == KindTextDelta {
		e.deltas++
	}
	return nil
}

// Closed reports whether a terminal event has been written or the sink failed.
func (e *Encoder) Closed() bool {
	return e.closed
}

// Deltas returns the number of text delta units written.
func (e *Encoder) Deltas() int {
	return e.deltas
}

// BytesWritten returns the number of bytes written to the sink.
func (e *Encoder) BytesWritten() int64 {
	return e.written
}

func (e *Encoder) writeUnit(payload []byte) error {
	unit := make([]byte, 0, len(payload)+8)
	unit = append(unit, "data: "...)
	unit = append(unit, payload...)
	unit = append(unit, "\n\n"...)

	n, err := e.w.Write(unit)
	e.written += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write stream unit: %w", err)
	}

	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
