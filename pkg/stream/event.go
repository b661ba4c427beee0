package stream

import "fmt"

// Kind identifies the variant of a canonical Event.
type Kind int

const (
	// KindTextDelta carries an incremental piece of assistant text.
	KindTextDelta Kind = iota

	// KindDone marks successful completion of the stream.
	KindDone

	// KindError marks abnormal termination of the stream.
	KindError
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindTextDelta:
		return "text_delta"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is the canonical, backend-independent unit of a streamed response.
// TextDelta events may repeat; exactly one Done or Error event ends a stream.
type Event struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind

	// Text is the delta payload for KindTextDelta.
	Text string

	// Message describes the failure for KindError.
	Message string

	// Status is the HTTP-equivalent status code for KindError.
	Status int
}

// TextDelta returns a text delta event.
func TextDelta(text string) Event {
	return Event{Kind: KindTextDelta, Text: text}
}

// Done returns the successful terminal event.
func Done() Event {
	return Event{Kind: KindDone}
}

// Error returns a failure terminal event.
func Error(message string, status int) Event {
	return Event{Kind: KindError, Message: message, Status: status}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}
