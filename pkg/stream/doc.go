// Package stream implements the streaming-normalization primitives shared by
// every backend: the canonical event model, the frame reassembler that turns
// an upstream byte stream into logical lines, and the encoder that writes
// canonical events to the client as Server-Sent Events.
//
// The three pieces form a pull pipeline. The encoder is driven by the caller,
// which pulls events from a provider adapter, which in turn pulls frames from a
// Reassembler wrapping the upstream response body:
//
//	r := stream.NewReassembler(resp.Body)
//	enc := stream.NewEncoder(w)
//	for {
//	    frame, err := r.Next(ctx)
//	    ...
//	    if err := enc.Encode(stream.TextDelta(text)); err != nil {
//	        return err
//	    }
//	}
//
// No stage reads ahead of its consumer, so backpressure is structural and
// cancelling the request context stops the upstream read.
//
// # Wire Format
//
// Each text delta is one SSE unit:
//
//	data: {"text":"Hel"}
//
// The stream ends with exactly one terminal unit, either
//
//	data: [DONE]
//
// or an error unit:
//
//	data: {"error":"upstream connection reset","status":502}
package stream
