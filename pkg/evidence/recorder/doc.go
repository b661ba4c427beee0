// Package recorder writes audit records on a background goroutine.
//
// Handlers call Record once per request after the terminal event. The
// record is queued on a buffered channel and written to storage by a single
// worker; when the buffer stays full for WriteTimeout the record is dropped
// and logged rather than holding the request goroutine. Close drains
// everything still queued.
package recorder
