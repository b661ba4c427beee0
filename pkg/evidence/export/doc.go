// Package export writes audit records as JSON or CSV.
//
// The JSON exporter emits a single array; the CSV exporter emits one row
// per record with durations in milliseconds and timestamps in RFC 3339.
package export
