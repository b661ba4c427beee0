package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"mercator-hq/conduit/pkg/evidence"
)

// CSVExporter exports records as CSV, one row per record.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// header lists the CSV columns. Durations are in milliseconds.
var header = []string{
	"id", "request_id", "request_time", "recorded_time",
	"method", "path", "remote_addr", "user_agent",
	"backend", "backend_type", "model", "message_count", "has_system",
	"upstream_status", "response_status", "outcome",
	"deltas", "bytes", "malformed_frames",
	"upstream_latency_ms", "first_delta_ms", "duration_ms",
	"error",
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("csv export of %d records: %w", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return fmt.Errorf("csv export of %d records: %w", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv export of %d records: %w", len(records), err)
	}
	return nil
}

func recordToRow(r *evidence.Record) []string {
	return []string{
		r.ID, r.RequestID, formatTime(r.RequestTime), formatTime(r.RecordedTime),
		r.Method, r.Path, r.RemoteAddr, r.UserAgent,
		r.Backend, r.BackendType, r.Model, strconv.Itoa(r.MessageCount), strconv.FormatBool(r.HasSystem),
		strconv.Itoa(r.UpstreamStatus), strconv.Itoa(r.ResponseStatus), r.Outcome,
		strconv.Itoa(r.Deltas), strconv.FormatInt(r.Bytes, 10), strconv.Itoa(r.MalformedFrames),
		millis(r.UpstreamLatency), millis(r.FirstDelta), millis(r.Duration),
		r.Error,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
