package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/evidence/export"
	"mercator-hq/conduit/pkg/evidence/query"
)

var evidenceFlags struct {
	since     time.Duration
	timeRange string
	backend   string
	outcome   string
	status    string
	requestID string
	limit     int
	offset    int
	sortBy    string
	sortOrder string
	format    string
	output    string
	count     bool
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query the request audit trail",
	Long: `Query and export the per-request audit records written by "conduit run"
when evidence recording is enabled.

Records carry request metadata only (backend, outcome, statuses, stream
totals and latencies), never message content or credentials.`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with filters and export them as a table, JSON or CSV.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

Examples:
  # Failed requests in the last hour
  conduit evidence query --since 1h --status error

  # Stream errors on one backend
  conduit evidence query --backend claude --outcome stream_error

  # Slowest requests first, as CSV
  conduit evidence query --sort duration --format csv --output slow.csv`,
	Args: cobra.NoArgs,
	RunE: queryEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd)

	f := evidenceQueryCmd.Flags()
	f.DurationVar(&evidenceFlags.since, "since", 0, "only records from the last duration (e.g. 24h)")
	f.StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	f.StringVar(&evidenceFlags.backend, "backend", "", "filter by backend name")
	f.StringVar(&evidenceFlags.outcome, "outcome", "", "filter by outcome (success, invalid_request, unknown_backend, config_error, upstream_error, stream_error, client_cancelled)")
	f.StringVar(&evidenceFlags.status, "status", "", "filter by status (success, error)")
	f.StringVar(&evidenceFlags.requestID, "request-id", "", "filter by request ID")
	f.IntVar(&evidenceFlags.limit, "limit", query.DefaultLimit, "max results")
	f.IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	f.StringVar(&evidenceFlags.sortBy, "sort", "request_time", "sort field (request_time, duration, upstream_latency)")
	f.StringVar(&evidenceFlags.sortOrder, "order", "desc", "sort order (asc, desc)")
	f.StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")
	f.StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&evidenceFlags.count, "count", false, "print the number of matching records only")
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Evidence.Backend != "sqlite" {
		return cli.NewConfigError(cfgFile, fmt.Sprintf("evidence backend %q is not persistent; only sqlite can be queried", cfg.Evidence.Backend))
	}

	format, err := cli.ParseFormat(evidenceFlags.format)
	if err != nil {
		return err
	}

	q, err := buildEvidenceQuery(time.Now())
	if err != nil {
		return err
	}

	store, err := openStorage(cfg.Evidence)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if evidenceFlags.count {
		n, err := store.Count(ctx, q)
		if err != nil {
			return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	var out io.Writer = cmd.OutOrStdout()
	if evidenceFlags.output != "" {
		f, err := cli.OpenOutput(evidenceFlags.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := writeRecords(ctx, out, format, records); err != nil {
		return cli.NewCommandError("evidence", err)
	}
	return nil
}

// buildEvidenceQuery turns the query flags into a validated query.
func buildEvidenceQuery(now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{
		RequestID: evidenceFlags.requestID,
		Backend:   evidenceFlags.backend,
		Outcome:   evidenceFlags.outcome,
		Status:    evidenceFlags.status,
		Limit:     evidenceFlags.limit,
		Offset:    evidenceFlags.offset,
		SortBy:    evidenceFlags.sortBy,
		SortOrder: evidenceFlags.sortOrder,
	}

	if evidenceFlags.since > 0 && evidenceFlags.timeRange != "" {
		return nil, errors.New("--since and --time-range are mutually exclusive")
	}
	if evidenceFlags.since > 0 {
		start := now.Add(-evidenceFlags.since)
		q.StartTime = &start
	}
	if evidenceFlags.timeRange != "" {
		start, end, err := parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = &start, &end
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	startStr, endStr, ok := strings.Cut(s, "/")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format %q (expected: start/end)", s)
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func writeRecords(ctx context.Context, w io.Writer, format cli.OutputFormat, records []*evidence.Record) error {
	switch format {
	case cli.FormatJSON:
		return export.NewJSONExporter(true).Export(ctx, records, w)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, records, w)
	default:
		return writeRecordTable(w, records)
	}
}

func writeRecordTable(w io.Writer, records []*evidence.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	table := cli.NewTable(w, "TIME", "REQUEST ID", "BACKEND", "OUTCOME", "STATUS", "DELTAS", "FIRST DELTA", "DURATION")
	for _, r := range records {
		table.Row(
			r.RequestTime.UTC().Format(time.RFC3339),
			r.RequestID,
			r.Backend,
			r.Outcome,
			strconv.Itoa(r.ResponseStatus),
			strconv.Itoa(r.Deltas),
			r.FirstDelta.Round(time.Millisecond).String(),
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	if err := table.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d record(s)\n", len(records))
	return err
}
