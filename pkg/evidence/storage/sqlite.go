package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/conduit/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// sortColumns whitelists ORDER BY columns.
var sortColumns = map[string]string{
	"request_time":     "request_time",
	"duration":         "duration",
	"upstream_latency": "upstream_latency",
}

// SQLiteStorage implements the Storage interface using SQLite through the
// pure-Go modernc driver.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database and initializes the
// schema.
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if config.Path == "" {
		return nil, evidence.NewStorageError("sqlite", "open", errors.New("database path is required"))
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, evidence.NewStorageError("sqlite", "create_directory", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(config))
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// dsn applies pragmas through the connection string so every pooled
// connection gets them.
func dsn(config SQLiteConfig) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
	if config.WALMode {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + config.Path + "?" + params.Encode()
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists a record to the database.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	query := `INSERT INTO evidence (` + selectColumns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	)`

	// Empty error is stored as NULL
	var errorVal any
	if record.Error != "" {
		errorVal = record.Error
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID,
		unixNano(record.RequestTime), unixNano(record.RecordedTime),
		record.Method, record.Path, record.RemoteAddr, record.UserAgent,
		record.Backend, record.BackendType, record.Model, record.MessageCount, record.HasSystem,
		record.UpstreamStatus, record.ResponseStatus, record.Outcome,
		record.Deltas, record.Bytes, record.MalformedFrames,
		int64(record.UpstreamLatency), int64(record.FirstDelta), int64(record.Duration),
		errorVal,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM evidence"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "request_time"
	}
	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s, id %s", column, order, order)

	// SQLite requires a LIMIT before OFFSET; -1 means no limit.
	if query.Limit > 0 || query.Offset > 0 {
		limit := -1
		if query.Limit > 0 {
			limit = query.Limit
		}
		sqlQuery += " LIMIT ? OFFSET ?"
		args = append(args, limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	results := make([]*evidence.Record, 0)
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM evidence"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM evidence"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	return deleted, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause builds a parameterized WHERE clause from the query filters.
func buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "request_time >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "request_time <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, query.RequestID)
	}
	if query.Backend != "" {
		conditions = append(conditions, "backend = ?")
		args = append(args, query.Backend)
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, query.Outcome)
	}

	switch query.Status {
	case "success":
		conditions = append(conditions, "outcome = ?")
		args = append(args, evidence.OutcomeSuccess)
	case "error":
		conditions = append(conditions, "outcome <> ?")
		args = append(args, evidence.OutcomeSuccess)
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow converts a database row into a record.
func scanRow(rows *sql.Rows) (*evidence.Record, error) {
	var (
		record                            evidence.Record
		requestTime, recordedTime         int64
		remoteAddr, userAgent             sql.NullString
		backendType, model, errMsg        sql.NullString
		upstreamLatency, firstDelta, took int64
	)

	err := rows.Scan(
		&record.ID, &record.RequestID, &requestTime, &recordedTime,
		&record.Method, &record.Path, &remoteAddr, &userAgent,
		&record.Backend, &backendType, &model, &record.MessageCount, &record.HasSystem,
		&record.UpstreamStatus, &record.ResponseStatus, &record.Outcome,
		&record.Deltas, &record.Bytes, &record.MalformedFrames,
		&upstreamLatency, &firstDelta, &took,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	record.RequestTime = timeOrZero(requestTime)
	record.RecordedTime = timeOrZero(recordedTime)
	record.RemoteAddr = remoteAddr.String
	record.UserAgent = userAgent.String
	record.BackendType = backendType.String
	record.Model = model.String
	record.Error = errMsg.String
	record.UpstreamLatency = time.Duration(upstreamLatency)
	record.FirstDelta = time.Duration(firstDelta)
	record.Duration = time.Duration(took)

	return &record, nil
}

// timeOrZero converts a unix-nanosecond column back to a time, keeping
// zero for unset timestamps.
func timeOrZero(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
