package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit schema.
// Timestamps and durations are stored as integer nanoseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- Timestamps (unix nanoseconds)
    request_time INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,

    -- Request metadata
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    remote_addr TEXT,
    user_agent TEXT,

    -- Request shape
    backend TEXT NOT NULL,
    backend_type TEXT,
    model TEXT,
    message_count INTEGER NOT NULL,
    has_system BOOLEAN NOT NULL,

    -- Response metadata
    upstream_status INTEGER NOT NULL,
    response_status INTEGER NOT NULL,
    outcome TEXT NOT NULL,

    -- Stream totals
    deltas INTEGER NOT NULL,
    bytes INTEGER NOT NULL,
    malformed_frames INTEGER NOT NULL,

    -- Latency (nanoseconds)
    upstream_latency INTEGER NOT NULL,
    first_delta INTEGER NOT NULL,
    duration INTEGER NOT NULL,

    -- Error info
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_request_time ON evidence(request_time);
CREATE INDEX IF NOT EXISTS idx_evidence_backend ON evidence(backend);
CREATE INDEX IF NOT EXISTS idx_evidence_outcome ON evidence(outcome);
CREATE INDEX IF NOT EXISTS idx_evidence_request_id ON evidence(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, request_id, request_time, recorded_time,
    method, path, remote_addr, user_agent,
    backend, backend_type, model, message_count, has_system,
    upstream_status, response_status, outcome,
    deltas, bytes, malformed_frames,
    upstream_latency, first_delta, duration,
    error`
