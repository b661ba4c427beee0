// Package storage provides audit record storage backends.
//
// MemoryStorage keeps records in a map and is used by tests and by
// deployments that only need the audit trail while the process runs.
// SQLiteStorage persists records with the pure-Go modernc.org/sqlite
// driver, so the binary stays cgo-free. Pragmas (busy timeout, WAL) are
// passed in the DSN so they apply to every pooled connection.
//
// Both backends treat Query.Limit 0 as "no limit" and sort newest first
// unless SortOrder is "asc".
package storage
