// Package evidence records an audit trail of proxied chat requests.
//
// # Records
//
// Each Record describes one request: which backend served it, how the
// upstream answered, how many deltas were relayed, how long each phase
// took and how the request ended. Message content is never recorded and
// error messages are passed through the log redactor before they are
// stored, so the audit trail holds no conversation text and no
// credentials.
//
// # Architecture
//
//  1. recorder: accepts records from request handlers and writes them
//     on a background goroutine so a slow disk never stalls a stream
//  2. storage: persists records (memory for tests, SQLite in production)
//  3. retention: prunes records by age and count on a cron schedule
//  4. query and export: validate filters and write records as JSON or CSV
//     for the "conduit evidence" command
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: "data/evidence.db", WALMode: true})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	rec := recorder.New(store, recorder.Config{AsyncBuffer: 1000}, logger)
//	defer rec.Close()
//
//	_ = rec.Record(&evidence.Record{RequestID: id, Backend: "claude", Outcome: evidence.OutcomeSuccess})
package evidence
