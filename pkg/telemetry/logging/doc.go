// Package logging builds the process logger on top of log/slog.
//
// Loggers created by New add the request_id and backend stored in the
// record's context, and optionally mask credentials:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "stream started", "api_key", key) // request_id added, key masked
//
// Redaction covers sk- style keys, Google AIza keys, bearer tokens and
// key= query parameters anywhere in string values, and masks any attribute
// whose key names a secret (api_key, token, authorization, ...).
package logging
