package middleware

// ctxKey keys the values this package stores on a request context.
type ctxKey int

const (
	requestIDKey ctxKey = iota
	startTimeKey
)
