package query

import "mercator-hq/conduit/pkg/evidence"

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"request_time":     true,
	"duration":         true,
	"upstream_latency": true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

var validOutcomes = map[string]bool{
	evidence.OutcomeSuccess:         true,
	evidence.OutcomeInvalidRequest:  true,
	evidence.OutcomeUnknownBackend:  true,
	evidence.OutcomeConfigError:     true,
	evidence.OutcomeUpstreamError:   true,
	evidence.OutcomeStreamError:     true,
	evidence.OutcomeClientCancelled: true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.InvalidQuery("limit must be >= 0, got %d", q.Limit)
	}
	if q.Limit > MaxLimit {
		return evidence.InvalidQuery("limit must be <= %d, got %d", MaxLimit, q.Limit)
	}

	if q.Offset < 0 {
		return evidence.InvalidQuery("offset must be >= 0, got %d", q.Offset)
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.InvalidQuery("invalid sort field: %s", q.SortBy)
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.InvalidQuery("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder)
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return evidence.InvalidQuery("start_time must be before end_time")
	}

	if q.Outcome != "" && !validOutcomes[q.Outcome] {
		return evidence.InvalidQuery("invalid outcome: %s", q.Outcome)
	}

	switch q.Status {
	case "", "success", "error":
	default:
		return evidence.InvalidQuery("invalid status: %s (must be 'success' or 'error')", q.Status)
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "request_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
