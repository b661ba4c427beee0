package handlers

import (
	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/providers"
)

// ProviderManager resolves backends by name.
type ProviderManager interface {
	GetProvider(name string) (providers.Provider, bool)
	GetProviderNames() []string
}

// EvidenceRecorder receives one audit record per proxied request.
type EvidenceRecorder interface {
	Record(record *evidence.Record) error
}

// unknownBackendLabel replaces unconfigured backend names in metric labels
// so that arbitrary paths cannot grow label cardinality.
const unknownBackendLabel = "unknown"
