package api

import "github.com/proqol/proscore/internal/services"

// Store is everything the HTTP surface needs persisted. Implemented by the
// in-memory store for tests and by the SQLite store in production.
type Store interface {
	services.ScoringStore
	services.AuthStore

	ListAudit() []services.AuditEntry
}

var _ Store = (*memoryStore)(nil)
