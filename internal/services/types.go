package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proqol/proscore/internal/scoring"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Batch is an imported table of raw respondent records, not yet scored.
type Batch struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id,omitempty"`
	Questionnaire string           `json:"questionnaire"`
	CreatedAt     time.Time        `json:"created_at"`
	Records       []scoring.Record `json:"records"`
}

// ScoreRun is one scoring pass over a batch, with the options it ran under
// and the full per-respondent results.
type ScoreRun struct {
	ID            string                 `json:"id"`
	BatchID       string                 `json:"batch_id"`
	TenantID      string                 `json:"tenant_id,omitempty"`
	Questionnaire string                 `json:"questionnaire"`
	Options       scoring.Options        `json:"options"`
	CreatedAt     time.Time              `json:"created_at"`
	Results       []scoring.ScoredRecord `json:"results"`
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

type Tenant struct{ ID, Name string }

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	TenantID  string
	CreatedAt time.Time
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
