package services

import (
	"errors"
	"time"

	"github.com/proqol/proscore/internal/scoring"
)

type ScoringStore interface {
	AddBatch(b *Batch) error
	GetBatch(id string) (*Batch, error)
	DeleteBatch(id string) error
	AddScoreRun(r *ScoreRun) error
	GetScoreRun(id string) (*ScoreRun, error)
	AddAudit(entry AuditEntry)
}

type ScoringService struct {
	catalog *scoring.Catalog
	store   ScoringStore
	now     func() time.Time
	idGen   func(prefix string, n int) string
}

// QuestionnaireView is the public listing shape of a registered instrument.
type QuestionnaireView struct {
	Key     string   `json:"key"`
	Name    string   `json:"name,omitempty"`
	Version string   `json:"version,omitempty"`
	Items   []string `json:"items"`
	Scales  []string `json:"scales"`
}

func NewScoringService(catalog *scoring.Catalog, store ScoringStore) *ScoringService {
	return &ScoringService{
		catalog: catalog,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func(prefix string, n int) string { return prefix + shortID(n) },
	}
}

// Questionnaires lists the registered instruments with their expected item
// columns and derived scale columns.
func (s *ScoringService) Questionnaires() []QuestionnaireView {
	keys := s.catalog.Keys()
	out := make([]QuestionnaireView, 0, len(keys))
	for _, key := range keys {
		eng, err := s.catalog.Engine(key)
		if err != nil {
			continue
		}
		q := eng.Questionnaire()
		out = append(out, QuestionnaireView{
			Key:     q.Key,
			Name:    q.Name,
			Version: q.Version,
			Items:   q.ItemNames(),
			Scales:  q.ScaleNames(),
		})
	}
	return out
}

// Score runs the engine over an ad-hoc table without persisting anything.
func (s *ScoringService) Score(key string, records []scoring.Record, opts scoring.Options) ([]scoring.ScoredRecord, error) {
	eng, err := s.catalog.Engine(key)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownQuestionnaire) {
			return nil, NewNotFoundError(err.Error())
		}
		return nil, err
	}
	out, err := eng.ScoreTable(records, opts)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	return out, nil
}

// ImportBatchCSV parses a wide CSV into a stored batch for later scoring.
func (s *ScoringService) ImportBatchCSV(tenantID, actor, key string, data []byte) (*Batch, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	eng, err := s.catalog.Engine(key)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownQuestionnaire) {
			return nil, NewNotFoundError(err.Error())
		}
		return nil, err
	}
	records, err := ParseWideCSV(eng.Questionnaire(), data)
	if err != nil {
		return nil, err
	}
	b := &Batch{
		ID:            s.idGen("b", 8),
		TenantID:      tenantID,
		Questionnaire: key,
		CreatedAt:     s.now(),
		Records:       records,
	}
	if err := s.store.AddBatch(b); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "import_batch", Target: b.ID})
	return b, nil
}

// ScoreBatch scores a stored batch and persists the run with its results.
func (s *ScoringService) ScoreBatch(tenantID, actor, batchID string, opts scoring.Options) (*ScoreRun, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, NewNotFoundError("batch not found")
	}
	if b.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	eng, err := s.catalog.Engine(b.Questionnaire)
	if err != nil {
		return nil, err
	}
	results, err := eng.ScoreTable(b.Records, opts)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	run := &ScoreRun{
		ID:            s.idGen("r", 8),
		BatchID:       b.ID,
		TenantID:      tenantID,
		Questionnaire: b.Questionnaire,
		Options:       opts,
		CreatedAt:     s.now(),
		Results:       results,
	}
	if err := s.store.AddScoreRun(run); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "score_batch", Target: run.ID, Note: b.ID})
	return run, nil
}

// PurgeBatch deletes a stored batch together with its records and every
// score run produced from it. The deletion itself is audited.
func (s *ScoringService) PurgeBatch(tenantID, actor, batchID string) error {
	if tenantID == "" {
		return NewForbiddenError("unauthorized")
	}
	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return err
	}
	if b == nil {
		return NewNotFoundError("batch not found")
	}
	if b.TenantID != tenantID {
		return NewForbiddenError("forbidden")
	}
	if err := s.store.DeleteBatch(batchID); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "purge_batch", Target: batchID})
	return nil
}

// GetRun fetches a stored scoring run, scoped to the caller's tenant.
func (s *ScoringService) GetRun(tenantID, runID string) (*ScoreRun, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	run, err := s.store.GetScoreRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, NewNotFoundError("run not found")
	}
	if run.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return run, nil
}
