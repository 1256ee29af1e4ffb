package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/proqol/proscore/internal/api"
	"github.com/proqol/proscore/internal/scoring"
	"github.com/proqol/proscore/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeItems(raw string) map[string]*int {
	var out map[string]*int
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode items: %v", err)
		return nil
	}
	return out
}

func decodeScores(raw string) map[string]*float64 {
	var out map[string]*float64
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode scores: %v", err)
		return nil
	}
	return out
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SQLiteStore) AddBatch(b *services.Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(
		`INSERT INTO batches (id, tenant_id, questionnaire, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.TenantID, b.Questionnaire, b.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	for i, rec := range b.Records {
		items, err := encodeJSON(rec.Items)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO batch_records (batch_id, seq, respondent_id, items) VALUES (?, ?, ?, ?)`,
			b.ID, i, rec.RespondentID, items,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetBatch(id string) (*services.Batch, error) {
	b := &services.Batch{ID: id}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT tenant_id, questionnaire, created_at FROM batches WHERE id = ?`, id,
	).Scan(&b.TenantID, &b.Questionnaire, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	rows, err := s.db.Query(
		`SELECT respondent_id, items FROM batch_records WHERE batch_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec scoring.Record
		var items string
		if err := rows.Scan(&rec.RespondentID, &items); err != nil {
			return nil, err
		}
		rec.Items = decodeItems(items)
		b.Records = append(b.Records, rec)
	}
	return b, rows.Err()
}

// DeleteBatch removes a batch; records and runs go with it via the
// ON DELETE CASCADE constraints.
func (s *SQLiteStore) DeleteBatch(id string) error {
	_, err := s.db.Exec(`DELETE FROM batches WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) AddScoreRun(r *services.ScoreRun) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(
		`INSERT INTO score_runs (id, batch_id, tenant_id, questionnaire, update_items, keep_nvalid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BatchID, r.TenantID, r.Questionnaire,
		boolToInt(r.Options.UpdateItems), boolToInt(r.Options.KeepNValid),
		r.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	for i, sr := range r.Results {
		items, err := encodeJSON(sr.Items)
		if err != nil {
			return err
		}
		scores, err := encodeJSON(sr.Scores)
		if err != nil {
			return err
		}
		var nvalid sql.NullString
		if sr.NValid != nil {
			raw, err := encodeJSON(sr.NValid)
			if err != nil {
				return err
			}
			nvalid = sql.NullString{String: raw, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO run_records (run_id, seq, respondent_id, items, scores, nvalid) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, i, sr.RespondentID, items, scores, nvalid,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetScoreRun(id string) (*services.ScoreRun, error) {
	r := &services.ScoreRun{ID: id}
	var updateItems, keepNValid int
	var createdAt string
	err := s.db.QueryRow(
		`SELECT batch_id, tenant_id, questionnaire, update_items, keep_nvalid, created_at FROM score_runs WHERE id = ?`, id,
	).Scan(&r.BatchID, &r.TenantID, &r.Questionnaire, &updateItems, &keepNValid, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Options = scoring.Options{UpdateItems: updateItems != 0, KeepNValid: keepNValid != 0}
	r.CreatedAt = parseTime(createdAt)
	rows, err := s.db.Query(
		`SELECT respondent_id, items, scores, nvalid FROM run_records WHERE run_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sr scoring.ScoredRecord
		var items, scores string
		var nvalid sql.NullString
		if err := rows.Scan(&sr.RespondentID, &items, &scores, &nvalid); err != nil {
			return nil, err
		}
		sr.Items = decodeItems(items)
		sr.Scores = decodeScores(scores)
		if nvalid.Valid {
			if err := json.Unmarshal([]byte(nvalid.String), &sr.NValid); err != nil {
				log.Printf("sqlite store: decode nvalid: %v", err)
			}
		}
		r.Results = append(r.Results, sr)
	}
	return r, rows.Err()
}

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit (ts, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time.Format(time.RFC3339Nano), e.Actor, e.Action, e.Target, e.Note,
	)
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT ts, actor, action, target, note FROM audit ORDER BY ts`)
	if err != nil {
		s.logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		var ts string
		if err := rows.Scan(&ts, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			s.logErr("scan audit", err)
			return out
		}
		e.Time = parseTime(ts)
		out = append(out, e)
	}
	s.logErr("list audit", rows.Err())
	return out
}

func (s *SQLiteStore) AddTenant(t *services.Tenant) error {
	_, err := s.db.Exec(`INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID, t.Name)
	return err
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, pass_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.TenantID, u.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	u := &services.User{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, email, pass_hash, tenant_id, created_at FROM users WHERE email = ? COLLATE NOCASE`, email,
	).Scan(&u.ID, &u.Email, &u.PassHash, &u.TenantID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

var _ api.Store = (*SQLiteStore)(nil)
