package services

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/proqol/proscore/internal/scoring"
)

type ExportStore interface {
	GetScoreRun(id string) (*ScoreRun, error)
}

type ExportService struct {
	catalog *scoring.Catalog
	store   ExportStore
}

type ExportParams struct {
	TenantID string
	RunID    string
	Format   string // "wide" or "long"
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

func NewExportService(catalog *scoring.Catalog, store ExportStore) *ExportService {
	return &ExportService{catalog: catalog, store: store}
}

// Export renders a stored scoring run as CSV in the requested format.
func (s *ExportService) Export(p ExportParams) (*ExportResult, error) {
	if p.TenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	run, err := s.store.GetScoreRun(p.RunID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, NewNotFoundError("run not found")
	}
	if run.TenantID != p.TenantID {
		return nil, NewForbiddenError("forbidden")
	}
	eng, err := s.catalog.Engine(run.Questionnaire)
	if err != nil {
		return nil, err
	}
	q := eng.Questionnaire()
	var data []byte
	switch p.Format {
	case "", "wide":
		data, err = ExportScoredWideCSV(q, run)
	case "long":
		data, err = ExportScoredLongCSV(q, run)
	default:
		return nil, NewInvalidError("unknown format: " + p.Format)
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    run.ID + "_" + p.formatOrWide() + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}

func (p ExportParams) formatOrWide() string {
	if p.Format == "" {
		return "wide"
	}
	return p.Format
}

// ExportScoredWideCSV renders respondent-per-row output: the ID column, one
// column per item, one per derived scale, and N columns when the run kept
// valid-item counts. Missing cells are empty.
func ExportScoredWideCSV(q *scoring.Questionnaire, run *ScoreRun) ([]byte, error) {
	items := q.ItemNames()
	scales := q.ScaleNames()
	header := append([]string{"ID"}, items...)
	header = append(header, scales...)
	if run.Options.KeepNValid {
		for _, name := range scales {
			header = append(header, name+"_N")
		}
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(header)
	for _, sr := range run.Results {
		row := make([]string, 0, len(header))
		row = append(row, sr.RespondentID)
		for _, name := range items {
			row = append(row, formatCode(sr.Items[name]))
		}
		for _, name := range scales {
			row = append(row, formatScore(sr.Scores[name]))
		}
		if run.Options.KeepNValid {
			for _, name := range scales {
				row = append(row, strconv.Itoa(sr.NValid[name]))
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportScoredLongCSV renders one row per respondent and derived scale.
func ExportScoredLongCSV(q *scoring.Questionnaire, run *ScoreRun) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"ID", "scale", "score"}
	if run.Options.KeepNValid {
		header = append(header, "n_valid")
	}
	_ = w.Write(header)
	scales := q.ScaleNames()
	for _, sr := range run.Results {
		for _, name := range scales {
			row := []string{sr.RespondentID, name, formatScore(sr.Scores[name])}
			if run.Options.KeepNValid {
				row = append(row, strconv.Itoa(sr.NValid[name]))
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCode(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
