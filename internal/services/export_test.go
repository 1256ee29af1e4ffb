package services

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/proqol/proscore/internal/scoring"
)

func readCSV(b []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(b)))
	return r.ReadAll()
}

func scoredRun(t *testing.T, opts scoring.Options) *ScoreRun {
	t.Helper()
	store := newScoringStubStore()
	svc := newTestScoringService(store)
	b, err := svc.ImportBatchCSV("t1", "u1", "FACT-G", factgCSV(allTwosRow("P1")))
	if err != nil {
		t.Fatalf("ImportBatchCSV: %v", err)
	}
	run, err := svc.ScoreBatch("t1", "u1", b.ID, opts)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	return run
}

func TestExportScoredWideCSV(t *testing.T) {
	run := scoredRun(t, scoring.Options{KeepNValid: true})
	b, err := ExportScoredWideCSV(scoring.FACTG(), run)
	if err != nil {
		t.Fatalf("export wide: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(recs))
	}
	// ID + 27 items + 5 scales + 5 N columns.
	if len(recs[0]) != 38 {
		t.Fatalf("columns = %d, want 38", len(recs[0]))
	}
	if recs[0][0] != "ID" || recs[0][1] != "GP1" {
		t.Fatalf("header starts %v", recs[0][:2])
	}
	if recs[0][len(recs[0])-1] != "FACTG_N" {
		t.Fatalf("last header = %s, want FACTG_N", recs[0][len(recs[0])-1])
	}
	row := recs[1]
	if row[0] != "P1" {
		t.Fatalf("ID = %s", row[0])
	}
	// FACTG is the 5th scale column after the 27 item columns.
	if got := row[1+27+4]; got != "54" {
		t.Fatalf("FACTG cell = %s, want 54", got)
	}
	if got := row[len(row)-1]; got != "27" {
		t.Fatalf("FACTG_N cell = %s, want 27", got)
	}
}

func TestExportScoredWideCSVMissingCell(t *testing.T) {
	store := newScoringStubStore()
	svc := newTestScoringService(store)
	row := "P1"
	for i := range scoring.FACTG().ItemNames() {
		if i < 7 {
			row += ","
		} else {
			row += ",2"
		}
	}
	b, err := svc.ImportBatchCSV("t1", "u1", "FACT-G", factgCSV(row))
	if err != nil {
		t.Fatalf("ImportBatchCSV: %v", err)
	}
	run, err := svc.ScoreBatch("t1", "u1", b.ID, scoring.Options{})
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	out, err := ExportScoredWideCSV(scoring.FACTG(), run)
	if err != nil {
		t.Fatalf("export wide: %v", err)
	}
	recs, err := readCSV(out)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// All of PWB's items are blank, so both PWB and FACTG export empty.
	if got := recs[1][1]; got != "" {
		t.Fatalf("GP1 cell = %q, want empty", got)
	}
	if got := recs[1][1+27]; got != "" {
		t.Fatalf("PWB cell = %q, want empty", got)
	}
}

func TestExportScoredLongCSV(t *testing.T) {
	run := scoredRun(t, scoring.Options{KeepNValid: true})
	b, err := ExportScoredLongCSV(scoring.FACTG(), run)
	if err != nil {
		t.Fatalf("export long: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1+5 {
		t.Fatalf("rows = %d, want header + 5 scales", len(recs))
	}
	if strings.Join(recs[0], ",") != "ID,scale,score,n_valid" {
		t.Fatalf("header = %v", recs[0])
	}
	if recs[5][1] != "FACTG" || recs[5][2] != "54" || recs[5][3] != "27" {
		t.Fatalf("FACTG row = %v", recs[5])
	}
}

func TestExportService(t *testing.T) {
	store := newScoringStubStore()
	svc := newTestScoringService(store)
	b, err := svc.ImportBatchCSV("t1", "u1", "FACT-G", factgCSV(allTwosRow("P1")))
	if err != nil {
		t.Fatalf("ImportBatchCSV: %v", err)
	}
	run, err := svc.ScoreBatch("t1", "u1", b.ID, scoring.Options{})
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}

	exp := NewExportService(scoring.BuiltinCatalog(), store)
	res, err := exp.Export(ExportParams{TenantID: "t1", RunID: run.ID})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %s", res.ContentType)
	}
	if !strings.HasSuffix(res.Filename, "_wide.csv") {
		t.Fatalf("filename = %s", res.Filename)
	}
	if _, err := exp.Export(ExportParams{TenantID: "t2", RunID: run.ID}); err == nil {
		t.Fatalf("expected forbidden for foreign tenant")
	}
	if _, err := exp.Export(ExportParams{TenantID: "t1", RunID: "nope"}); err == nil {
		t.Fatalf("expected not found for unknown run")
	}
	if _, err := exp.Export(ExportParams{TenantID: "t1", RunID: run.ID, Format: "xml"}); err == nil {
		t.Fatalf("expected invalid for unknown format")
	}
}
