package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/proqol/proscore/internal/scoring"
)

// ParseWideCSV reads a wide-format respondent table: one header row, an ID
// column, and one column per questionnaire item. Header names are matched
// case-sensitively. Empty and "NA" cells become the explicit missing marker.
// Code range checking is left to the engine; this only rejects tables whose
// shape or cell syntax is wrong.
func ParseWideCSV(q *scoring.Questionnaire, data []byte) ([]scoring.Record, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, NewInvalidError(fmt.Sprintf("csv parse: %v", err))
	}
	if len(rows) == 0 {
		return nil, NewInvalidError("empty csv")
	}
	header := rows[0]
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	idCol, ok := col["ID"]
	if !ok {
		return nil, NewInvalidError("schema mismatch: missing item column ID")
	}
	items := q.ItemNames()
	for _, name := range items {
		if _, ok := col[name]; !ok {
			return nil, NewInvalidError("schema mismatch: missing item column " + name)
		}
	}
	records := make([]scoring.Record, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		rec := scoring.Record{
			RespondentID: strings.TrimSpace(row[idCol]),
			Items:        make(map[string]*int, len(items)),
		}
		for _, name := range items {
			cell := strings.TrimSpace(row[col[name]])
			if cell == "" || cell == "NA" {
				rec.Items[name] = nil
				continue
			}
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, NewInvalidError(fmt.Sprintf("row %d item %s: not an integer: %q", rowNum+2, name, cell))
			}
			rec.Items[name] = &v
		}
		records = append(records, rec)
	}
	return records, nil
}
