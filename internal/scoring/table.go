package scoring

// Record is one respondent's raw item codes. A nil cell is the explicit
// no-value marker; a key that is absent entirely is a schema mismatch.
// Records are read-only input: the engine never mutates them.
type Record struct {
	RespondentID string          `json:"id"`
	Items        map[string]*int `json:"items"`
}

// ScoredRecord is the engine output for one respondent: the item columns
// (originals by default, normalized/reversed values under UpdateItems), one
// score per derived scale (nil = missing), and optionally the valid-item
// counts per scale.
type ScoredRecord struct {
	RespondentID string              `json:"id"`
	Items        map[string]*int     `json:"items"`
	Scores       map[string]*float64 `json:"scores"`
	NValid       map[string]int      `json:"n_valid,omitempty"`
}

// Options is the engine configuration surface.
type Options struct {
	// UpdateItems replaces output item columns with normalized and
	// reverse-coded values; sentinel codes become the nil missing marker.
	// Default false: originals are carried through unchanged.
	UpdateItems bool `json:"update_items"`
	// KeepNValid includes a valid-item count per derived scale.
	KeepNValid bool `json:"keep_nvalid"`
}

// Code wraps a raw code for building Record cells.
func Code(v int) *int { return &v }
