package scoring

import "fmt"

// OutOfRangeError reports a raw value outside the union of valid codes and
// missing sentinels. Validation is all-or-nothing: one bad cell fails the
// whole call and no scores are produced.
type OutOfRangeError struct {
	RespondentID string
	Item         string
	Code         int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out-of-range input: respondent %s item %s has code %d", e.RespondentID, e.Item, e.Code)
}

// SchemaMismatchError reports an expected item column absent from the input.
type SchemaMismatchError struct {
	RespondentID string
	Item         string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: respondent %s is missing item column %s", e.RespondentID, e.Item)
}
