package scoring

import "errors"

// Engine scores respondent records against one questionnaire. It is pure:
// each record's scores depend only on that record, so callers may score
// batches in any order or in parallel without synchronization.
//
// An engine for an extension questionnaire holds an engine for its base and
// consumes the base's sub-scale output as already-computed input values; the
// base logic is never redefined by the extension.
type Engine struct {
	q    *Questionnaire
	base *Engine
}

// NewEngine validates the schema and builds the engine chain.
func NewEngine(q *Questionnaire) (*Engine, error) {
	if q == nil {
		return nil, errors.New("nil questionnaire")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{q: q}
	if q.Base != nil {
		base, err := NewEngine(q.Base)
		if err != nil {
			return nil, err
		}
		e.base = base
	}
	return e, nil
}

// Questionnaire returns the schema this engine scores against.
func (e *Engine) Questionnaire() *Questionnaire { return e.q }

// ScoreTable scores a batch of respondent records. The whole table is
// validated before any aggregation begins: a single schema mismatch or
// out-of-range code aborts the call and no record is scored.
func (e *Engine) ScoreTable(records []Record, opts Options) ([]ScoredRecord, error) {
	for i := range records {
		if err := e.validateRecord(&records[i]); err != nil {
			return nil, err
		}
	}
	out := make([]ScoredRecord, 0, len(records))
	for i := range records {
		out = append(out, e.scoreRecord(&records[i], opts))
	}
	return out, nil
}

// ScoreRecord scores a single respondent record.
func (e *Engine) ScoreRecord(rec Record, opts Options) (ScoredRecord, error) {
	if err := e.validateRecord(&rec); err != nil {
		return ScoredRecord{}, err
	}
	return e.scoreRecord(&rec, opts), nil
}

func (e *Engine) validateRecord(rec *Record) error {
	if e.base != nil {
		if err := e.base.validateRecord(rec); err != nil {
			return err
		}
	}
	for _, sub := range e.q.Subscales {
		for _, name := range sub.Items {
			v, ok := rec.Items[name]
			if !ok {
				return &SchemaMismatchError{RespondentID: rec.RespondentID, Item: name}
			}
			if v == nil {
				continue
			}
			if *v >= e.q.Codes.Min && *v <= e.q.Codes.Max {
				continue
			}
			if e.q.isSentinel(*v) {
				continue
			}
			return &OutOfRangeError{RespondentID: rec.RespondentID, Item: name, Code: *v}
		}
	}
	return nil
}

// normalize maps this questionnaire's own raw codes to working values:
// sentinels and nil cells become the nil missing marker, valid codes pass
// through as numbers. The input record is not touched.
func (e *Engine) normalize(rec *Record) map[string]*float64 {
	out := map[string]*float64{}
	for _, sub := range e.q.Subscales {
		for _, name := range sub.Items {
			v := rec.Items[name]
			if v == nil || e.q.isSentinel(*v) {
				out[name] = nil
				continue
			}
			f := float64(*v)
			out[name] = &f
		}
	}
	return out
}

// reverseCode inverts designated items in place, after sentinel
// normalization; missing stays missing. min+max-value keeps reversal an
// involution over the valid code range, so applying it twice restores the
// original code. The engine applies it exactly once per scoring pass.
func (e *Engine) reverseCode(working map[string]*float64) {
	for _, sub := range e.q.Subscales {
		for _, name := range sub.Reversed {
			if v := working[name]; v != nil {
				r := float64(e.q.Codes.Min+e.q.Codes.Max) - *v
				working[name] = &r
			}
		}
	}
}

// scalePairs runs normalizer, reverse coder, sub-scale aggregator and total
// composer in dependency order, base engine first. The returned working map
// holds the normalized item values for every item in the chain.
func (e *Engine) scalePairs(rec *Record) (map[string]scalePair, map[string]*float64) {
	pairs := map[string]scalePair{}
	working := map[string]*float64{}
	if e.base != nil {
		basePairs, baseWorking := e.base.scalePairs(rec)
		for k, v := range basePairs {
			pairs[k] = v
		}
		for k, v := range baseWorking {
			working[k] = v
		}
	}
	own := e.normalize(rec)
	e.reverseCode(own)
	for k, v := range own {
		working[k] = v
	}
	for _, sub := range e.q.Subscales {
		pairs[sub.Name] = aggregateSubscale(sub, working)
	}
	for _, comp := range e.q.Composites {
		pairs[comp.Name] = composeTotal(comp, pairs, e.q.nominalItems(comp))
	}
	return pairs, working
}

func (e *Engine) scoreRecord(rec *Record, opts Options) ScoredRecord {
	pairs, working := e.scalePairs(rec)
	out := ScoredRecord{RespondentID: rec.RespondentID}

	items := e.q.ItemNames()
	out.Items = make(map[string]*int, len(items))
	for _, name := range items {
		if opts.UpdateItems {
			if v := working[name]; v != nil {
				code := int(*v)
				out.Items[name] = &code
			} else {
				out.Items[name] = nil
			}
			continue
		}
		if v := rec.Items[name]; v != nil {
			code := *v
			out.Items[name] = &code
		} else {
			out.Items[name] = nil
		}
	}

	scales := e.q.ScaleNames()
	out.Scores = make(map[string]*float64, len(scales))
	if opts.KeepNValid {
		out.NValid = make(map[string]int, len(scales))
	}
	for _, name := range scales {
		p := pairs[name]
		if p.score != nil {
			score := *p.score
			out.Scores[name] = &score
		} else {
			out.Scores[name] = nil
		}
		if opts.KeepNValid {
			out.NValid[name] = p.n
		}
	}
	return out
}
