package scoring

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownQuestionnaire is returned when a catalog lookup misses.
var ErrUnknownQuestionnaire = errors.New("unknown questionnaire")

// Catalog holds validated questionnaires with ready engines, keyed by
// questionnaire key. It is populated at startup and read-only afterwards.
type Catalog struct {
	engines map[string]*Engine
}

func NewCatalog() *Catalog {
	return &Catalog{engines: map[string]*Engine{}}
}

// Register validates the questionnaire, builds its engine and adds it.
func (c *Catalog) Register(q *Questionnaire) error {
	eng, err := NewEngine(q)
	if err != nil {
		return err
	}
	if _, ok := c.engines[q.Key]; ok {
		return fmt.Errorf("questionnaire %s already registered", q.Key)
	}
	c.engines[q.Key] = eng
	return nil
}

// Engine returns the engine for a questionnaire key.
func (c *Catalog) Engine(key string) (*Engine, error) {
	eng, ok := c.engines[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestionnaire, key)
	}
	return eng, nil
}

// Keys lists registered questionnaire keys in sorted order.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.engines))
	for k := range c.engines {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuiltinCatalog returns the catalog of shipped instruments.
func BuiltinCatalog() *Catalog {
	c := NewCatalog()
	for _, q := range []*Questionnaire{FACTG(), FACTBMT()} {
		if err := c.Register(q); err != nil {
			// Shipped schemas are covered by tests; a failure here is a bug.
			panic(err)
		}
	}
	return c
}
