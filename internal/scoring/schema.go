package scoring

import (
	"fmt"
	"strings"
)

// CodeRange is the inclusive range of valid raw item codes.
type CodeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Subscale groups items into one named score. Reversed lists the subset of
// Items whose scoring direction is inverted. A sub-scale score is reported
// missing when validN/len(Items) <= Threshold.
type Subscale struct {
	Name      string   `json:"name"`
	Items     []string `json:"items"`
	Reversed  []string `json:"reversed,omitempty"`
	Threshold float64  `json:"threshold"`
}

// Composite combines sub-scale scores (by name) into a total. Members may
// reference sub-scales of the questionnaire itself or of its base.
type Composite struct {
	Name      string   `json:"name"`
	Subscales []string `json:"subscales"`
	Threshold float64  `json:"threshold"`
}

// Questionnaire is the immutable schema of one instrument. An extension
// instrument sets Base and only declares its additional sub-scales and
// composites; the base's sub-scales are referenced by name, never redefined.
type Questionnaire struct {
	Key        string         `json:"key"`
	Name       string         `json:"name,omitempty"`
	Version    string         `json:"version,omitempty"`
	Codes      CodeRange      `json:"codes"`
	Sentinels  []int          `json:"sentinels,omitempty"`
	Subscales  []Subscale     `json:"subscales"`
	Composites []Composite    `json:"composites,omitempty"`
	Base       *Questionnaire `json:"-"`
}

// Validate checks the schema for internal consistency. It is called once at
// engine construction; a questionnaire that passes is safe to score against.
func (q *Questionnaire) Validate() error {
	if strings.TrimSpace(q.Key) == "" {
		return fmt.Errorf("questionnaire key required")
	}
	if q.Codes.Min >= q.Codes.Max {
		return fmt.Errorf("%s: invalid code range [%d,%d]", q.Key, q.Codes.Min, q.Codes.Max)
	}
	for _, s := range q.Sentinels {
		if s >= q.Codes.Min && s <= q.Codes.Max {
			return fmt.Errorf("%s: sentinel %d overlaps valid code range", q.Key, s)
		}
	}
	if q.Base != nil {
		if err := q.Base.Validate(); err != nil {
			return err
		}
	}
	if len(q.Subscales) == 0 && q.Base == nil {
		return fmt.Errorf("%s: no subscales", q.Key)
	}
	seen := map[string]bool{}
	for _, name := range q.baseItemNames() {
		seen[name] = true
	}
	scales := map[string]bool{}
	for _, name := range q.baseScaleNames() {
		scales[name] = true
	}
	for _, sub := range q.Subscales {
		if strings.TrimSpace(sub.Name) == "" {
			return fmt.Errorf("%s: unnamed subscale", q.Key)
		}
		if scales[sub.Name] {
			return fmt.Errorf("%s: duplicate scale %s", q.Key, sub.Name)
		}
		scales[sub.Name] = true
		if len(sub.Items) == 0 {
			return fmt.Errorf("%s: subscale %s has no items", q.Key, sub.Name)
		}
		if sub.Threshold < 0 || sub.Threshold >= 1 {
			return fmt.Errorf("%s: subscale %s threshold %g out of [0,1)", q.Key, sub.Name, sub.Threshold)
		}
		items := map[string]bool{}
		for _, it := range sub.Items {
			if seen[it] {
				return fmt.Errorf("%s: duplicate item %s", q.Key, it)
			}
			seen[it] = true
			items[it] = true
		}
		for _, it := range sub.Reversed {
			if !items[it] {
				return fmt.Errorf("%s: reversed item %s not in subscale %s", q.Key, it, sub.Name)
			}
		}
	}
	for _, comp := range q.Composites {
		if strings.TrimSpace(comp.Name) == "" {
			return fmt.Errorf("%s: unnamed composite", q.Key)
		}
		if scales[comp.Name] {
			return fmt.Errorf("%s: duplicate scale %s", q.Key, comp.Name)
		}
		scales[comp.Name] = true
		if len(comp.Subscales) == 0 {
			return fmt.Errorf("%s: composite %s has no members", q.Key, comp.Name)
		}
		if comp.Threshold < 0 || comp.Threshold >= 1 {
			return fmt.Errorf("%s: composite %s threshold %g out of [0,1)", q.Key, comp.Name, comp.Threshold)
		}
		for _, name := range comp.Subscales {
			if _, ok := q.subscale(name); !ok {
				return fmt.Errorf("%s: composite %s references unknown subscale %s", q.Key, comp.Name, name)
			}
		}
	}
	return nil
}

// subscale resolves a sub-scale by name, searching the base chain.
func (q *Questionnaire) subscale(name string) (Subscale, bool) {
	for _, sub := range q.Subscales {
		if sub.Name == name {
			return sub, true
		}
	}
	if q.Base != nil {
		return q.Base.subscale(name)
	}
	return Subscale{}, false
}

// ItemNames returns every expected item column, base items first, in
// declaration order. Input records must carry exactly these keys.
func (q *Questionnaire) ItemNames() []string {
	var out []string
	if q.Base != nil {
		out = append(out, q.Base.ItemNames()...)
	}
	for _, sub := range q.Subscales {
		out = append(out, sub.Items...)
	}
	return out
}

// ScaleNames returns the derived score columns in output order: all
// sub-scales (base first), then all composites (base first).
func (q *Questionnaire) ScaleNames() []string {
	var subs, comps []string
	q.collectScales(&subs, &comps)
	return append(subs, comps...)
}

func (q *Questionnaire) collectScales(subs, comps *[]string) {
	if q.Base != nil {
		q.Base.collectScales(subs, comps)
	}
	for _, sub := range q.Subscales {
		*subs = append(*subs, sub.Name)
	}
	for _, comp := range q.Composites {
		*comps = append(*comps, comp.Name)
	}
}

// nominalItems sums the nominal item counts of a composite's members.
func (q *Questionnaire) nominalItems(comp Composite) int {
	total := 0
	for _, name := range comp.Subscales {
		if sub, ok := q.subscale(name); ok {
			total += len(sub.Items)
		}
	}
	return total
}

func (q *Questionnaire) baseItemNames() []string {
	if q.Base == nil {
		return nil
	}
	return q.Base.ItemNames()
}

func (q *Questionnaire) baseScaleNames() []string {
	if q.Base == nil {
		return nil
	}
	return q.Base.ScaleNames()
}

func (q *Questionnaire) isSentinel(code int) bool {
	for _, s := range q.Sentinels {
		if code == s {
			return true
		}
	}
	return false
}
