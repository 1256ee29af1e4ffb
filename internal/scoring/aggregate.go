package scoring

import "math"

// scalePair is one derived scale for one respondent: the score (nil when
// reported missing) and the count of non-missing items behind it. The count
// is always computed, whether or not the score passed its threshold.
type scalePair struct {
	score *float64
	n     int
}

// aggregateSubscale computes the rescaled mean of the non-missing items:
// mean(valid items) * nominal item count, so the score stays on the same
// scale however many items were answered. The score is missing when the
// completion ratio is at or below the sub-scale threshold.
func aggregateSubscale(sub Subscale, working map[string]*float64) scalePair {
	var sum float64
	n := 0
	for _, name := range sub.Items {
		if v := working[name]; v != nil {
			sum += *v
			n++
		}
	}
	out := scalePair{n: n}
	if n == 0 {
		return out
	}
	nominal := len(sub.Items)
	if float64(n)/float64(nominal) <= sub.Threshold {
		return out
	}
	score := round3(sum / float64(n) * float64(nominal))
	out.score = &score
	return out
}

// composeTotal sums member sub-scale scores. Counts are always additive;
// the score is missing when any member score is missing or when the summed
// count over the composite's nominal item total is at or below its threshold.
func composeTotal(comp Composite, pairs map[string]scalePair, nominal int) scalePair {
	var sum float64
	out := scalePair{}
	missing := false
	for _, name := range comp.Subscales {
		p := pairs[name]
		out.n += p.n
		if p.score == nil {
			missing = true
			continue
		}
		sum += *p.score
	}
	if missing || nominal == 0 {
		return out
	}
	if float64(out.n)/float64(nominal) <= comp.Threshold {
		return out
	}
	score := round3(sum)
	out.score = &score
	return out
}

// round3 fixes reported scores at 3 decimal digits. Intermediate sums are
// never rounded.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
