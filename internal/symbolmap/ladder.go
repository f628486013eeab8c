package symbolmap

import (
	"strings"

	"github.com/dshills/doxylink/pkg/types"
)

// Candidate is a key that matched a query piecewise
type Candidate struct {
	Key    string
	Target types.Target
}

// Filter reduces a candidate set
type Filter func(candidates []Candidate) []Candidate

// Stage is one rung of the disambiguation ladder. If its filter leaves exactly
// one candidate, that candidate wins. Otherwise a narrowing stage hands its
// output to the next stage, and a non-narrowing one is forgotten.
type Stage struct {
	Name    string
	Filter  Filter
	Narrows bool
}

// DefaultLadder is the order in which ambiguous piecewise matches are settled
var DefaultLadder = []Stage{
	// A class and its constructor share a trailing name; the class wins
	{Name: "prefer-class", Filter: PreferClasses},
	// "PolyVox::Array< 1, ElementType >::operator[]" should not beat
	// "PolyVox::Array::operator[]"
	{Name: "drop-templates", Filter: DropTemplates, Narrows: true},
	{Name: "shortest", Filter: Shortest, Narrows: true},
}

// PreferClasses keeps only candidates of kind class
func PreferClasses(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Target.TargetKind() == types.KindClass {
			out = append(out, c)
		}
	}
	return out
}

// DropTemplates removes template instantiations
func DropTemplates(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if !strings.Contains(c.Key, "<") {
			out = append(out, c)
		}
	}
	return out
}

// Shortest keeps the first candidate with the shortest key
func Shortest(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c.Key) < len(best.Key) {
			best = c
		}
	}
	return []Candidate{best}
}

// Disambiguate walks the ladder until one candidate remains
func Disambiguate(candidates []Candidate, ladder []Stage) (Candidate, bool) {
	if len(candidates) == 1 {
		return candidates[0], true
	}

	current := candidates
	for _, stage := range ladder {
		out := stage.Filter(current)
		if len(out) == 1 {
			return out[0], true
		}
		if stage.Narrows {
			current = out
		}
	}
	return Candidate{}, false
}
