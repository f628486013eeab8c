package symbolmap

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxSuggestions    = 3
	minSuggestionRank = 0.6
)

// suggestNames offers known names close to the last component of a symbol
// that matched nothing
func (m *Map) suggestNames(symbol string) []string {
	parts := strings.Split(symbol, "::")
	last := parts[len(parts)-1]
	if last == "" {
		return nil
	}

	names := suggest(last, m.lastNames)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, m.keys[m.byLast[name][0]])
	}
	return out
}

// suggest ranks options by similarity to want and returns the best few
func suggest(want string, options []string) []string {
	type scored struct {
		value string
		score float64
	}

	var ranked []scored
	for _, opt := range options {
		if !comparableLength(want, opt) {
			continue
		}
		if s := similarity(want, opt); s >= minSuggestionRank {
			ranked = append(ranked, scored{value: opt, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.value
	}
	return out
}

// comparableLength skips options that cannot reach the similarity threshold
func comparableLength(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		la, lb = lb, la
	}
	return lb > 0 && float64(la)/float64(lb) >= minSuggestionRank
}

// similarity computes the Levenshtein-based similarity ratio between two
// strings. Returns a value between 0.0 and 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := max(len(a), len(b))
	return 1.0 - float64(distance)/float64(maxLen)
}
