// Package symbolmap resolves C++ symbol references against the symbols of a
// parsed tag file.
package symbolmap

import (
	"strings"

	"github.com/dshills/doxylink/internal/arglist"
	"github.com/dshills/doxylink/internal/tagfile"
	"github.com/dshills/doxylink/pkg/types"
)

// Map is an immutable lookup structure over one tag file. It is safe for
// concurrent use.
type Map struct {
	keys    []string
	targets map[string]types.Target
	parts   [][]string

	// byLast indexes key positions by their last "::" component
	byLast    map[string][]int
	lastNames []string

	ladder  []Stage
	skipped int
}

// Option configures a Map
type Option func(*Map)

// WithLadder replaces the disambiguation ladder
func WithLadder(ladder []Stage) Option {
	return func(m *Map) {
		m.ladder = ladder
	}
}

// New builds a Map from a parse result. The result must not be modified afterwards.
func New(result *tagfile.Result, opts ...Option) *Map {
	m := &Map{
		keys:    result.Keys,
		targets: result.Targets,
		parts:   make([][]string, len(result.Keys)),
		byLast:  make(map[string][]int),
		ladder:  DefaultLadder,
		skipped: len(result.Skipped),
	}
	for _, opt := range opts {
		opt(m)
	}

	for i, key := range m.keys {
		parts := strings.Split(key, "::")
		m.parts[i] = parts
		last := parts[len(parts)-1]
		if _, seen := m.byLast[last]; !seen {
			m.lastNames = append(m.lastNames, last)
		}
		m.byLast[last] = append(m.byLast[last], i)
	}
	return m
}

// Len returns the number of qualified names
func (m *Map) Len() int {
	return len(m.keys)
}

// Skipped returns how many tag file members could not be parsed
func (m *Map) Skipped() int {
	return m.skipped
}

// Keys returns the qualified names in registration order
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the target registered under an exact qualified name
func (m *Map) Get(key string) (types.Target, bool) {
	t, ok := m.targets[key]
	return t, ok
}

// Lookup resolves a symbol reference, optionally with an argument list, to
// exactly one entry. Failures are *types.LookupError.
func (m *Map) Lookup(query string) (types.Entry, error) {
	symbol, args, err := arglist.Normalize(query)
	if err != nil {
		return types.Entry{}, &types.LookupError{Query: query, Reason: types.ReasonMalformed, Err: err}
	}

	target, err := m.match(symbol)
	if err != nil {
		if lerr, ok := err.(*types.LookupError); ok {
			lerr.Query = query
		}
		return types.Entry{}, err
	}

	entry, err := target.Select(args)
	if err != nil {
		lerr := &types.LookupError{Query: query, Symbol: symbol, Arglist: args, Reason: types.ReasonArglistMismatch}
		if set, ok := target.(*types.OverloadSet); ok {
			lerr.Suggestions = suggest(args, set.Arglists())
		}
		return types.Entry{}, lerr
	}
	return entry, nil
}

// match finds the single target for a bare symbol
func (m *Map) match(symbol string) (types.Target, error) {
	if t, ok := m.targets[symbol]; ok {
		return t, nil
	}

	candidates := m.Candidates(symbol)
	if len(candidates) == 0 {
		return nil, &types.LookupError{
			Symbol:      symbol,
			Reason:      types.ReasonNotFound,
			Suggestions: m.suggestNames(symbol),
		}
	}

	winner, ok := Disambiguate(candidates, m.ladder)
	if !ok {
		return nil, &types.LookupError{Symbol: symbol, Reason: types.ReasonAmbiguous}
	}
	return winner.Target, nil
}

// Candidates returns every key whose trailing components match the symbol's,
// compared right to left over the shorter of the two, in registration order.
func (m *Map) Candidates(symbol string) []Candidate {
	parts := strings.Split(symbol, "::")
	last := parts[len(parts)-1]

	var out []Candidate
	for _, i := range m.byLast[last] {
		if suffixEqual(parts, m.parts[i]) {
			key := m.keys[i]
			out = append(out, Candidate{Key: key, Target: m.targets[key]})
		}
	}
	return out
}

// PiecewiseScan is the unindexed form of Candidates: it compares the symbol
// against every key. It returns the same candidates in the same order.
func (m *Map) PiecewiseScan(symbol string) []Candidate {
	var out []Candidate
	for _, key := range m.keys {
		a := reversed(strings.Split(symbol, "::"))
		b := reversed(strings.Split(key, "::"))
		n := min(len(a), len(b))
		if equalStrings(a[:n], b[:n]) {
			out = append(out, Candidate{Key: key, Target: m.targets[key]})
		}
	}
	return out
}

// Row is one flattened symbol, one per overload
type Row struct {
	Name    string
	Kind    types.Kind
	File    string
	Arglist string
}

// Rows flattens the map in registration order
func (m *Map) Rows() []Row {
	rows := make([]Row, 0, len(m.keys))
	for _, key := range m.keys {
		switch t := m.targets[key].(type) {
		case *types.OverloadSet:
			for _, args := range t.Arglists() {
				file, _ := t.File(args)
				rows = append(rows, Row{Name: key, Kind: types.KindFunction, File: file, Arglist: args})
			}
		case types.Entry:
			rows = append(rows, Row{Name: key, Kind: t.Kind, File: t.File})
		}
	}
	return rows
}

func suffixEqual(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 1; i <= n; i++ {
		if a[len(a)-i] != b[len(b)-i] {
			return false
		}
	}
	return true
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
