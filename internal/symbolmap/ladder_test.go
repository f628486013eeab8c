package symbolmap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/doxylink/pkg/types"
)

func cand(key string, kind types.Kind) Candidate {
	return Candidate{Key: key, Target: types.Entry{Kind: kind, File: key + ".html"}}
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       string
		ok         bool
	}{
		{
			name:       "single candidate",
			candidates: []Candidate{cand("A::x", types.KindVariable)},
			want:       "A::x",
			ok:         true,
		},
		{
			name:       "one class among functions",
			candidates: []Candidate{cand("A::B::B", types.KindFunction), cand("A::B", types.KindClass)},
			want:       "A::B",
			ok:         true,
		},
		{
			name: "class filter does not narrow",
			candidates: []Candidate{
				cand("X< int >", types.KindClass),
				cand("Y< int >", types.KindClass),
				cand("Z::Y", types.KindFunction),
			},
			want: "Z::Y",
			ok:   true,
		},
		{
			name:       "shortest first wins ties",
			candidates: []Candidate{cand("Aa::f", types.KindFunction), cand("Bb::f", types.KindFunction)},
			want:       "Aa::f",
			ok:         true,
		},
		{
			name:       "all templates",
			candidates: []Candidate{cand("T< 1 >::f", types.KindFunction), cand("T< 2 >::f", types.KindFunction)},
			ok:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Disambiguate(tt.candidates, DefaultLadder)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Key)
			}
		})
	}
}

func TestDisambiguate_CustomLadder(t *testing.T) {
	longest := func(cs []Candidate) []Candidate {
		best := cs[0]
		for _, c := range cs[1:] {
			if len(c.Key) > len(best.Key) {
				best = c
			}
		}
		return []Candidate{best}
	}

	cs := []Candidate{cand("a::f", types.KindFunction), cand("abc::f", types.KindFunction)}
	got, ok := Disambiguate(cs, []Stage{{Name: "longest", Filter: longest, Narrows: true}})
	assert.True(t, ok)
	assert.Equal(t, "abc::f", got.Key)

	_, ok = Disambiguate(cs, nil)
	assert.False(t, ok)
}

func TestShortest_Empty(t *testing.T) {
	assert.Nil(t, Shortest(nil))
}
