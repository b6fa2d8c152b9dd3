package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Somchai   DEE ", "somchai dee"},
		{"S.Dee@Uni.ac.th", "s.dee@uni.ac.th"},
		{"O’Brien, Jean–Luc!", "o'brien jean-luc"},
		{"...", "..."},
		{"", ""},
		{"\t\n", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Canonicalize(tc.in), "input %q", tc.in)
	}
}

func TestKeywordsDropsStopwordsAndDuplicates(t *testing.T) {
	got := Keywords("The Somchai and the somchai of Computer")
	assert.Equal(t, []string{"somchai", "computer"}, got)

	assert.Empty(t, Keywords("the of and"))
	assert.Empty(t, Keywords("   "))
}

func TestMatcher(t *testing.T) {
	m, err := Compile("anong physics")
	require.NoError(t, err)
	require.False(t, m.Empty())

	assert.True(t, m.Matches("Anong Somchai IT a@x.com"))
	assert.True(t, m.Matches("Dee PHYSICS"))
	assert.False(t, m.Matches("Somchai Dee CS s@x.com"))

	assert.Equal(t, []string{"anong", "physics"}, m.Matched("anong studies physics"))
	assert.Equal(t, []string{"anong", "physics"}, m.Keywords())
}

func TestMatcherEmptyQuery(t *testing.T) {
	m, err := Compile("the")
	require.NoError(t, err)

	assert.True(t, m.Empty())
	assert.False(t, m.Matches("the quick fox"))
	assert.Nil(t, m.Matched("the"))
}
