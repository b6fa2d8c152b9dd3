// Package search provides keyword matching over directory records using a
// single Aho-Corasick automaton built from the query keywords.
package search

import (
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"
)

// ============================================================================
// CANONICALIZER - Used for BOTH keyword compilation AND haystack scanning
// ============================================================================

// isJoiner returns true for punctuation that appears INSIDE names and emails.
// Examples: "O'Brien", "Jean-Luc", "s.dee@uni.ac.th"
func isJoiner(r rune) bool {
	switch r {
	case '\'', '-', '.', '_', '@', '+':
		return true
	default:
		return false
	}
}

// Canonicalize folds text into the form used for matching:
// - lowercase
// - letters, digits and joiners kept
// - every other run of characters replaced by a single space
// - leading/trailing spaces trimmed
func Canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	lastWasSpace := true

	for _, ch := range s {
		c := unicode.ToLower(ch)

		// Normalize curly apostrophe to straight
		if c == '’' || c == '‘' {
			c = '\''
		}
		// Normalize en-dash/em-dash to hyphen
		if c == '–' || c == '—' {
			c = '-'
		}

		if unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsMark(c) || isJoiner(c) {
			out.WriteRune(c)
			lastWasSpace = false
		} else if !lastWasSpace {
			out.WriteRune(' ')
			lastWasSpace = true
		}
	}

	return strings.TrimSuffix(out.String(), " ")
}

// ============================================================================
// KEYWORDS
// ============================================================================

// english is loaded once; the stopword lists ship with the library.
var english = stopwords.MustGet("en")

// Keywords splits a free-text query into distinct canonical keywords,
// dropping English stopwords. Order of first appearance is kept.
func Keywords(query string) []string {
	fields := strings.Fields(Canonicalize(query))
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		if seen[f] || english.Contains(f) {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ============================================================================
// MATCHER
// ============================================================================

// Matcher scans haystacks for any of a fixed set of keywords.
type Matcher struct {
	ac       *ahocorasick.Automaton
	keywords []string
}

// Compile builds a Matcher for the query. A query with no usable keywords
// yields a Matcher that never matches.
func Compile(query string) (*Matcher, error) {
	keywords := Keywords(query)
	m := &Matcher{keywords: keywords}
	if len(keywords) == 0 {
		return m, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(keywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	m.ac = automaton

	return m, nil
}

// Keywords returns the compiled keywords.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

// Empty reports whether the matcher has no keywords.
func (m *Matcher) Empty() bool {
	return m.ac == nil
}

// Matches reports whether any keyword occurs in the canonicalized text.
func (m *Matcher) Matches(text string) bool {
	if m.ac == nil {
		return false
	}
	return len(m.ac.FindAllOverlapping([]byte(Canonicalize(text)))) > 0
}

// Matched returns the distinct keywords found in text, in keyword order.
func (m *Matcher) Matched(text string) []string {
	if m.ac == nil {
		return nil
	}

	hits := make(map[int]bool)
	for _, match := range m.ac.FindAllOverlapping([]byte(Canonicalize(text))) {
		hits[match.PatternID] = true
	}

	out := make([]string, 0, len(hits))
	for i, kw := range m.keywords {
		if hits[i] {
			out = append(out, kw)
		}
	}
	return out
}
