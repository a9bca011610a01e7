package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTermLength is the shortest token kept by Normalize.
const MinTermLength = 3

// TermSet is an ordered set of normalized search tokens.
// Order is the order of first occurrence.
type TermSet []string

// Normalize turns free text or AI output into a canonical token set.
// Input may be comma and/or whitespace separated. Every rune that is not a letter
// or digit is stripped, tokens shorter than MinTermLength are dropped.
func Normalize(text string) TermSet {
	var out TermSet
	seen := make(map[string]struct{})
	for _, segment := range strings.Split(text, ",") {
		for _, word := range strings.Fields(strings.ToLower(strings.TrimSpace(segment))) {
			token := strings.Map(keepAlnum, word)
			if utf8.RuneCountInString(token) < MinTermLength {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return out
}

// NormalizeAll normalizes every input and unions the results in order.
func NormalizeAll(texts ...string) TermSet {
	var out TermSet
	for _, t := range texts {
		out = out.Union(Normalize(t))
	}
	return out
}

func keepAlnum(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

// Union returns s followed by the tokens of other not already in s.
func (s TermSet) Union(other TermSet) TermSet {
	if len(other) == 0 {
		return s
	}
	out := make(TermSet, 0, len(s)+len(other))
	out = append(out, s...)
	for _, t := range other {
		if !out.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether token is in the set.
func (s TermSet) Contains(token string) bool {
	for _, t := range s {
		if t == token {
			return true
		}
	}
	return false
}

// First returns the first token or "".
func (s TermSet) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Limit returns at most n tokens.
func (s TermSet) Limit(n int) TermSet {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Strings returns the tokens as a plain slice.
func (s TermSet) Strings() []string {
	return append([]string(nil), s...)
}

// String joins the tokens with single spaces.
func (s TermSet) String() string {
	return strings.Join(s, " ")
}

// FirstWord returns the first whitespace separated word of text, lower-cased and
// stripped of punctuation, without the length rule applied by Normalize.
func FirstWord(text string) string {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if w := strings.Map(keepAlnum, word); w != "" {
			return w
		}
	}
	return ""
}
