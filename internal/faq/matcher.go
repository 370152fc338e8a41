package faq

import "strings"

// Match returns the answer of the first entry having a pattern that is a
// case-insensitive substring of input. Entries are tried in order, then
// patterns within an entry.
func Match(input string, entries []Entry) (string, bool) {
	normalized := strings.ToLower(input)
	for _, entry := range entries {
		for _, pattern := range entry.Patterns {
			if strings.Contains(normalized, strings.ToLower(pattern)) {
				return entry.Answer, true
			}
		}
	}
	return "", false
}

// Matcher is an immutable FAQ snapshot with patterns lowercased once.
type Matcher struct {
	entries []Entry
}

// NewMatcher copies entries so later changes by the caller are not observed.
func NewMatcher(entries []Entry) *Matcher {
	copied := make([]Entry, len(entries))
	for i, e := range entries {
		patterns := make([]string, len(e.Patterns))
		for j, p := range e.Patterns {
			patterns[j] = strings.ToLower(p)
		}
		copied[i] = Entry{Patterns: patterns, Answer: e.Answer}
	}
	return &Matcher{entries: copied}
}

// Match behaves like the package-level Match. A nil Matcher never matches.
func (m *Matcher) Match(input string) (string, bool) {
	if m == nil {
		return "", false
	}
	return Match(input, m.entries)
}

// Len returns the number of entries in the snapshot.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
