package chart

import (
	"regexp"
	"strings"
)

// Chord-name grammar: root letter A-G, optional accidental, optional
// quality suffix, optional extension digits, optional slash bass note.
// Matches "A", "Em", "F#m7", "Cadd9", "Dsus4", "G/B".
var chordToken = regexp.MustCompile(`^[A-G][#b]?(?:maj|min|m|sus|add|dim|aug)?\d*(?:/[A-G][#b]?)?$`)

// chordScan finds chord-shaped tokens inside free text.
var chordScan = regexp.MustCompile(`(?i)\b[A-G][#b]?(?:maj|min|m|sus|add|dim|aug)?\d*\b`)

// Short English words that match the chord grammar but almost never name a
// chord when they appear in extracted text.
var chordFalsePositives = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"do": {}, "go": {}, "he": {}, "if": {}, "in": {}, "is": {}, "it": {},
	"me": {}, "my": {}, "no": {}, "of": {}, "on": {}, "or": {}, "so": {},
	"to": {}, "up": {}, "we": {}, "all": {}, "are": {}, "but": {}, "can": {},
	"for": {}, "get": {}, "had": {}, "has": {}, "her": {}, "him": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "not": {},
	"now": {}, "old": {}, "our": {}, "out": {}, "see": {}, "the": {},
	"too": {}, "was": {}, "way": {}, "who": {}, "you": {}, "your": {},
}

// IsChordName reports whether tok matches the chord-name grammar exactly.
func IsChordName(tok string) bool {
	return chordToken.MatchString(strings.TrimSpace(tok))
}

// NormalizeChordName uppercases the root letter and lowercases the rest,
// so OCR output like "aM7" or "EM" becomes "Am7" and "Em".
func NormalizeChordName(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return tok
	}
	return strings.ToUpper(tok[:1]) + strings.ToLower(tok[1:])
}

// CountChordTokens counts distinct chord names recognizable in free text,
// after filtering common English false positives. Used to decide whether a
// local extraction result is good enough to skip remote analysis.
func CountChordTokens(text string) int {
	seen := map[string]struct{}{}
	for _, raw := range chordScan.FindAllString(text, -1) {
		tok := NormalizeChordName(raw)
		if _, bad := chordFalsePositives[strings.ToLower(tok)]; bad {
			continue
		}
		if !IsChordName(tok) {
			continue
		}
		seen[tok] = struct{}{}
	}
	return len(seen)
}
