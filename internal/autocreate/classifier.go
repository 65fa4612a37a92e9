package autocreate

import (
	"regexp"
	"strings"
	"unicode"

	"practicepad/internal/chart"
)

// Classification is the outcome of content classification. When
// Confident is false, Candidates holds the plausible categories for the
// caller to offer as override choices.
type Classification struct {
	Confident  bool
	Category   Category
	Candidates []Category
}

func confident(c Category) Classification {
	return Classification{Confident: true, Category: c}
}

func ambiguous(candidates ...Category) Classification {
	return Classification{Candidates: candidates}
}

// A tablature staff line: optional string-name prefix, a pipe, then fret
// numbers and technique marks ("e|--0--2h3--|").
var tabStaffLine = regexp.MustCompile(`^[a-gA-G]?[#b]?\|[-0-9hpbrxX/\\~.|\s]+$`)

func looksLikeTabLine(line string) bool {
	line = strings.TrimSpace(line)
	if tabStaffLine.MatchString(line) {
		return true
	}
	// Unpiped staff lines still show a long dash run carrying fret digits.
	return strings.Count(line, "-") >= 5 && strings.ContainsAny(line, "0123456789") &&
		!strings.ContainsFunc(line, unicode.IsLetter)
}

func countTabLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if looksLikeTabLine(line) {
			n++
		}
	}
	return n
}

// isChordLine reports whether every whitespace-separated token on the
// line names a chord. Commas between chords are tolerated.
func isChordLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !chart.IsChordName(strings.Trim(f, ",")) {
			return false
		}
	}
	return true
}

// isProseLine reports whether the line reads like lyrics: several words,
// mostly lowercase, not chord shaped.
func isProseLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return false
	}
	lower := 0
	for _, f := range fields {
		r := rune(f[0])
		if unicode.IsLower(r) {
			lower++
		}
	}
	return lower*2 >= len(fields)
}

// hasChordsOverProse detects the chords-over-lyrics layout: at least one
// all-chord line in a text that also contains prose lines.
func hasChordsOverProse(text string) bool {
	chordLines, proseLines := 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case isChordLine(line):
			chordLines++
		case isProseLine(line):
			proseLines++
		}
	}
	return chordLines >= 1 && proseLines >= 1
}

// ClassifyText classifies pasted or transcribed text. Pasted text is
// never visual, so chord_charts is not a candidate.
func ClassifyText(text string) Classification {
	tab := countTabLines(text) >= 2
	names := hasChordsOverProse(text)

	switch {
	case tab && names:
		return ambiguous(CategoryChordNames, CategoryTablature)
	case tab:
		return confident(CategoryTablature)
	case names:
		return confident(CategoryChordNames)
	default:
		return ambiguous(CategoryChordNames, CategoryTablature)
	}
}

// ClassifyFile classifies one uploaded artifact given whatever text local
// extraction recovered from it. When extraction recovered nothing the
// artifact is treated as visual chord diagrams, the one category the
// text heuristics can never establish.
func ClassifyFile(f File, extracted string) Classification {
	if strings.TrimSpace(extracted) == "" {
		return confident(CategoryChordCharts)
	}

	tab := countTabLines(extracted) >= 2
	names := hasChordsOverProse(extracted)

	switch {
	case tab && names:
		return ambiguous(CategoryChordNames, CategoryTablature)
	case tab:
		return confident(CategoryTablature)
	case names:
		return confident(CategoryChordNames)
	default:
		// Text came out but matches neither layout: likely diagram sheet
		// titles and fret numbers.
		return confident(CategoryChordCharts)
	}
}

// mergeClassifications combines per-file classifications into one job
// category. Files that disagree make the whole job ambiguous.
func mergeClassifications(results []Classification) Classification {
	if len(results) == 0 {
		return ambiguous(CategoryChordCharts, CategoryChordNames, CategoryTablature)
	}

	union := map[Category]struct{}{}
	first := Category("")
	agreed := true
	for i, r := range results {
		if !r.Confident {
			for _, c := range r.Candidates {
				union[c] = struct{}{}
			}
			agreed = false
			continue
		}
		union[r.Category] = struct{}{}
		if i == 0 {
			first = r.Category
		} else if r.Category != first {
			agreed = false
		}
	}
	if agreed && first != "" {
		return confident(first)
	}

	candidates := make([]Category, 0, len(union))
	for _, c := range []Category{CategoryChordCharts, CategoryChordNames, CategoryTablature} {
		if _, ok := union[c]; ok {
			candidates = append(candidates, c)
		}
	}
	return ambiguous(candidates...)
}
