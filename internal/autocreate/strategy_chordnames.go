package autocreate

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"practicepad/internal/chart"
	"practicepad/internal/contextutil"
	"practicepad/internal/storage"
)

// chordNamesStrategy handles chord names written above lyrics. Text and
// well-OCR'd files are parsed locally without any model call; files
// whose local extraction recovered too few chords fall back to the
// vision model. Every resulting chart gets its geometry from the common
// chord reference table when the name is known there.
type chordNamesStrategy struct {
	commons  storage.CommonChordStore
	dispatch *Dispatcher
	tuning   string
}

var (
	sectionRepeat = regexp.MustCompile(`^[xX]\d+$`)
	sectionNumber = regexp.MustCompile(`^\d+$`)
)

// parseSectionHeader recognizes a section heading line: a bare word
// ("Verse", "[Chorus]", "Verse 2", "Bridge x2") that does not itself
// name a chord.
func parseSectionHeader(line string) (label, repeat string, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
	line = strings.TrimSuffix(line, ":")

	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
	case 2:
		switch {
		case sectionRepeat.MatchString(fields[1]):
			repeat = fields[1]
		case sectionNumber.MatchString(fields[1]):
		default:
			return "", "", false
		}
	default:
		return "", "", false
	}

	word := fields[0]
	for _, r := range word {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return "", "", false
		}
	}
	if chart.IsChordName(word) {
		return "", "", false
	}
	label = word
	if repeat == "" && len(fields) == 2 {
		label = word + " " + fields[1]
	}
	return label, repeat, true
}

// parseChordText walks chords-over-lyrics text: section headings open a
// new section, all-chord lines contribute one chart per token with the
// token kept verbatim as the title, and lyric lines are skipped.
func (s *chordNamesStrategy) parseChordText(ctx context.Context, text string) (chart.SectionList, error) {
	var sections chart.SectionList
	current := chart.Section{}

	flush := func() {
		if current.Label != "" || len(current.Charts) > 0 {
			sections = append(sections, current)
		}
		current = chart.Section{}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if label, repeat, ok := parseSectionHeader(trimmed); ok {
			flush()
			current.Label = label
			current.RepeatCount = repeat
			continue
		}
		if !isChordLine(trimmed) {
			continue
		}
		for _, tok := range strings.Fields(trimmed) {
			tok = strings.Trim(tok, ",")
			if tok == "" {
				continue
			}
			current.Charts = append(current.Charts, s.resolve(ctx, tok))
		}
	}
	flush()
	return sections, nil
}

// resolve builds a chart for one chord token, pulling geometry from the
// reference table when available. The token is kept verbatim as the
// title either way.
func (s *chordNamesStrategy) resolve(ctx context.Context, token string) chart.Chart {
	ref, err := s.commons.Lookup(ctx, token, s.tuning)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "common chord lookup failed",
				slog.String("chord", token), slog.String("error", err.Error()))
		}
		return chart.New(token)
	}
	c := *ref
	c.ID = 0
	c.ItemIDs = nil
	c.Title = token
	c.Order = 0
	return c
}

// enrich fills in geometry for fingerless model-produced charts whose
// titles are known reference chords.
func (s *chordNamesStrategy) enrich(ctx context.Context, sections chart.SectionList) {
	for si := range sections {
		for ci := range sections[si].Charts {
			c := &sections[si].Charts[ci]
			if len(c.Fingers) > 0 || len(c.Barres) > 0 || !chart.IsChordName(c.Title) {
				continue
			}
			resolved := s.resolve(ctx, c.Title)
			resolved.SectionID = c.SectionID
			resolved.SectionLabel = c.SectionLabel
			resolved.SectionRepeatCount = c.SectionRepeatCount
			resolved.HasLineBreakAfter = c.HasLineBreakAfter
			*c = resolved
		}
	}
}

func (s *chordNamesStrategy) Run(ctx context.Context, job Job) (chart.SectionList, error) {
	if job.Text != "" {
		return s.parseChordText(ctx, job.Text)
	}

	var out chart.SectionList
	for i, f := range job.Files {
		text, textual := textualFile(f)
		if !textual {
			text = job.localText(i)
		}
		if shouldUseLocalResult(text, minimumChordCount) {
			sections, err := s.parseChordText(ctx, text)
			if err != nil {
				return nil, err
			}
			out = append(out, sections...)
			continue
		}

		// Local extraction was insufficient; let the vision model read
		// the artifact directly.
		sections, err := s.dispatch.Analyze(ctx, CategoryChordNames, "", []File{f})
		if err != nil {
			return nil, err
		}
		s.enrich(ctx, sections)
		out = append(out, sections...)
	}
	return out, nil
}
