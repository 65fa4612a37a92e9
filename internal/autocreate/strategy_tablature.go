package autocreate

import (
	"context"

	"practicepad/internal/chart"
)

// tablatureStrategy handles string/fret ASCII art. Tab text is always
// interpreted by a model: the lightweight tier reads text directly, and
// files whose local extraction came up short go to the vision model.
// Voicings the source leaves unnamed get generic Chord1..N titles.
type tablatureStrategy struct {
	dispatch *Dispatcher
}

func (s *tablatureStrategy) Run(ctx context.Context, job Job) (chart.SectionList, error) {
	var out chart.SectionList

	if job.Text != "" {
		sections, err := s.dispatch.Analyze(ctx, CategoryTablature, job.Text, nil)
		if err != nil {
			return nil, err
		}
		out = sections
	}

	for i, f := range job.Files {
		text, textual := textualFile(f)
		if !textual {
			text = job.localText(i)
		}
		// OCR routinely mangles staff lines, so tab extracted from an
		// image is only trusted when the chord gate passes.
		if textual || shouldUseLocalResult(text, minimumChordCount) {
			sections, err := s.dispatch.Analyze(ctx, CategoryTablature, text, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, sections...)
			continue
		}

		sections, err := s.dispatch.Analyze(ctx, CategoryTablature, "", []File{f})
		if err != nil {
			return nil, err
		}
		out = append(out, sections...)
	}

	fillGenericTitles(out)
	return out, nil
}
