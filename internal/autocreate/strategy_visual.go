package autocreate

import (
	"context"

	"practicepad/internal/chart"
)

// visualStrategy handles photographed or scanned chord diagram sheets.
// Diagrams cannot be read locally, so every file goes to the heavyweight
// vision model; files are analyzed one at a time and their sections
// concatenated in upload order.
type visualStrategy struct {
	dispatch *Dispatcher
}

func (s *visualStrategy) Run(ctx context.Context, job Job) (chart.SectionList, error) {
	var out chart.SectionList
	for _, f := range job.Files {
		sections, err := s.dispatch.Analyze(ctx, CategoryChordCharts, "", []File{f})
		if err != nil {
			return nil, err
		}
		out = append(out, sections...)
	}
	fillGenericTitles(out)
	return out, nil
}
