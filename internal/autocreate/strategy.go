package autocreate

import (
	"context"
	"strings"
	"unicode/utf8"

	"practicepad/internal/chart"
)

// Job is one classified unit of extraction work.
type Job struct {
	ItemID   string
	Category Category
	Files    []File
	// LocalTexts holds the local extraction result per file, aligned with
	// Files. Empty entries mean nothing was recovered.
	LocalTexts []string
	Text       string
}

// Strategy turns a classified job into section-grouped charts. The
// three implementations correspond to the three content categories.
type Strategy interface {
	Run(ctx context.Context, job Job) (chart.SectionList, error)
}

func (j Job) localText(i int) string {
	if i < len(j.LocalTexts) {
		return j.LocalTexts[i]
	}
	return ""
}

// textualFile returns the file contents as text when the file is itself
// a text document, so plain .txt tab uploads skip OCR entirely.
func textualFile(f File) (string, bool) {
	if strings.HasPrefix(f.MediaType, "text/") && utf8.Valid(f.Data) {
		return string(f.Data), true
	}
	return "", false
}

// fillGenericTitles assigns Chord1, Chord2, ... to charts whose source
// carried no chord name, numbering across the whole list in order.
func fillGenericTitles(sections chart.SectionList) {
	n := 0
	for si := range sections {
		for ci := range sections[si].Charts {
			n++
			if strings.TrimSpace(sections[si].Charts[ci].Title) == "" {
				sections[si].Charts[ci].Title = chart.GenericTitle(n)
			}
		}
	}
}
