// Package autocreate implements the AI-assisted chord chart pipeline:
// classify uploaded material, extract chords per content category, and
// persist the resulting section-grouped charts for a practice item.
package autocreate

import (
	"context"

	"practicepad/internal/chart"
	"practicepad/internal/llm"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_collaborators.go -package=mocks practicepad/internal/autocreate ModelInvoker,Extractor,TranscriptFetcher

// Category is the detected kind of musical content in an artifact.
type Category string

const (
	// CategoryChordCharts is visual chord diagrams (grids with dots).
	CategoryChordCharts Category = "chord_charts"
	// CategoryChordNames is chord names written above lyric lines.
	CategoryChordNames Category = "chord_names"
	// CategoryTablature is string/fret ASCII art.
	CategoryTablature Category = "tablature"
)

// knownCategory reports whether c is one of the three content categories.
func knownCategory(c Category) bool {
	switch c {
	case CategoryChordCharts, CategoryChordNames, CategoryTablature:
		return true
	}
	return false
}

// Intent controls how persisted charts combine with an item's existing
// charts.
type Intent string

const (
	// IntentAppend inserts new charts after the item's current maximum
	// order, leaving existing charts untouched.
	IntentAppend Intent = "append"
	// IntentReplaceAll deletes the item's existing charts before
	// inserting the new set.
	IntentReplaceAll Intent = "replace_all"
)

// File is one uploaded artifact.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Inputs is the material for one autocreate invocation. Exactly one of
// the three modalities must be set.
type Inputs struct {
	Files      []File
	Text       string
	YouTubeURL string
}

func (in Inputs) modalityCount() int {
	n := 0
	if len(in.Files) > 0 {
		n++
	}
	if in.Text != "" {
		n++
	}
	if in.YouTubeURL != "" {
		n++
	}
	return n
}

// Result is the outcome of a persisted autocreate run: the sections as
// emitted by the extraction strategy and the complete refreshed chart
// list for the item, so callers replace their view state instead of
// merging deltas.
type Result struct {
	Sections chart.SectionList `json:"sections"`
	Charts   []chart.Chart     `json:"charts"`
}

// ModelInvoker is the remote inference collaborator. Implemented by
// llm.Client; capability is llm.CapabilityHeavyweight or
// llm.CapabilityLightweight.
type ModelInvoker interface {
	Invoke(ctx context.Context, capability, instructions, prompt string, attachments []llm.Attachment) (string, error)
}

// Extractor is the local text extraction collaborator (OCR). An empty
// result with nil error means "nothing recognizable", which callers
// treat as insufficient, never as a failure.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// TranscriptFetcher resolves a YouTube URL to transcript text.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}
