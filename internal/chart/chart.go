package chart

import "fmt"

// Default geometry values for a six-string guitar diagram.
const (
	DefaultTuning     = "EADGBE"
	DefaultNumFrets   = 5
	DefaultNumStrings = 6
)

// Finger marks one fretted string. Label is the suggested fretting-hand
// finger ("1".."4" or "T") when the source provides one.
type Finger struct {
	String int    `json:"string"`
	Fret   int    `json:"fret"`
	Label  string `json:"label,omitempty"`
}

// Barre spans several strings at one fret.
type Barre struct {
	FromString int `json:"fromString"`
	ToString   int `json:"toString"`
	Fret       int `json:"fret"`
}

// Chart is one playable finger-position diagram plus its section and
// ordering metadata. It is the canonical shape every extraction path
// converges to and the record shape the store reads and writes.
type Chart struct {
	ID int64 `json:"id"`

	// ItemIDs lists the practice items this chart belongs to. A chart can
	// be shared across items; the store persists this as a comma-separated
	// column.
	ItemIDs []string `json:"itemIds"`

	// Title is the chord name ("Am7"), or a generic placeholder
	// ("Chord1") when no name is recoverable from the source.
	Title string `json:"title"`

	Fingers      []Finger `json:"fingers"`
	Barres       []Barre  `json:"barres"`
	Tuning       string   `json:"tuning"`
	Capo         int      `json:"capo"`
	StartingFret int      `json:"startingFret"`
	NumFrets     int      `json:"numFrets"`
	NumStrings   int      `json:"numStrings"`
	OpenStrings  []int    `json:"openStrings"`
	MutedStrings []int    `json:"mutedStrings"`

	// Section metadata. Sections are a derived grouping of charts by
	// SectionID; their display order follows the minimum Order of their
	// member charts.
	SectionID          string `json:"sectionId,omitempty"`
	SectionLabel       string `json:"sectionLabel,omitempty"`
	SectionRepeatCount string `json:"sectionRepeatCount,omitempty"`

	// HasLineBreakAfter forces a line break after this chart when the
	// charts are rendered in a grid.
	HasLineBreakAfter bool `json:"hasLineBreakAfter"`

	// Order is the insertion position among charts sharing an item. It may
	// contain gaps after reordering and is never resequenced implicitly.
	Order int `json:"order"`
}

// New returns a chart with the given title and default geometry. Fingers,
// barres, open and muted strings start empty so a chord whose shape could
// not be resolved is still representable.
func New(title string) Chart {
	return Chart{
		Title:        title,
		Fingers:      []Finger{},
		Barres:       []Barre{},
		Tuning:       DefaultTuning,
		Capo:         0,
		StartingFret: 1,
		NumFrets:     DefaultNumFrets,
		NumStrings:   DefaultNumStrings,
		OpenStrings:  []int{},
		MutedStrings: []int{},
	}
}

// GenericTitle is the placeholder name for the n-th chart extracted
// from a source that carries no chord names ("Chord1", "Chord2").
func GenericTitle(n int) string {
	return fmt.Sprintf("Chord%d", n)
}

// Section is a named, ordered grouping of charts ("Verse", "Chorus").
// RepeatCount is a free-text annotation such as "x4".
type Section struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	RepeatCount string  `json:"repeatCount,omitempty"`
	Charts      []Chart `json:"charts"`
}

// SectionList is the ordered output of one extraction strategy.
type SectionList []Section

// Charts flattens the list into charts in emission order.
func (l SectionList) Charts() []Chart {
	var out []Chart
	for _, s := range l {
		out = append(out, s.Charts...)
	}
	return out
}

// ChartCount returns the total number of charts across all sections.
func (l SectionList) ChartCount() int {
	n := 0
	for _, s := range l {
		n += len(s.Charts)
	}
	return n
}
