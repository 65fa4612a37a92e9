package autocreate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"practicepad/internal/chart"
	"practicepad/internal/config"
	"practicepad/internal/llm"
)

// Limits bounds what a single autocreate request may carry. All three
// are checked before any remote call is made.
type Limits struct {
	MaxFiles     int
	MaxFileBytes int
	MaxTextChars int
}

// DefaultLimits returns the standard request limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:     config.DefaultMaxFilesPerRequest,
		MaxFileBytes: config.DefaultMaxFileBytes,
		MaxTextChars: config.DefaultMaxManualTextChars,
	}
}

// Validate checks the inputs against the limits. Manual text length is
// counted in characters, not bytes. Transcript text is exempt from the
// manual text limit and is not validated here.
func (l Limits) Validate(in Inputs) error {
	if len(in.Files) > l.MaxFiles {
		return fmt.Errorf("%w: %d files exceeds the limit of %d", ErrInputTooLarge, len(in.Files), l.MaxFiles)
	}
	for _, f := range in.Files {
		if len(f.Data) > l.MaxFileBytes {
			return fmt.Errorf("%w: file %q exceeds %d bytes", ErrInputTooLarge, f.Name, l.MaxFileBytes)
		}
	}
	if n := len([]rune(in.Text)); n > l.MaxTextChars {
		return fmt.Errorf("%w: text of %d characters exceeds the limit of %d", ErrInputTooLarge, n, l.MaxTextChars)
	}
	return nil
}

// Dispatcher routes extraction work to the right model tier and parses
// the structured response.
type Dispatcher struct {
	invoker ModelInvoker
}

// NewDispatcher creates a Dispatcher over the given model client.
func NewDispatcher(invoker ModelInvoker) *Dispatcher {
	return &Dispatcher{invoker: invoker}
}

// capabilityFor picks the model tier. Visual diagram reading always
// needs the heavyweight vision model, and so does any request carrying
// an attachment, because the lightweight tier is text-only.
func capabilityFor(category Category, hasAttachments bool) string {
	if category == CategoryChordCharts || hasAttachments {
		return llm.CapabilityHeavyweight
	}
	return llm.CapabilityLightweight
}

const responseFormat = `Respond with only a JSON object, no prose and no markdown fence:
{"sections":[{"label":"Verse","repeatCount":"x4","charts":[{"title":"Am","fingers":[{"string":2,"fret":1,"label":"1"}],"barres":[{"fromString":5,"toString":1,"fret":1}],"tuning":"EADGBE","capo":0,"startingFret":1,"numFrets":5,"numStrings":6,"openStrings":[1,5],"mutedStrings":[6],"hasLineBreakAfter":false}]}]}
Strings are numbered 1 (high E) to 6 (low E). Use an empty label and empty repeatCount for ungrouped content. Omit fields you cannot determine; defaults are standard tuning, five frets, no capo.`

func instructionsFor(category Category) string {
	switch category {
	case CategoryChordCharts:
		return `You read photographed or scanned guitar chord diagram sheets. Transcribe every diagram exactly as drawn: finger dots, barres, open and muted string marks, starting fret, and the chord name printed with it. Do not use prior knowledge of songs or standard chord shapes to fill in anything the image does not show. Preserve section headings and repeat annotations that appear on the page. ` + responseFormat
	case CategoryChordNames:
		return `You read chord names written above song lyrics. Emit one chart per chord occurrence in reading order, grouped under the section headings in the text (Verse, Chorus, Bridge). Keep each chord title exactly as written. Leave fingers empty for chords whose shape the text does not show. Ignore the lyric lines themselves. ` + responseFormat
	case CategoryTablature:
		return `You read guitar tablature. Identify each distinct chord voicing from the fret numbers across the six staff lines and emit it as a chart, in playing order, grouped under any section headings in the text. Use chord names when the tab names them; otherwise leave the title empty. ` + responseFormat
	default:
		return responseFormat
	}
}

// extractJSON pulls the outermost JSON object out of a model response
// that may wrap it in a markdown fence or explanatory text.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

type modelChart struct {
	Title             string         `json:"title"`
	Fingers           []chart.Finger `json:"fingers"`
	Barres            []chart.Barre  `json:"barres"`
	Tuning            string         `json:"tuning"`
	Capo              int            `json:"capo"`
	StartingFret      int            `json:"startingFret"`
	NumFrets          int            `json:"numFrets"`
	NumStrings        int            `json:"numStrings"`
	OpenStrings       []int          `json:"openStrings"`
	MutedStrings      []int          `json:"mutedStrings"`
	HasLineBreakAfter bool           `json:"hasLineBreakAfter"`
}

type modelSection struct {
	Label       string       `json:"label"`
	RepeatCount string       `json:"repeatCount"`
	Charts      []modelChart `json:"charts"`
}

type modelResponse struct {
	Sections []modelSection `json:"sections"`
}

func (m modelChart) toChart() chart.Chart {
	c := chart.New(m.Title)
	if len(m.Fingers) > 0 {
		c.Fingers = m.Fingers
	}
	if len(m.Barres) > 0 {
		c.Barres = m.Barres
	}
	if m.Tuning != "" {
		c.Tuning = m.Tuning
	}
	if m.Capo > 0 {
		c.Capo = m.Capo
	}
	if m.StartingFret > 0 {
		c.StartingFret = m.StartingFret
	}
	if m.NumFrets > 0 {
		c.NumFrets = m.NumFrets
	}
	if m.NumStrings > 0 {
		c.NumStrings = m.NumStrings
	}
	if len(m.OpenStrings) > 0 {
		c.OpenStrings = m.OpenStrings
	}
	if len(m.MutedStrings) > 0 {
		c.MutedStrings = m.MutedStrings
	}
	c.HasLineBreakAfter = m.HasLineBreakAfter
	return c
}

func parseModelResponse(raw string) (chart.SectionList, error) {
	payload, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrAutocreateProcessingFailed)
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed model response: %v", ErrAutocreateProcessingFailed, err)
	}

	sections := make(chart.SectionList, 0, len(parsed.Sections))
	for _, s := range parsed.Sections {
		section := chart.Section{
			Label:       s.Label,
			RepeatCount: s.RepeatCount,
		}
		for _, mc := range s.Charts {
			section.Charts = append(section.Charts, mc.toChart())
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// Analyze sends one extraction request and returns the parsed sections.
// Files become attachments; text becomes the prompt body.
func (d *Dispatcher) Analyze(ctx context.Context, category Category, text string, files []File) (chart.SectionList, error) {
	attachments := make([]llm.Attachment, 0, len(files))
	for _, f := range files {
		attachments = append(attachments, llm.Attachment{MediaType: f.MediaType, Data: f.Data})
	}

	prompt := text
	if prompt == "" {
		prompt = "Extract the chords from the attached material."
	}

	raw, err := d.invoker.Invoke(ctx, capabilityFor(category, len(attachments) > 0), instructionsFor(category), prompt, attachments)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAutocreateProcessingFailed, err)
	}

	return parseModelResponse(raw)
}
