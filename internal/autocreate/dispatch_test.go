package autocreate

import (
	"errors"
	"strings"
	"testing"

	"practicepad/internal/chart"
	"practicepad/internal/llm"
)

func TestLimitsValidate(t *testing.T) {
	limits := Limits{MaxFiles: 5, MaxFileBytes: 10, MaxTextChars: 500}

	file := func(n int) File {
		return File{Name: "f.png", MediaType: "image/png", Data: make([]byte, n)}
	}
	files := func(count int) []File {
		out := make([]File, count)
		for i := range out {
			out[i] = file(1)
		}
		return out
	}

	tests := []struct {
		name    string
		in      Inputs
		wantErr bool
	}{
		{"five files pass", Inputs{Files: files(5)}, false},
		{"six files fail", Inputs{Files: files(6)}, true},
		{"file at the byte limit passes", Inputs{Files: []File{file(10)}}, false},
		{"file over the byte limit fails", Inputs{Files: []File{file(11)}}, true},
		{"text at the limit passes", Inputs{Text: strings.Repeat("a", 500)}, false},
		{"text over the limit fails", Inputs{Text: strings.Repeat("a", 501)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.Validate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInputTooLarge) {
					t.Errorf("Validate() error = %v, want ErrInputTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestLimitsValidateCountsCharactersNotBytes(t *testing.T) {
	limits := Limits{MaxFiles: 5, MaxFileBytes: 10, MaxTextChars: 500}

	// 500 two-byte runes: 1000 bytes but exactly at the character limit.
	if err := limits.Validate(Inputs{Text: strings.Repeat("é", 500)}); err != nil {
		t.Errorf("Validate() error = %v, want nil for 500 runes", err)
	}
}

func TestCapabilityFor(t *testing.T) {
	tests := []struct {
		category       Category
		hasAttachments bool
		want           string
	}{
		{CategoryChordCharts, true, llm.CapabilityHeavyweight},
		{CategoryChordCharts, false, llm.CapabilityHeavyweight},
		{CategoryChordNames, false, llm.CapabilityLightweight},
		{CategoryChordNames, true, llm.CapabilityHeavyweight},
		{CategoryTablature, false, llm.CapabilityLightweight},
		{CategoryTablature, true, llm.CapabilityHeavyweight},
	}

	for _, tt := range tests {
		if got := capabilityFor(tt.category, tt.hasAttachments); got != tt.want {
			t.Errorf("capabilityFor(%q, %v) = %q, want %q", tt.category, tt.hasAttachments, got, tt.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"sections":[]}`, `{"sections":[]}`, true},
		{"fenced object", "```json\n{\"sections\":[]}\n```", `{"sections":[]}`, true},
		{"object with prose around it", "Here you go:\n{\"sections\":[]}\nLet me know!", `{"sections":[]}`, true},
		{"no object", "sorry, I cannot read this", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSON(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseModelResponse(t *testing.T) {
	raw := "```json\n" + `{
		"sections": [
			{"label": "Verse", "repeatCount": "x4", "charts": [
				{"title": "Am", "fingers": [{"string": 2, "fret": 1}], "openStrings": [1, 5]},
				{"title": ""}
			]},
			{"label": "", "charts": [
				{"title": "F", "barres": [{"fromString": 6, "toString": 1, "fret": 1}], "startingFret": 1}
			]}
		]
	}` + "\n```"

	sections, err := parseModelResponse(raw)
	if err != nil {
		t.Fatalf("parseModelResponse() error = %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("parseModelResponse() sections = %d, want 2", len(sections))
	}
	if sections[0].Label != "Verse" || sections[0].RepeatCount != "x4" {
		t.Errorf("section 0 = %q %q", sections[0].Label, sections[0].RepeatCount)
	}
	if sections.ChartCount() != 3 {
		t.Fatalf("ChartCount() = %d, want 3", sections.ChartCount())
	}

	am := sections[0].Charts[0]
	if am.Title != "Am" || len(am.Fingers) != 1 || am.Fingers[0].String != 2 {
		t.Errorf("Am chart = %+v", am)
	}
	// Geometry omitted by the model falls back to defaults.
	if am.Tuning != chart.DefaultTuning || am.NumFrets != chart.DefaultNumFrets || am.StartingFret != 1 {
		t.Errorf("Am defaults = %q %d %d", am.Tuning, am.NumFrets, am.StartingFret)
	}

	f := sections[1].Charts[0]
	if len(f.Barres) != 1 || f.Barres[0].FromString != 6 {
		t.Errorf("F chart barres = %+v", f.Barres)
	}
}

func TestParseModelResponseMalformed(t *testing.T) {
	for _, raw := range []string{
		"no json here",
		`{"sections": [{"charts": "oops"}]}`,
	} {
		if _, err := parseModelResponse(raw); !errors.Is(err, ErrAutocreateProcessingFailed) {
			t.Errorf("parseModelResponse(%q) error = %v, want ErrAutocreateProcessingFailed", raw, err)
		}
	}
}

func TestFillGenericTitles(t *testing.T) {
	sections := chart.SectionList{
		{Charts: []chart.Chart{chart.New("Am"), chart.New("")}},
		{Charts: []chart.Chart{chart.New("  "), chart.New("G")}},
	}
	fillGenericTitles(sections)

	got := []string{
		sections[0].Charts[0].Title, sections[0].Charts[1].Title,
		sections[1].Charts[0].Title, sections[1].Charts[1].Title,
	}
	want := []string{"Am", "Chord2", "Chord3", "G"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("title %d = %q, want %q", i, got[i], want[i])
		}
	}
}
