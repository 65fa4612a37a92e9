package autocreate

import (
	"reflect"
	"testing"
)

const chordsOverLyrics = `Verse
C        G        Am       F
when I find myself in times of trouble
Chorus
F  C  G
let it be, let it be`

const tabText = `Intro
e|--0--2--3--|
B|--1--3--0--|
G|--0--2--0--|`

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantConfident bool
		wantCategory  Category
		wantCandidates []Category
	}{
		{
			name:          "chords over lyrics",
			text:          chordsOverLyrics,
			wantConfident: true,
			wantCategory:  CategoryChordNames,
		},
		{
			name:          "tab staff lines",
			text:          tabText,
			wantConfident: true,
			wantCategory:  CategoryTablature,
		},
		{
			name:           "plain prose is ambiguous",
			text:           "just some words about a song\nnothing musical in here at all",
			wantCandidates: []Category{CategoryChordNames, CategoryTablature},
		},
		{
			name:           "both layouts present is ambiguous",
			text:           chordsOverLyrics + "\n" + tabText,
			wantCandidates: []Category{CategoryChordNames, CategoryTablature},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyText(tt.text)
			if got.Confident != tt.wantConfident {
				t.Fatalf("ClassifyText() confident = %v, want %v", got.Confident, tt.wantConfident)
			}
			if tt.wantConfident && got.Category != tt.wantCategory {
				t.Errorf("ClassifyText() category = %q, want %q", got.Category, tt.wantCategory)
			}
			if !tt.wantConfident && !reflect.DeepEqual(got.Candidates, tt.wantCandidates) {
				t.Errorf("ClassifyText() candidates = %v, want %v", got.Candidates, tt.wantCandidates)
			}
		})
	}
}

func TestClassifyFile(t *testing.T) {
	img := File{Name: "sheet.png", MediaType: "image/png"}

	tests := []struct {
		name         string
		extracted    string
		wantCategory Category
	}{
		{"no extractable text means diagrams", "", CategoryChordCharts},
		{"chords over lyrics", chordsOverLyrics, CategoryChordNames},
		{"tab staff lines", tabText, CategoryTablature},
		{"bare chord titles mean a diagram sheet", "Am  Em  C  G", CategoryChordCharts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyFile(img, tt.extracted)
			if !got.Confident || got.Category != tt.wantCategory {
				t.Errorf("ClassifyFile() = %+v, want confident %q", got, tt.wantCategory)
			}
		})
	}
}

func TestMergeClassifications(t *testing.T) {
	t.Run("agreement stays confident", func(t *testing.T) {
		got := mergeClassifications([]Classification{
			confident(CategoryTablature),
			confident(CategoryTablature),
		})
		if !got.Confident || got.Category != CategoryTablature {
			t.Errorf("mergeClassifications() = %+v", got)
		}
	})

	t.Run("disagreement is ambiguous with the union", func(t *testing.T) {
		got := mergeClassifications([]Classification{
			confident(CategoryChordCharts),
			confident(CategoryChordNames),
		})
		if got.Confident {
			t.Fatal("mergeClassifications() should not be confident")
		}
		want := []Category{CategoryChordCharts, CategoryChordNames}
		if !reflect.DeepEqual(got.Candidates, want) {
			t.Errorf("candidates = %v, want %v", got.Candidates, want)
		}
	})

	t.Run("one ambiguous file makes the job ambiguous", func(t *testing.T) {
		got := mergeClassifications([]Classification{
			confident(CategoryTablature),
			ambiguous(CategoryChordNames, CategoryTablature),
		})
		if got.Confident {
			t.Fatal("mergeClassifications() should not be confident")
		}
	})
}

func TestShouldUseLocalResult(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"Am", false},
		{"Am G", true},
		{"C G Am F", true},
		{"the and but for", false},
		{"Am Am Am", false},
	}

	for _, tt := range tests {
		if got := shouldUseLocalResult(tt.text, minimumChordCount); got != tt.want {
			t.Errorf("shouldUseLocalResult(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
