package segment

import (
	"testing"

	"github.com/pagekeep/pagekeep/internal/docmodel"
)

func heading(text string, level int) docmodel.Element {
	return docmodel.Element{Label: docmodel.LabelSectionHeader, Text: text, Level: level}
}

func para(text string) docmodel.Element {
	return docmodel.Element{Label: docmodel.LabelText, Text: text}
}

func TestBoundaries_TwoChapters(t *testing.T) {
	elems := []docmodel.Element{
		para("preface text"),
		heading("Chapter 1 Introduction", 1),
		para("intro body"),
		para("more intro"),
		heading("Chapter 2 Details", 1),
		para("details body"),
	}

	got := Boundaries(elems)
	if len(got) != 2 {
		t.Fatalf("expected 2 boundaries, got %d", len(got))
	}

	if got[0].ChapterNumber != 1 || got[0].Start != 1 || got[0].End != 4 {
		t.Errorf("chapter 1 boundary wrong: %+v", got[0])
	}
	if got[1].ChapterNumber != 2 || got[1].Start != 4 || got[1].End != 6 {
		t.Errorf("chapter 2 boundary wrong: %+v", got[1])
	}
	if got[0].Title != "Chapter 1 Introduction" {
		t.Errorf("expected heading text as title, got %q", got[0].Title)
	}
}

func TestBoundaries_Contiguity(t *testing.T) {
	elems := []docmodel.Element{
		heading("Chapter 1 One", 1),
		para("a"),
		heading("Chapter 2 Two", 1),
		para("b"),
		heading("Chapter 3 Three", 1),
	}

	got := Boundaries(elems)
	for i := 1; i < len(got); i++ {
		if got[i].Start != got[i-1].End {
			t.Errorf("boundary %d starts at %d but previous ends at %d", i, got[i].Start, got[i-1].End)
		}
	}
	if got[len(got)-1].End != len(elems) {
		t.Errorf("final boundary ends at %d, want %d", got[len(got)-1].End, len(elems))
	}
}

func TestBoundaries_NoChapters(t *testing.T) {
	elems := []docmodel.Element{
		para("just text"),
		heading("Appendix", 1),
		para("appendix body"),
	}

	got := Boundaries(elems)
	if len(got) != 1 {
		t.Fatalf("expected 1 synthetic boundary, got %d", len(got))
	}
	b := got[0]
	if b.ChapterNumber != 0 || b.Title != "Frontmatter" {
		t.Errorf("expected chapter 0 Frontmatter, got %d %q", b.ChapterNumber, b.Title)
	}
	if b.Start != 0 || b.End != len(elems) {
		t.Errorf("expected synthetic boundary to span everything, got [%d, %d)", b.Start, b.End)
	}
}

func TestBoundaries_Empty(t *testing.T) {
	got := Boundaries(nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 boundary for empty input, got %d", len(got))
	}
	if got[0].Start != 0 || got[0].End != 0 {
		t.Errorf("expected empty span, got [%d, %d)", got[0].Start, got[0].End)
	}
}

func TestBoundaries_Idempotent(t *testing.T) {
	elems := []docmodel.Element{
		heading("Chapter 1 One", 1),
		para("a"),
		heading("Chapter 2 Two", 1),
	}

	first := Boundaries(elems)
	second := Boundaries(elems)
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("boundary %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestChapterNumber(t *testing.T) {
	tests := []struct {
		name string
		el   docmodel.Element
		num  int
		ok   bool
	}{
		{"standard heading", heading("Chapter 4 Orders", 1), 4, true},
		{"case insensitive", heading("CHAPTER 12", 1), 12, true},
		{"deep heading ignored", heading("Chapter 4 Orders", 2), 0, false},
		{"plain text ignored", para("Chapter 4 Orders"), 0, false},
		{"no number", heading("Chapter Overview", 1), 0, false},
		{"mid-text mention ignored", heading("See Chapter 4", 1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, ok := ChapterNumber(tt.el)
			if ok != tt.ok || num != tt.num {
				t.Errorf("ChapterNumber(%q) = (%d, %v), want (%d, %v)", tt.el.Text, num, ok, tt.num, tt.ok)
			}
		})
	}
}

func TestIssues_DuplicateAndOutOfOrder(t *testing.T) {
	boundaries := []Boundary{
		{ChapterNumber: 1, Title: "Chapter 1"},
		{ChapterNumber: 3, Title: "Chapter 3"},
		{ChapterNumber: 2, Title: "Chapter 2"},
		{ChapterNumber: 2, Title: "Chapter 2 again"},
	}

	issues := Issues(boundaries)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}
}

func TestIssues_CleanSequence(t *testing.T) {
	boundaries := []Boundary{
		{ChapterNumber: 1},
		{ChapterNumber: 2},
		{ChapterNumber: 3},
	}
	if issues := Issues(boundaries); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestElements_SliceView(t *testing.T) {
	elems := []docmodel.Element{para("a"), para("b"), para("c"), para("d")}
	b := Boundary{Start: 1, End: 3}
	got := b.Elements(elems)
	if len(got) != 2 || got[0].Text != "b" || got[1].Text != "c" {
		t.Errorf("unexpected slice: %+v", got)
	}
}
