package render

import (
	"strings"
	"testing"

	"github.com/pagekeep/pagekeep/internal/docmodel"
	"github.com/pagekeep/pagekeep/internal/segment"
)

func TestAssemble_BasicChapter(t *testing.T) {
	elems := []docmodel.Element{
		{Label: docmodel.LabelSectionHeader, Text: "Chapter 4 Order Entry", Level: 1, Page: 10},
		{Label: docmodel.LabelText, Text: "Orders are submitted here.", Page: 10},
		{Label: docmodel.LabelSectionHeader, Text: "Message Layout", Level: 2, Page: 11},
		{Label: docmodel.LabelText, Text: "Fields follow.", Page: 12},
	}
	b := segment.Boundary{ChapterNumber: 4, Title: "Chapter 4 Order Entry", Start: 0, End: 4}

	ch := Assemble(b, elems, "Trading Manual", discardLogger())

	if ch.Number != 4 || ch.Title != "Chapter 4 Order Entry" {
		t.Errorf("wrong identity: %+v", ch)
	}
	if ch.PageStart != 10 || ch.PageEnd != 12 {
		t.Errorf("expected page span 10-12, got %d-%d", ch.PageStart, ch.PageEnd)
	}
	if !strings.HasPrefix(ch.Markdown, "---\n") {
		t.Error("expected frontmatter at start of markdown")
	}
	if !strings.Contains(ch.Markdown, "# Chapter 4 Order Entry") {
		t.Error("expected chapter title as h1")
	}
	// The boundary's heading element must not repeat below the h1.
	if strings.Count(ch.Markdown, "Chapter 4 Order Entry") != 2 {
		// Once in frontmatter, once as the h1.
		t.Errorf("chapter heading rendered twice:\n%s", ch.Markdown)
	}
	if !strings.Contains(ch.Markdown, "### Message Layout") {
		t.Error("expected sub-heading shifted one level down")
	}
}

func TestAssemble_FrontmatterFields(t *testing.T) {
	fm := Frontmatter("Chapter 2 Sessions", 2, 5, 9, "Protocol Guide")
	for _, want := range []string{
		"title: Chapter 2 Sessions",
		"chapter_number: 2",
		"page_range: 5-9",
		"document: Protocol Guide",
	} {
		if !strings.Contains(fm, want) {
			t.Errorf("frontmatter missing %q:\n%s", want, fm)
		}
	}
	if !strings.HasPrefix(fm, "---\n") || !strings.HasSuffix(fm, "\n---") {
		t.Errorf("frontmatter not fenced:\n%s", fm)
	}
}

func TestAssemble_FrontmatterUnknownDocument(t *testing.T) {
	fm := Frontmatter("T", 1, 1, 1, "")
	if !strings.Contains(fm, "document: Unknown") {
		t.Errorf("expected Unknown document fallback:\n%s", fm)
	}
}

func TestApplyCallouts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Note: check twice", "> [!note]\n> check twice"},
		{"Important: do not skip", "> [!important]\n> do not skip"},
		{"Warning: hot surface", "> [!warning]\n> hot surface"},
		{"Tip: use shortcuts", "> [!tip]\n> use shortcuts"},
	}
	for _, tt := range tests {
		if got := applyCallouts(tt.in); got != tt.want {
			t.Errorf("applyCallouts(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyCallouts_MidSentenceUntouched(t *testing.T) {
	in := "Please note: this stays inline"
	if got := applyCallouts(in); got != in {
		t.Errorf("mid-line marker must not become a callout, got %q", got)
	}
}

func TestSearchableText(t *testing.T) {
	md := strings.Join([]string{
		"---",
		"title: Chapter 1",
		"---",
		"# Chapter 1",
		"",
		"Some **bold** and _italic_ text with `code` and a [link](http://x).",
		"",
		"```python",
		"print('kept')",
		"```",
		"",
		"> [!note]",
		"> a note body",
	}, "\n")

	got := SearchableText(md)
	if strings.Contains(got, "---") || strings.Contains(got, "title: Chapter 1") {
		t.Errorf("frontmatter not stripped: %q", got)
	}
	for _, marker := range []string{"#", "**", "`", "[!note]", "]("} {
		if strings.Contains(got, marker) {
			t.Errorf("marker %q not stripped: %q", marker, got)
		}
	}
	for _, kept := range []string{"bold", "italic", "code", "link", "print('kept')", "a note body"} {
		if !strings.Contains(got, kept) {
			t.Errorf("expected %q to survive stripping: %q", kept, got)
		}
	}
}

func TestAnchorID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Chapter 4 Order Entry", "chapter-4-order-entry"},
		{"Chapter 12", "chapter-12"},
		{"Frontmatter", "frontmatter"},
		{"Appendix A: Codes!", "appendix-a-codes"},
	}
	for _, tt := range tests {
		if got := AnchorID(tt.title); got != tt.want {
			t.Errorf("AnchorID(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCrossReference(t *testing.T) {
	chapters := []Chapter{
		{Number: 1, Title: "Chapter 1 Intro", AnchorID: "chapter-1-intro",
			Markdown: "See Chapter 2 for details. Chapter 99 does not exist."},
		{Number: 2, Title: "Chapter 2 Details", AnchorID: "chapter-2-details",
			Markdown: "Chapter 2 describes itself and refers back to Chapter 1."},
	}

	got := CrossReference(chapters)

	if !strings.Contains(got[0].Markdown, "[Chapter 2](#chapter-2-details)") {
		t.Errorf("expected link to chapter 2:\n%s", got[0].Markdown)
	}
	if strings.Contains(got[0].Markdown, "[Chapter 99]") {
		t.Error("unknown chapter must not be linked")
	}
	if strings.Contains(got[1].Markdown, "[Chapter 2]") {
		t.Error("chapter must not link to itself")
	}
	if !strings.Contains(got[1].Markdown, "[Chapter 1](#chapter-1-intro)") {
		t.Errorf("expected back-reference link:\n%s", got[1].Markdown)
	}
}

func TestCrossReference_ExistingLinkTextUntouched(t *testing.T) {
	chapters := []Chapter{
		{Number: 1, AnchorID: "chapter-1", Markdown: "[Chapter 2](#chapter-2) already linked."},
		{Number: 2, AnchorID: "chapter-2", Markdown: "body"},
	}
	got := CrossReference(chapters)
	if strings.Contains(got[0].Markdown, "[[") || strings.Count(got[0].Markdown, "](") != 1 {
		t.Errorf("existing link must stay untouched:\n%s", got[0].Markdown)
	}
}

func TestAssemble_FrontmatterChapterSkipsNoHeading(t *testing.T) {
	// Chapter 0 has no heading element of its own; nothing is skipped.
	elems := []docmodel.Element{
		{Label: docmodel.LabelText, Text: "Preface paragraph.", Page: 1},
	}
	b := segment.Boundary{ChapterNumber: 0, Title: "Frontmatter", Start: 0, End: 1}
	ch := Assemble(b, elems, "Doc", discardLogger())
	if !strings.Contains(ch.Markdown, "Preface paragraph.") {
		t.Errorf("expected first element kept for synthetic chapter:\n%s", ch.Markdown)
	}
}
