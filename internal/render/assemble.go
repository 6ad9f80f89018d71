package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagekeep/pagekeep/internal/docmodel"
	"github.com/pagekeep/pagekeep/internal/segment"
)

// Chapter is one fully rendered chapter: complete viewable markdown plus
// the stripped text used only for search indexing. Chapters are built
// once per processing run and superseded wholesale on reprocessing.
type Chapter struct {
	Number     int
	Title      string
	Markdown   string
	Searchable string
	PageStart  int
	PageEnd    int
	AnchorID   string
}

// PageRange renders the chapter's page span as "start-end".
func (c Chapter) PageRange() string {
	return fmt.Sprintf("%d-%d", c.PageStart, c.PageEnd)
}

type chapterMeta struct {
	Title         string `yaml:"title"`
	ChapterNumber int    `yaml:"chapter_number"`
	PageRange     string `yaml:"page_range"`
	Document      string `yaml:"document"`
}

var (
	chapterTitlePattern = regexp.MustCompile(`(?i)^Chapter\s+(\d+)`)
	crossRefPattern     = regexp.MustCompile(`\bChapter\s+(\d+)\b`)
)

// Assemble renders one chapter from its boundary: frontmatter, the title
// as an h1, then the footer-filtered, table-merged body elements joined
// by blank lines with callout substitution applied.
func Assemble(b segment.Boundary, elems []docmodel.Element, docName string, log *slog.Logger) Chapter {
	body := b.Elements(elems)

	start, end := pageRange(body)
	frontmatter := Frontmatter(b.Title, b.ChapterNumber, start, end, docName)

	parts := []string{frontmatter, "# " + b.Title + "\n"}

	content := body
	if len(content) > 0 && b.ChapterNumber > 0 {
		// The boundary's first element is the chapter heading itself.
		content = content[1:]
	}
	content = MergeTables(FilterFooters(content, log))

	for _, el := range content {
		if md := Element(el); md != "" {
			parts = append(parts, md)
		}
	}

	markdown := applyCallouts(strings.Join(parts, "\n\n"))

	return Chapter{
		Number:     b.ChapterNumber,
		Title:      b.Title,
		Markdown:   markdown,
		Searchable: SearchableText(markdown),
		PageStart:  start,
		PageEnd:    end,
		AnchorID:   AnchorID(b.Title),
	}
}

// pageRange returns the min and max page across the elements, defaulting
// to page 1 when no element carries provenance.
func pageRange(elems []docmodel.Element) (int, int) {
	start, end := 0, 0
	for _, el := range elems {
		if el.Page <= 0 {
			continue
		}
		if start == 0 || el.Page < start {
			start = el.Page
		}
		if last := el.LastPage(); last > end {
			end = last
		}
	}
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = start
	}
	return start, end
}

// Frontmatter renders the chapter's YAML metadata block.
func Frontmatter(title string, number, startPage, endPage int, docName string) string {
	if docName == "" {
		docName = "Unknown"
	}
	meta := chapterMeta{
		Title:         title,
		ChapterNumber: number,
		PageRange:     fmt.Sprintf("%d-%d", startPage, endPage),
		Document:      docName,
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		// A flat struct of scalars cannot fail to marshal.
		return "---\n---"
	}
	return "---\n" + strings.TrimRight(string(out), "\n") + "\n---"
}

var calloutRules = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?im)^Note:\s*(.+)$`), "note"},
	{regexp.MustCompile(`(?im)^Important:\s*(.+)$`), "important"},
	{regexp.MustCompile(`(?im)^Warning:\s*(.+)$`), "warning"},
	{regexp.MustCompile(`(?im)^Tip:\s*(.+)$`), "tip"},
}

// applyCallouts rewrites Note:/Important:/Warning:/Tip: lines as
// blockquote admonitions.
func applyCallouts(markdown string) string {
	for _, rule := range calloutRules {
		markdown = rule.re.ReplaceAllString(markdown, "> [!"+rule.tag+"]\n> $1")
	}
	return markdown
}

var (
	stripFrontmatter = regexp.MustCompile(`(?s)^---\n.*?\n---\n?`)
	stripImages      = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	stripCodeFences  = regexp.MustCompile("(?s)```[a-z]*\n(.*?)\n```")
	stripInlineCode  = regexp.MustCompile("`([^`]+)`")
	stripHeadings    = regexp.MustCompile(`(?m)^#+\s+`)
	stripBoldStars   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	stripItalicStars = regexp.MustCompile(`\*([^*]+)\*`)
	stripBoldUnders  = regexp.MustCompile(`__([^_]+)__`)
	stripItalicUnder = regexp.MustCompile(`_([^_]+)_`)
	stripLinks       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	stripCallouts    = regexp.MustCompile(`> \[!\w+\]\n> `)
	collapseBlanks   = regexp.MustCompile(`\n\n+`)
)

// SearchableText strips markdown formatting from chapter content,
// leaving plain text suitable for the search index. Code and link text
// survive; frontmatter, fences, markers, and callout markup do not.
func SearchableText(markdown string) string {
	text := markdown
	text = stripFrontmatter.ReplaceAllString(text, "")
	text = stripImages.ReplaceAllString(text, "")
	text = stripCodeFences.ReplaceAllString(text, "$1")
	text = stripInlineCode.ReplaceAllString(text, "$1")
	text = stripHeadings.ReplaceAllString(text, "")
	text = stripBoldStars.ReplaceAllString(text, "$1")
	text = stripItalicStars.ReplaceAllString(text, "$1")
	text = stripBoldUnders.ReplaceAllString(text, "$1")
	text = stripItalicUnder.ReplaceAllString(text, "$1")
	text = stripLinks.ReplaceAllString(text, "$1")
	text = stripCallouts.ReplaceAllString(text, "")
	text = collapseBlanks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`[\s_]+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// AnchorID derives the chapter's URL-safe anchor. "Chapter N rest"
// becomes "chapter-N-slug-of-rest" (or just "chapter-N"); anything else
// gets a generic slug of the full title.
func AnchorID(title string) string {
	if m := chapterTitlePattern.FindStringSubmatchIndex(title); m != nil {
		num := title[m[2]:m[3]]
		rest := strings.TrimSpace(title[m[1]:])
		if rest == "" {
			return "chapter-" + num
		}
		return "chapter-" + num + "-" + slugify(rest)
	}
	return slugify(title)
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CrossReference rewrites bare "Chapter N" mentions into links to those
// chapters' anchors. This runs once over the complete chapter set; each
// match is independent and the chapter never links to itself. A mention
// already rendered as link text (followed by "](") is left alone.
func CrossReference(chapters []Chapter) []Chapter {
	anchors := make(map[int]string, len(chapters))
	for _, ch := range chapters {
		if ch.Number > 0 {
			anchors[ch.Number] = ch.AnchorID
		}
	}

	out := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		updated := ch
		updated.Markdown = rewriteChapterRefs(ch.Markdown, anchors, ch.Number)
		out[i] = updated
	}
	return out
}

func rewriteChapterRefs(content string, anchors map[int]string, selfNumber int) string {
	matches := crossRefPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		num := 0
		fmt.Sscanf(content[m[2]:m[3]], "%d", &num)

		anchor, known := anchors[num]
		if !known || num == selfNumber || strings.HasPrefix(content[end:], "](") {
			continue
		}

		sb.WriteString(content[last:start])
		sb.WriteString(fmt.Sprintf("[Chapter %d](#%s)", num, anchor))
		last = end
	}
	sb.WriteString(content[last:])
	return sb.String()
}
