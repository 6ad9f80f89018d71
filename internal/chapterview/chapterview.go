// Package chapterview renders stored chapters for display: wikilinks
// become API URLs, backlinks are discovered, and an outline is extracted
// from the headings.
package chapterview

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/pagekeep/pagekeep/internal/wikilink"
)

// Heading is one outline entry with its anchor slug.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// View is a chapter enriched for display. Content is the stored
// markdown; Resolved has wikilinks rewritten to regular links.
type View struct {
	Content   string              `json:"content"`
	Resolved  string              `json:"content_with_resolved_links"`
	Backlinks []wikilink.Backlink `json:"backlinks"`
	Outline   []Heading           `json:"outline"`
	Meta      map[string]any      `json:"metadata"`
}

// RenderError wraps failures while reading or enriching a chapter.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Options controls which enrichment passes run.
type Options struct {
	IncludeBacklinks bool
	ResolveLinks     bool
}

// Service renders chapters from one document version's file tree.
type Service struct {
	md  goldmark.Markdown
	log *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{md: goldmark.New(), log: log}
}

// Render reads a chapter and produces its display view.
func (s *Service) Render(fsys wikilink.FS, chapterPath string, opts Options) (*View, error) {
	content, err := fsys.Read(chapterPath)
	if err != nil {
		return nil, &RenderError{Path: chapterPath, Err: err}
	}

	view := &View{
		Content:   content,
		Resolved:  content,
		Backlinks: []wikilink.Backlink{},
		Outline:   s.outline(content),
		Meta:      parseFrontmatter(content, s.log),
	}

	if opts.ResolveLinks {
		view.Resolved = resolveToURLs(fsys, content)
	}
	if opts.IncludeBacklinks {
		backlinks, err := wikilink.Backlinks(fsys, chapterPath, s.log)
		if err != nil {
			return nil, &RenderError{Path: chapterPath, Err: err}
		}
		view.Backlinks = backlinks
	}
	return view, nil
}

// outline walks the markdown AST collecting headings in document order.
func (s *Service) outline(content string) []Heading {
	source := []byte(content)
	root := s.md.Parser().Parse(text.NewReader(source))

	var headings []Heading
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := strings.TrimSpace(headingText(h, source))
		if txt == "" {
			return ast.WalkSkipChildren, nil
		}
		headings = append(headings, Heading{
			Level:  h.Level,
			Text:   txt,
			Anchor: slugifyHeading(txt),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func headingText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		sb.WriteString(headingText(c, source))
	}
	return sb.String()
}

var chapterNumInPath = regexp.MustCompile(`chapter-(\d+)`)

// resolveToURLs rewrites every wikilink into a regular markdown link.
// Chapter targets become /api/chapters/{n}, notes and references become
// /api/notes/{stem} and /api/references/{stem}; unresolved targets are
// marked broken so the UI can style them.
func resolveToURLs(fsys wikilink.FS, content string) string {
	links := wikilink.Parse(content)
	if len(links) == 0 {
		return content
	}

	replaced := content
	for _, link := range links {
		replaced = strings.Replace(replaced, link.Raw, linkMarkdown(fsys, link), 1)
	}
	return replaced
}

func linkMarkdown(fsys wikilink.FS, link wikilink.Link) string {
	resolved, ok := wikilink.Resolve(fsys, link.Target)
	if !ok {
		return fmt.Sprintf("[%s](#broken-link)", link.Target)
	}

	anchor := strings.TrimPrefix(link.Anchor, "#")
	var url, display string
	switch wikilink.FileType(resolved) {
	case "chapter":
		num := link.Target
		if m := chapterNumInPath.FindStringSubmatch(resolved); m != nil {
			num = strings.TrimLeft(m[1], "0")
			if num == "" {
				num = "0"
			}
		}
		url = "/api/chapters/" + num
		display = "Chapter " + num
		if anchor != "" {
			url += "#" + anchor
			display += ", " + titleCase(strings.ReplaceAll(anchor, "-", " "))
		}
	case "note":
		stem := strings.TrimSuffix(path.Base(resolved), ".md")
		url = "/api/notes/" + stem
		display = titleCase(strings.ReplaceAll(link.Target, "-", " "))
		if anchor != "" {
			url += "#" + anchor
		}
	case "reference":
		stem := strings.TrimSuffix(path.Base(resolved), ".md")
		url = "/api/references/" + stem
		display = titleCase(strings.ReplaceAll(link.Target, "-", " "))
		if anchor != "" {
			url += "#" + anchor
		}
	default:
		url = "/api/documents/" + link.Target
		display = link.Target
	}
	return fmt.Sprintf("[%s](%s)", display, url)
}

var frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n`)

// parseFrontmatter extracts the leading YAML block, tolerating malformed
// YAML by returning an empty map.
func parseFrontmatter(content string, log *slog.Logger) map[string]any {
	m := frontmatterPattern.FindStringSubmatch(content)
	if m == nil {
		return map[string]any{}
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(m[1]), &meta); err != nil {
		log.Warn("frontmatter parse failed", "error", err)
		return map[string]any{}
	}
	return meta
}

var headingSlugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
var headingSlugSpaces = regexp.MustCompile(`[\s_]+`)
var headingSlugHyphens = regexp.MustCompile(`-+`)

func slugifyHeading(text string) string {
	slug := strings.ToLower(text)
	slug = headingSlugSpaces.ReplaceAllString(slug, "-")
	slug = headingSlugInvalid.ReplaceAllString(slug, "")
	slug = headingSlugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
