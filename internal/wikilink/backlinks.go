package wikilink

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// snippetChars is the amount of context captured on each side of a
// backlink's line.
const snippetChars = 100

// Backlink is one discovered inbound reference. Backlinks are never
// stored; every query recomputes them from the live file set.
type Backlink struct {
	SourceFile  string `json:"source_file"`
	SourceTitle string `json:"source_title"`
	Snippet     string `json:"snippet"`
	LineNumber  int    `json:"line_number"`
}

// Backlinks scans every markdown file in the version tree and returns
// each inbound reference to target (a relative path), excluding the
// target's own self-references. Files are parsed line by line so each
// backlink carries its line number. Results follow scan order; ranking
// them is deliberately out of scope. An unreadable file is logged and
// skipped so the rest of the scan completes.
func Backlinks(fsys FS, target string, log *slog.Logger) ([]Backlink, error) {
	files, err := fsys.List("", "*.md")
	if err != nil {
		return nil, err
	}

	targetName := baseName(target)
	var backlinks []Backlink

	for _, file := range files {
		if file == target {
			continue
		}
		content, err := fsys.Read(file)
		if err != nil {
			log.Warn("skipping unreadable file in backlink scan", "file", file, "error", err)
			continue
		}

		lines := strings.Split(content, "\n")
		var title string
		titleExtracted := false

		for i, line := range lines {
			for _, link := range Parse(line) {
				resolved, ok := Resolve(fsys, link.Target)
				if (!ok || resolved != target) && baseName(link.Target) != targetName {
					continue
				}
				if !titleExtracted {
					title = ExtractTitle(content, file)
					titleExtracted = true
				}
				backlinks = append(backlinks, Backlink{
					SourceFile:  file,
					SourceTitle: title,
					Snippet:     buildSnippet(lines, i, snippetChars),
					LineNumber:  i + 1,
				})
			}
		}
	}

	return backlinks, nil
}

var (
	frontmatterBlock = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---`)
	frontmatterTitle = regexp.MustCompile(`(?m)^title:\s*["']?(.+?)["']?\s*$`)
	firstH1          = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// ExtractTitle pulls a document title from its content: the frontmatter
// title field, else the first h1 heading, else the humanized file name.
func ExtractTitle(content, filename string) string {
	if fm := frontmatterBlock.FindStringSubmatch(content); fm != nil {
		if m := frontmatterTitle.FindStringSubmatch(fm[1]); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := firstH1.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return humanize(baseName(filename))
}

// humanize turns a file base name into a display title.
func humanize(name string) string {
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// buildSnippet extracts context around the matching line. Long lines
// contribute their own head and tail; a line shorter than twice the
// context width borrows a slice from its neighbors instead.
func buildSnippet(lines []string, index, chars int) string {
	line := ""
	if index < len(lines) {
		line = lines[index]
	}

	before := head(line, chars)
	after := tail(line, chars)

	if len(line) < chars*2 {
		if index > 0 {
			before = tail(lines[index-1], chars) + " " + line
		}
		if index < len(lines)-1 {
			after = line + " " + head(lines[index+1], chars)
		}
	}

	return "..." + before + "..." + after + "..."
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
