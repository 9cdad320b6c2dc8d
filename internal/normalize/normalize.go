// Package normalize cleans text pulled out of a PDF before it is chunked.
package normalize

import (
	"regexp"
	"strings"

	"github.com/csheth/paperchunk/internal/chunk"
)

var (
	// \p{Zs} covers the no-break and thin spaces PDF extraction tends to emit.
	paragraphBreak = regexp.MustCompile(`\n[ \t\f\v\p{Zs}]*(?:\n[ \t\f\v\p{Zs}]*)+`)
	anyWhitespace  = regexp.MustCompile(`[\s\v\p{Zs}]+`)
	inlineSpace    = regexp.MustCompile(`[ \t\f\v\n\p{Zs}]+`)
	crossRef       = regexp.MustCompile(`(?i)[ \t]?\((?:fig\.?\s*\d+[a-z]?|table\s*\d+)\)`)
	lineEdgeSpace  = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
)

// Options tweaks the cleaning order.
type Options struct {
	// LiteralOrder collapses every whitespace run before paragraph breaks are
	// considered, which leaves the output on a single line.
	LiteralOrder bool
}

// Clean applies the default cleaning rules: paragraph breaks become a single
// blank line, other whitespace runs become one space (header keyword lines
// keep their own line), figure and table references are dropped and the
// result is trimmed.
func Clean(text string) string {
	return CleanWith(text, Options{})
}

// CleanWith is Clean with explicit options.
func CleanWith(text string, opts Options) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if opts.LiteralOrder {
		text = anyWhitespace.ReplaceAllString(text, " ")
		text = paragraphBreak.ReplaceAllString(text, "\n\n")
	} else {
		text = paragraphBreak.ReplaceAllString(text, "\n\n")
		paragraphs := strings.Split(text, "\n\n")
		for i, p := range paragraphs {
			paragraphs[i] = collapseParagraph(p)
		}
		text = strings.Join(paragraphs, "\n\n")
	}

	text = crossRef.ReplaceAllString(text, "")
	text = lineEdgeSpace.ReplaceAllString(text, "")
	text = paragraphBreak.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// collapseParagraph joins the lines of one paragraph with single spaces. Lines
// holding only a section header stay on a line of their own so the splitter
// can still find them.
func collapseParagraph(p string) string {
	lines := strings.Split(p, "\n")
	var b strings.Builder
	pending := ""
	flush := func() {
		if pending == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pending)
		pending = ""
	}
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		if chunk.IsHeaderLine(line) {
			flush()
			pending = line
			flush()
			continue
		}
		if pending == "" {
			pending = line
		} else {
			pending += " " + line
		}
	}
	flush()
	return b.String()
}
