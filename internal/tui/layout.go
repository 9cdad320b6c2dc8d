package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/paperchunk/internal/pipeline"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 12,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	// hero, status bar, help line and spacing
	const chrome = 12
	usable := height - chrome
	if usable < 6 {
		usable = 6
	}
	l.viewportHeight = usable
}

// renderOutcome lays out a finished paper for the result viewport.
func renderOutcome(out pipeline.Outcome, width int) string {
	var cb strings.Builder
	cb.WriteString(successStyle.Render("✓ " + wordwrap.String(out.Title, width-2)))
	cb.WriteRune('\n')
	cb.WriteRune('\n')
	field := func(label, value string) {
		cb.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		cb.WriteString(hangingIndent(wordwrap.String(value, width-10), strings.Repeat(" ", 10)))
		cb.WriteRune('\n')
	}
	field("Source", fmt.Sprintf("%s (%s)", out.Origin.Display, out.Origin.Kind))
	field("Mode", string(out.Mode))
	field("Size", humanize.Comma(int64(out.Chars))+" characters")
	field("Chunks", fmt.Sprintf("%d", len(out.Chunks)))
	field("Output", out.Output.Dir)
	if out.Output.Index != "" {
		field("Start", out.Output.Index)
	}
	if out.Summary != "" {
		field("Summary", out.Summary)
	}
	if len(out.Output.Files) > 0 {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Files (%d)", len(out.Output.Files))))
		cb.WriteRune('\n')
		for _, f := range out.Output.Files {
			cb.WriteString(" • ")
			cb.WriteString(filepath.Base(f))
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

// renderFailure shows err with its troubleshooting hints.
func renderFailure(source string, err error, width int) string {
	var cb strings.Builder
	cb.WriteString(errorStyle.Render("✗ Could not process " + source))
	cb.WriteRune('\n')
	cb.WriteString(indentBlock(wordwrap.String(err.Error(), width-2), "  "))
	cb.WriteRune('\n')
	if hints := pipeline.Hints(err); len(hints) > 0 {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("Troubleshooting"))
		cb.WriteRune('\n')
		for i, hint := range hints {
			line := fmt.Sprintf("%d. %s", i+1, hint)
			cb.WriteString(indentBlock(wordwrap.String(line, width-2), "  "))
			cb.WriteRune('\n')
		}
	}
	return cb.String()
}

// hangingIndent prefixes every line but the first.
func hangingIndent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func indentBlock(text, prefix string) string {
	return prefix + hangingIndent(text, prefix)
}
