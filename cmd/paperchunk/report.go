package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/ledger"
	"github.com/csheth/paperchunk/internal/pipeline"
)

const maxCellWidth = 60

func printOutcome(w io.Writer, out pipeline.Outcome) {
	fmt.Fprintf(w, "Paper:  %s\n", out.Title)
	fmt.Fprintf(w, "Source: %s (%s)\n", out.Origin.Display, out.Origin.Kind)
	fmt.Fprintf(w, "Size:   %s characters\n", humanize.Comma(int64(out.Chars)))
	if len(out.Chunks) == 1 && out.Mode == config.ModeCombined {
		prompts := len(out.Output.Files) - 1
		if out.Summary != "" {
			prompts--
		}
		fmt.Fprintf(w, "Wrote %d complete-paper prompts to %s\n", prompts, out.Output.Dir)
	} else {
		fmt.Fprintf(w, "Split into %d chunks, wrote %d files to %s\n", len(out.Chunks), len(out.Output.Files), out.Output.Dir)
	}
	if out.Summary != "" {
		fmt.Fprintf(w, "LLM replies: %s\n", out.Summary)
	}
	fmt.Fprintf(w, "Start with: %s\n", out.Output.Index)
}

func printFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	hints := pipeline.Hints(err)
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTroubleshooting tips:")
	for i, hint := range hints {
		fmt.Fprintf(w, "%d. %s\n", i+1, hint)
	}
}

// printRun renders one row per paper followed by a success count.
func printRun(w io.Writer, run ledger.Run) {
	rows := make([][]string, 0, len(run.Papers))
	for i, p := range run.Papers {
		status := "ok"
		detail := p.Index
		if !p.OK() {
			status = "failed"
			detail = strings.TrimPrefix(p.Status, "error: ")
		}
		chunks := ""
		if p.OK() {
			chunks = fmt.Sprintf("%d", p.Chunks)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncate(p.Source, maxCellWidth/2),
			status,
			p.Mode,
			chunks,
			truncate(detail, maxCellWidth),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Source", "Status", "Mode", "Chunks", "Index / Error").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d of %d papers processed (run %s)\n", run.Succeeded(), len(run.Papers), shortID(run.ID))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if strings.Contains(s, string(filepath.Separator)) {
		base := filepath.Base(s)
		if len([]rune(base))+2 <= limit {
			return "…" + string(filepath.Separator) + base
		}
	}
	return string(r[:limit-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
