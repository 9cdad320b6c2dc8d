package main

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/paperchunk/internal/tuitest"
)

func TestInteractiveProcessesPaper(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binary := buildBinary(t)

	home := t.TempDir()
	pdfPath := filepath.Join(home, "interactive.pdf")
	writePDF(t, pdfPath, "Introduction", "Results hold.")

	rec, err := tuitest.Run(context.Background(), tuitest.Session{
		Binary: binary,
		Home:   home,
		Script: []tuitest.Step{
			tuitest.Pause(time.Second),
			tuitest.Type(pdfPath),
			tuitest.Press(tuitest.KeyEnter),
			tuitest.Pause(2 * time.Second),
			tuitest.Type("q"),
		},
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	if _, ok := rec.FrameContaining("Paper source"); !ok {
		t.Fatalf("input prompt never rendered:\n%s", rec.Raw)
	}
	stages := rec.Stages()
	if len(stages) == 0 || stages[len(stages)-1] != tuitest.StageResult {
		t.Fatalf("expected to finish on the result screen, got %v", stages)
	}
	frame, ok := rec.Last(tuitest.StageResult)
	if !ok {
		t.Fatalf("result view never rendered:\n%s", rec.Raw)
	}
	if !strings.Contains(frame.Plain, "00_INDEX.txt") || !strings.Contains(frame.Plain, "Research Paper") {
		t.Fatalf("expected index file and fallback title in result:\n%s", frame.Plain)
	}

	matches, _ := filepath.Glob(filepath.Join(rec.OutputDir, "interactive_*_chunks"))
	if len(matches) != 1 {
		t.Fatalf("expected one output directory, got %v", matches)
	}
}

func TestInteractiveTabSwitchesMode(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binary := buildBinary(t)

	home := t.TempDir()
	pdfPath := filepath.Join(home, "tabbed.pdf")
	writePDF(t, pdfPath, "Introduction", "Results hold.")

	rec, err := tuitest.Run(context.Background(), tuitest.Session{
		Binary: binary,
		Home:   home,
		Args:   []string{"--no-ledger"},
		Script: []tuitest.Step{
			tuitest.Pause(time.Second),
			tuitest.Press(tuitest.KeyTab),
			tuitest.Type(pdfPath),
			tuitest.Press(tuitest.KeyEnter),
			tuitest.Pause(2 * time.Second),
			tuitest.Press(tuitest.KeyCtrlC),
		},
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}
	if _, ok := rec.FrameContaining("Mode combined"); !ok {
		t.Fatalf("tab should switch to combined mode:\n%s", rec.Raw)
	}
	matches, _ := filepath.Glob(filepath.Join(rec.OutputDir, "tabbed_*_combined"))
	if len(matches) != 1 {
		t.Fatalf("expected one combined output directory, got %v", matches)
	}
}

func buildBinary(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	bin, err := tuitest.Build(context.Background(), filepath.Dir(file), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return bin
}
