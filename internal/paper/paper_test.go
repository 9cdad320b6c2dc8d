package paper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "skips short and shouting lines",
			text: "NATURE\nA STUDY OF VERY IMPORTANT THINGS\nDeep Learning for Protein Folding\nabstract...",
			want: "Deep Learning for Protein Folding",
		},
		{
			name: "skips short header before the title",
			text: "ABSTRACT\n\nA Study of Whitespace Collapse in Modern Document Formats\n\nAuthors...",
			want: "A Study of Whitespace Collapse in Modern Document Formats",
		},
		{name: "empty", text: "", want: DefaultTitle},
		{name: "only short lines", text: "a\nb\nc", want: DefaultTitle},
		{
			name: "exactly twenty characters is too short",
			text: strings.Repeat("a", 20) + "\n" + strings.Repeat("b", 21),
			want: strings.Repeat("b", 21),
		},
		{name: "trims surrounding space", text: "   Attention Is All You Need Again   \n", want: "Attention Is All You Need Again"},
		{name: "digits alone are not upper-case", text: "2024 1234 5678 9012 3456 7890", want: "2024 1234 5678 9012 3456 7890"},
		{name: "too long", text: strings.Repeat("x", 150), want: DefaultTitle},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Title(tt.text); got != tt.want {
				t.Fatalf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleOnlyScansOpeningLines(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x\n", 10) + "A Perfectly Reasonable Title Line"
	if got := Title(text); got != DefaultTitle {
		t.Fatalf("Title() = %q, want fallback", got)
	}
}

func TestIsLocal(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "paper")
	if err := os.WriteFile(existing, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		source string
		want   bool
	}{
		{existing, true},
		{"papers/attention.pdf", true},
		{"https://arxiv.org/pdf/1706.03762.pdf", false},
		{"HTTP://example.com/a.pdf", false},
		{"2401.12345", true},
		{"arxiv:2401", false},
	}
	for _, tt := range tests {
		if got := IsLocal(tt.source); got != tt.want {
			t.Fatalf("IsLocal(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	local := Describe("some/dir/attention.pdf")
	if local.Kind != KindLocal || local.Display != "attention.pdf" || local.BaseName() != "attention" {
		t.Fatalf("unexpected local origin: %+v base=%q", local, local.BaseName())
	}
	if local.Kind.String() != "Local file" {
		t.Fatalf("kind string = %q", local.Kind.String())
	}

	remote := Describe("https://example.com/paper.pdf")
	if remote.Kind != KindURL || remote.Display != "https://example.com/paper.pdf" || remote.BaseName() != "paper" {
		t.Fatalf("unexpected remote origin: %+v", remote)
	}
}
