package chunk

import (
	"reflect"
	"strings"
	"testing"
	"unicode"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func sampleText() string {
	sentences := []string{
		"We study how chunk budgets interact with paper structure.",
		"Large language models accept a bounded amount of context!",
		"Does splitting at sentences lose meaning?",
		"Our experiments suggest it rarely does.",
		"Short one.",
	}
	var paragraphs []string
	for i := 0; i < 12; i++ {
		paragraphs = append(paragraphs, strings.Join(sentences[:1+i%len(sentences)], " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

func sectionedText() string {
	return strings.Join([]string{
		"A Study of Chunking in Practice",
		"Abstract",
		"We describe a splitter. It keeps sections together.",
		"",
		"Introduction",
		strings.Repeat("Sentences about the introduction go here. ", 20),
		"",
		"Methods",
		strings.Repeat("We measured things carefully. ", 15),
		"Results",
		"Everything worked as expected.",
		"References",
		"[1] Someone, 2020.",
	}, "\n")
}

func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "\n\n\t"} {
		if got := Split(in, 100); len(got) != 0 {
			t.Fatalf("Split(%q) = %#v, want empty", in, got)
		}
	}
}

func TestSplitNonEmptyYieldsAtLeastOneChunk(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"x", "Hello world.", sampleText(), sectionedText()} {
		if got := Split(in, 50); len(got) == 0 {
			t.Fatalf("Split(%q) returned no chunks", in)
		}
	}
}

func TestSplitRespectsBudget(t *testing.T) {
	t.Parallel()

	for _, text := range []string{sampleText(), sectionedText()} {
		for _, budget := range []int{20, 45, 80, 200, 1000} {
			for _, c := range Split(text, budget) {
				if Size(c) <= budget {
					continue
				}
				if units := splitSentences(c); len(units) != 1 || units[0] != c {
					t.Fatalf("budget %d: oversized chunk is not a single sentence: %q", budget, c)
				}
			}
		}
	}
}

func TestSplitPreservesContent(t *testing.T) {
	t.Parallel()

	for _, text := range []string{sampleText(), sectionedText()} {
		for _, budget := range []int{10, 60, 150, 5000} {
			got := strings.Join(Split(text, budget), "")
			if stripSpace(got) != stripSpace(text) {
				t.Fatalf("budget %d: content changed after split", budget)
			}
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	t.Parallel()

	text := sectionedText()
	first := Split(text, 120)
	second := Split(text, 120)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("split not deterministic:\n%#v\n%#v", first, second)
	}
}

func TestSplitMonotonicInBudget(t *testing.T) {
	t.Parallel()

	for _, text := range []string{sampleText(), sectionedText()} {
		prev := 0
		for budget := 2000; budget >= 10; budget -= 10 {
			n := len(Split(text, budget))
			if n < prev {
				t.Fatalf("budget %d produced %d chunks, fewer than %d at a larger budget", budget, n, prev)
			}
			prev = n
		}
	}
}

func TestSplitUsesSectionsWhenTwoHeadersPresent(t *testing.T) {
	t.Parallel()

	text := "Abstract\n" + strings.Repeat("A", 25000) + "\nIntroduction\n" + strings.Repeat("B", 25000)
	got := Split(text, 30000)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "Abstract") {
		t.Fatalf("first chunk should start with Abstract, got %q", got[0][:20])
	}
	if !strings.HasPrefix(got[1], "Introduction") {
		t.Fatalf("second chunk should start with Introduction, got %q", got[1][:20])
	}
}

func TestSplitSectionBoundariesAlignWithHeaders(t *testing.T) {
	t.Parallel()

	text := "Preface text here.\nMethods\nmmmm mmmm mmmm\n\nmore methods\nResults\nrrrr rrrr"
	got := Split(text, 40)
	want := []string{
		"Preface text here.",
		"Methods\nmmmm mmmm mmmm\n\nmore methods",
		"Results\nrrrr rrrr",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("section split mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestSplitOversizedSectionKeepsParagraphBreaks(t *testing.T) {
	t.Parallel()

	// As sentences the first section would fit in one chunk; packing it by
	// paragraphs first keeps the break between them.
	text := "Methods\nAa one.\n\nBb two.\n\nCc three.\nResults\nshort"
	got := Split(text, 34)
	want := []string{
		"Methods\nAa one.\n\nBb two.",
		"Cc three.",
		"Results\nshort",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("oversized section mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestSplitSingleHeaderFallsBackToParagraphs(t *testing.T) {
	t.Parallel()

	text := "Introduction\nfirst paragraph body\n\nsecond paragraph body\n\nthird paragraph body"
	got := Split(text, 45)
	want := []string{
		"Introduction\nfirst paragraph body",
		"second paragraph body\n\nthird paragraph body",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("paragraph split mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestSplitHeaderMustStandAlone(t *testing.T) {
	t.Parallel()

	text := "The Methods we used\n\nand the Results we got"
	if _, ok := trySectionSplit(text); ok {
		t.Fatal("inline keywords must not activate section splitting")
	}
}

func TestSplitOversizedUnitKeptWhole(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 40000)
	got := Split(text, 30000)
	if len(got) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(got))
	}
	if Size(got[0]) != 40000 || got[0] != text {
		t.Fatalf("oversized chunk altered, length %d", Size(got[0]))
	}
}

func TestSplitFallsBackToSentences(t *testing.T) {
	t.Parallel()

	text := "One two three. Four five six! Seven eight nine? Ten."
	got := Split(text, 25)
	want := []string{
		"One two three.",
		"Four five six!",
		"Seven eight nine? Ten.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sentence split mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestSplitNonPositiveBudgetUsesDefault(t *testing.T) {
	t.Parallel()

	text := sampleText()
	if !reflect.DeepEqual(Split(text, 0), Split(text, DefaultTargetChars)) {
		t.Fatal("zero budget should behave like the default target")
	}
}

func TestSplitCountsCodePoints(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", 10) + "\n\n" + strings.Repeat("ü", 10)
	if got := Split(text, 22); len(got) != 1 {
		t.Fatalf("expected multi-byte text to fit in one chunk, got %d", len(got))
	}
}

func TestSequenceIndexesFromOne(t *testing.T) {
	t.Parallel()

	seq := Sequence(sampleText(), 80)
	if len(seq) < 2 {
		t.Fatalf("expected several chunks, got %d", len(seq))
	}
	for i, c := range seq {
		if c.Index != i+1 {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitSentencesKeepsPunctuation(t *testing.T) {
	t.Parallel()

	got := splitSentences("Is it? Yes.  It is!\nDone")
	want := []string{"Is it?", "Yes.", "It is!", "Done"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitSentences = %#v, want %#v", got, want)
	}
}

func TestIsHeaderLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want bool
	}{
		{"Abstract", true},
		{"  REFERENCES  ", true},
		{"conclusion", true},
		{"Related Work", false},
		{"Methods and materials", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHeaderLine(tt.line); got != tt.want {
			t.Fatalf("IsHeaderLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
