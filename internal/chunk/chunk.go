// Package chunk partitions cleaned paper text into pieces that fit a character
// budget. Splits prefer section headers, then paragraphs, then sentences; a
// unit is never cut in the middle.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	paragraphSep      = "\n\n"
	sentenceSep       = " "
	minSectionHeaders = 2
)

var (
	headerLine  = regexp.MustCompile(`(?im)^[ \t]*(?:abstract|introduction|methods|results|discussion|conclusion|references)[ \t]*\r?$`)
	headerWord  = regexp.MustCompile(`(?i)^(?:abstract|introduction|methods|results|discussion|conclusion|references)$`)
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
)

// Chunk is one element of the split sequence. Index starts at 1.
type Chunk struct {
	Index int
	Text  string
}

type tier int

const (
	tierSection tier = iota
	tierParagraph
	tierSentence
)

// Size reports the length of s as counted against a budget (code points).
func Size(s string) int {
	return utf8.RuneCountInString(s)
}

// IsHeaderLine reports whether line, once trimmed, is one of the recognised
// section header keywords.
func IsHeaderLine(line string) bool {
	return headerWord.MatchString(strings.TrimSpace(line))
}

// Split returns the ordered chunks of text, each at most budget code points
// long. The only chunks allowed over budget are single sentences that cannot
// be divided further; they are returned unchanged. Empty or blank text yields
// no chunks. A non-positive budget falls back to DefaultTargetChars.
func Split(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultTargetChars
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if sections, ok := trySectionSplit(text); ok {
		return refine(pack(sections, "", budget), budget, tierSection)
	}
	return refine(pack(splitParagraphs(text), paragraphSep, budget), budget, tierParagraph)
}

// Sequence is Split with 1-based positions attached.
func Sequence(text string, budget int) []Chunk {
	parts := Split(text, budget)
	chunks := make([]Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, Chunk{Index: i + 1, Text: part})
	}
	return chunks
}

// refine re-splits any chunk still over budget with the next finer tier.
func refine(chunks []string, budget int, from tier) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if Size(c) <= budget {
			out = append(out, c)
			continue
		}
		switch from {
		case tierSection:
			out = append(out, refine(pack(splitParagraphs(c), paragraphSep, budget), budget, tierParagraph)...)
		case tierParagraph:
			out = append(out, refine(pack(splitSentences(c), sentenceSep, budget), budget, tierSentence)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

// trySectionSplit cuts text at header lines. It reports false when fewer than
// two headers are present, in which case section splitting is not used.
func trySectionSplit(text string) ([]string, bool) {
	locs := headerLine.FindAllStringIndex(text, -1)
	if len(locs) < minSectionHeaders {
		return nil, false
	}
	segments := make([]string, 0, len(locs)+1)
	if lead := text[:locs[0][0]]; strings.TrimSpace(lead) != "" {
		segments = append(segments, lead)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, text[loc[0]:end])
	}
	return segments, true
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, paragraphSep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace. The
// punctuation stays with its sentence; the whitespace is dropped.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// pack greedily fills chunks with whole units joined by sep. The buffer is
// flushed when the next unit would push it past budget; a unit larger than
// budget therefore always ends up alone.
func pack(units []string, sep string, budget int) []string {
	var (
		out     []string
		buf     strings.Builder
		bufSize int
	)
	sepSize := Size(sep)
	flush := func() {
		if c := strings.TrimSpace(buf.String()); c != "" {
			out = append(out, c)
		}
		buf.Reset()
		bufSize = 0
	}
	for _, unit := range units {
		unitSize := Size(unit)
		if bufSize > 0 && bufSize+sepSize+unitSize > budget {
			flush()
		}
		if bufSize > 0 {
			buf.WriteString(sep)
			bufSize += sepSize
		}
		buf.WriteString(unit)
		bufSize += unitSize
	}
	flush()
	return out
}
