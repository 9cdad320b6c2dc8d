// Package emit turns chunks and prompt templates into the text artifacts a
// reader pastes into a language model, plus an index describing them.
package emit

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/csheth/paperchunk/internal/chunk"
	"github.com/csheth/paperchunk/internal/paper"
	"github.com/csheth/paperchunk/internal/prompts"
)

// IndexName sorts ahead of every chunk file.
const IndexName = "00_INDEX.txt"

const timeLayout = "2006-01-02 15:04:05"

// Artifact is a file to be written: a name relative to the output directory
// and its full content.
type Artifact struct {
	Name    string
	Content string
}

// Metadata is what the headers and index say about the paper.
type Metadata struct {
	Title       string
	Origin      paper.Origin
	GeneratedAt time.Time
}

// ChunkFileName is the artifact name for chunk i and template key.
func ChunkFileName(i int, key string) string {
	return fmt.Sprintf("chunk_%02d_%s.txt", i, key)
}

// CombinedFileName is the artifact name for a whole-paper prompt.
func CombinedFileName(key string) string {
	return fmt.Sprintf("complete_%s.txt", key)
}

// Chunked returns one artifact per (chunk, template) pair in chunk order, each
// chunk's templates in the order given, followed by the index.
func Chunked(chunks []chunk.Chunk, templates []prompts.Template, meta Metadata) []Artifact {
	artifacts := make([]Artifact, 0, len(chunks)*len(templates)+1)
	for _, c := range chunks {
		for _, t := range templates {
			artifacts = append(artifacts, Artifact{
				Name:    ChunkFileName(c.Index, t.Key),
				Content: chunkContent(c, len(chunks), t, meta),
			})
		}
	}
	artifacts = append(artifacts, Artifact{Name: IndexName, Content: chunkedIndex(chunks, templates, meta)})
	return artifacts
}

// Combined returns one artifact per template carrying the whole text, used when
// the paper fits under the hard ceiling, followed by the index.
func Combined(text string, templates []prompts.Template, meta Metadata) []Artifact {
	artifacts := make([]Artifact, 0, len(templates)+1)
	for _, t := range templates {
		artifacts = append(artifacts, Artifact{
			Name:    CombinedFileName(t.Key),
			Content: combinedContent(text, t, meta),
		})
	}
	artifacts = append(artifacts, Artifact{Name: IndexName, Content: combinedIndex(text, templates, meta)})
	return artifacts
}

func chunkContent(c chunk.Chunk, total int, t prompts.Template, meta Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# LLM PROMPT - CHUNK %d of %d\n", c.Index, total)
	fmt.Fprintf(&b, "# Paper: %s\n", meta.Title)
	fmt.Fprintf(&b, "# Source: %s\n", meta.Origin.Display)
	fmt.Fprintf(&b, "# Prompt Type: %s\n", t.Name)
	fmt.Fprintf(&b, "# Chunk Size: %s characters\n\n", comma(chunk.Size(c.Text)))
	b.WriteString(t.Text)
	b.WriteString("\n\n")
	b.WriteString(c.Text)
	b.WriteString("\n")
	return b.String()
}

func combinedContent(text string, t prompts.Template, meta Metadata) string {
	var b strings.Builder
	b.WriteString("# LLM PROMPT - COMPLETE PAPER\n")
	fmt.Fprintf(&b, "# Paper: %s\n", meta.Title)
	fmt.Fprintf(&b, "# Source: %s\n", meta.Origin.Display)
	fmt.Fprintf(&b, "# Prompt Type: %s\n", t.Name)
	fmt.Fprintf(&b, "# Paper Size: %s characters\n\n", comma(chunk.Size(text)))
	b.WriteString(t.Text)
	b.WriteString("\n\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}
