package emit

import (
	"fmt"
	"strings"

	"github.com/csheth/paperchunk/internal/chunk"
	"github.com/csheth/paperchunk/internal/prompts"
)

// Step is one line of the recommended workflow printed in the index.
type Step struct {
	Title       string
	Description string
}

// Workflow returns the suggested order for working through generated files.
func Workflow(templates []prompts.Template) []Step {
	first := "the first template"
	if len(templates) > 0 {
		first = strings.ToLower(templates[0].Name)
	}
	return []Step{
		{Title: "Start small", Description: fmt.Sprintf("Start with chunk 1, %s.", first)},
		{Title: "Keep order", Description: "Process chunks in order for complete understanding."},
		{Title: "Switch lenses", Description: "Use different prompt types based on your needs."},
		{Title: "Synthesize", Description: "Combine insights from all chunks for the full picture."},
	}
}

func writeIndexHeader(b *strings.Builder, heading string, meta Metadata) {
	fmt.Fprintf(b, "# %s\n", heading)
	fmt.Fprintf(b, "# Generated: %s\n", meta.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(b, "# Paper: %s\n", meta.Title)
	fmt.Fprintf(b, "# Source: %s (%s)\n", meta.Origin.Display, meta.Origin.Kind)
}

func writeTemplateList(b *strings.Builder, pattern func(key string) string, templates []prompts.Template) {
	for _, t := range templates {
		fmt.Fprintf(b, "- `%s` - %s prompt\n", pattern(t.Key), t.Name)
	}
}

func writeWorkflow(b *strings.Builder, steps []Step) {
	b.WriteString("\n## Recommended Workflow\n\n")
	for i, s := range steps {
		fmt.Fprintf(b, "%d. %s: %s\n", i+1, s.Title, s.Description)
	}
}

func chunkedIndex(chunks []chunk.Chunk, templates []prompts.Template, meta Metadata) string {
	var b strings.Builder
	writeIndexHeader(&b, "Paper Summary Chunks - Index", meta)
	fmt.Fprintf(&b, "# Total chunks: %d\n", len(chunks))

	b.WriteString("\n## How to Use These Files\n\n")
	fmt.Fprintf(&b, "This paper has been split into %d model-friendly chunks. Each chunk has %d prompt files:\n\n",
		len(chunks), len(templates))
	writeTemplateList(&b, func(key string) string { return "chunk_N_" + key + ".txt" }, templates)
	writeWorkflow(&b, Workflow(templates))

	b.WriteString("\n## File List\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "\n### Chunk %d (%s characters)\n", c.Index, comma(chunk.Size(c.Text)))
		for _, t := range templates {
			fmt.Fprintf(&b, "- %s\n", ChunkFileName(c.Index, t.Key))
		}
	}
	return b.String()
}

func combinedIndex(text string, templates []prompts.Template, meta Metadata) string {
	var b strings.Builder
	writeIndexHeader(&b, "Paper Summary Prompts - Index", meta)
	fmt.Fprintf(&b, "# Paper size: %s characters\n", comma(chunk.Size(text)))

	b.WriteString("\n## How to Use These Files\n\n")
	fmt.Fprintf(&b, "The whole paper fits in one prompt. There are %d prompt files:\n\n", len(templates))
	writeTemplateList(&b, CombinedFileName, templates)

	b.WriteString("\n## File List\n\n")
	for _, t := range templates {
		fmt.Fprintf(&b, "- %s\n", CombinedFileName(t.Key))
	}
	return b.String()
}
