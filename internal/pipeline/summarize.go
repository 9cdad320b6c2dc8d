package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/csheth/paperchunk/internal/chunk"
	"github.com/csheth/paperchunk/internal/emit"
	"github.com/csheth/paperchunk/internal/llm"
	"github.com/csheth/paperchunk/internal/prompts"
)

// SummaryFileName is the artifact holding LLM responses for template key.
func SummaryFileName(key string) string {
	return fmt.Sprintf("summary_%s.md", key)
}

// summarize sends the configured template with every chunk to the LLM and
// collects the replies into one artifact. It returns nil when dispatch is off.
func (p *Processor) summarize(ctx context.Context, chunks []chunk.Chunk, meta emit.Metadata) (*emit.Artifact, error) {
	key := strings.TrimSpace(p.opts.Summarize)
	if p.llm == nil || key == "" || len(chunks) == 0 {
		return nil, nil
	}
	tmpl, ok := prompts.Lookup(p.opts.Templates, key)
	if !ok {
		return nil, fmt.Errorf("template %q is not enabled", key)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", tmpl.Name, meta.Title)
	fmt.Fprintf(&b, "_Source: %s. Model: %s._\n", meta.Origin.Display, p.llm.Name())
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.log.Debug("sending chunk to llm", "chunk", c.Index, "template", key, "model", p.llm.Name())
		reply, err := p.llm.Complete(ctx, llm.BuildPrompt(tmpl.Text, c.Text))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		if len(chunks) > 1 {
			fmt.Fprintf(&b, "\n## Chunk %d of %d\n", c.Index, len(chunks))
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(reply))
		b.WriteString("\n")
	}
	return &emit.Artifact{Name: SummaryFileName(key), Content: b.String()}, nil
}
