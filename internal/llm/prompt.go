package llm

import (
	"strings"
)

const systemPrompt = "You explain research papers in plain language for readers without a science background."

// maxPromptChars matches the default hard ceiling of 50k tokens at 4 chars each.
const maxPromptChars = 200_000

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// BuildPrompt places body after the template instructions, the same layout
// used in the written artifacts. Oversized bodies are clipped.
func BuildPrompt(instructions, body string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\n")
	b.WriteString(clipText(body, maxPromptChars))
	return b.String()
}
