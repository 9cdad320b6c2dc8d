// Package prompts holds the instruction templates placed in front of each chunk.
package prompts

import (
	"fmt"
	"strings"
)

// Template is one named instruction block.
type Template struct {
	// Key is used in file names (chunk_01_<key>.txt).
	Key string `yaml:"key" json:"key"`
	// Name is the display name written in artifact headers.
	Name string `yaml:"name" json:"name"`
	Text string `yaml:"text" json:"text"`
}

const sectionCue = "\n\nPaper section:"

// Builtin returns the five default templates in their canonical order.
func Builtin() []Template {
	return []Template{
		{
			Key:  "general",
			Name: "General Summary",
			Text: "Please summarize this research paper section in simple, easy-to-understand English. Focus on:\n\n" +
				"1. What the researchers were trying to find out\n" +
				"2. How they did their research (keep it simple)\n" +
				"3. What they discovered\n" +
				"4. Why this matters\n\n" +
				"Use everyday language and avoid jargon. Explain like you're talking to a curious friend without a science background." +
				sectionCue,
		},
		{
			Key:  "eli5",
			Name: "Eli5 Summary",
			Text: "Explain this research paper section like I'm 5 years old. Use simple words and short sentences. Focus on:\n\n" +
				"- What problem were the scientists trying to solve?\n" +
				"- What did they do?\n" +
				"- What cool thing did they find?\n" +
				"- Why should we care?" +
				sectionCue,
		},
		{
			Key:  "insights",
			Name: "Key Insights",
			Text: "Extract the most important insights from this research paper section and explain each in plain English:\n\n" +
				"1. State the finding clearly\n" +
				"2. Explain why it's important\n" +
				"3. Describe what it means for the real world\n\n" +
				"Avoid jargon and focus on practical implications." +
				sectionCue,
		},
		{
			Key:  "methods",
			Name: "Methodology Explained",
			Text: "Explain the research methods in this section using simple terms:\n\n" +
				"1. What kind of study/experiment was this?\n" +
				"2. What tools did they use?\n" +
				"3. How did they collect data?\n" +
				"4. What made their approach reliable?\n\n" +
				"Use analogies where helpful." +
				sectionCue,
		},
		{
			Key:  "implications",
			Name: "Implications Future",
			Text: "Based on this research section, explain in simple English:\n\n" +
				"1. What are the implications of these findings?\n" +
				"2. How might this change our understanding?\n" +
				"3. What questions does this raise?\n" +
				"4. How might this impact society or technology?\n\n" +
				"Focus on the bigger picture." +
				sectionCue,
		},
	}
}

// Merge overlays overrides on base. A template whose key already exists
// replaces it in place (empty fields keep the base value); new keys are
// appended in the order given.
func Merge(base, overrides []Template) ([]Template, error) {
	out := make([]Template, len(base))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, t := range out {
		pos[t.Key] = i
	}
	for _, o := range overrides {
		o.Key = strings.TrimSpace(o.Key)
		if err := validKey(o.Key); err != nil {
			return nil, err
		}
		if i, ok := pos[o.Key]; ok {
			if o.Name != "" {
				out[i].Name = o.Name
			}
			if strings.TrimSpace(o.Text) != "" {
				out[i].Text = o.Text
			}
			continue
		}
		if strings.TrimSpace(o.Text) == "" {
			return nil, fmt.Errorf("template %q: text is required", o.Key)
		}
		if o.Name == "" {
			o.Name = DisplayName(o.Key)
		}
		pos[o.Key] = len(out)
		out = append(out, o)
	}
	return out, nil
}

// Select keeps only the templates named in keys, in the order of keys. An
// empty keys slice returns all templates.
func Select(all []Template, keys []string) ([]Template, error) {
	if len(keys) == 0 {
		return all, nil
	}
	out := make([]Template, 0, len(keys))
	for _, key := range keys {
		t, ok := Lookup(all, key)
		if !ok {
			return nil, fmt.Errorf("unknown template %q", key)
		}
		out = append(out, t)
	}
	return out, nil
}

// Lookup finds a template by key.
func Lookup(all []Template, key string) (Template, bool) {
	key = strings.TrimSpace(key)
	for _, t := range all {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

// DisplayName turns a key such as "key_insights" into "Key Insights".
func DisplayName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("template key is required")
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return fmt.Errorf("template key %q: only lower-case letters, digits, '-' and '_' are allowed", key)
		}
	}
	return nil
}
