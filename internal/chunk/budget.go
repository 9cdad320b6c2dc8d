package chunk

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxTokens keeps a chunk far below the downstream model's window.
	DefaultMaxTokens = 50_000
	// DefaultCharsPerToken is the fixed approximation used instead of a tokenizer.
	DefaultCharsPerToken = 4
	// DefaultTargetChars leaves headroom under the ceiling.
	DefaultTargetChars = 30_000
)

// ErrInvalidBudget is returned by Budget.Validate.
var ErrInvalidBudget = errors.New("invalid chunk budget")

// Budget describes the two character limits in play. The ceiling is derived
// from a token budget; the target is what Split actually packs against.
type Budget struct {
	MaxTokens     int `yaml:"max_tokens_per_chunk"`
	CharsPerToken int `yaml:"chars_per_token"`
	TargetChars   int `yaml:"target_chunk_chars"`
}

// DefaultBudget returns the 50k-token / 4 chars-per-token / 30k-char setup.
func DefaultBudget() Budget {
	return Budget{
		MaxTokens:     DefaultMaxTokens,
		CharsPerToken: DefaultCharsPerToken,
		TargetChars:   DefaultTargetChars,
	}
}

// CeilingChars is the hard safety limit. It only decides whether a paper
// needs chunking at all.
func (b Budget) CeilingChars() int {
	return b.MaxTokens * b.CharsPerToken
}

// Validate checks that all limits are positive and the target fits under the ceiling.
func (b Budget) Validate() error {
	switch {
	case b.MaxTokens <= 0:
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidBudget, b.MaxTokens)
	case b.CharsPerToken <= 0:
		return fmt.Errorf("%w: chars per token must be positive, got %d", ErrInvalidBudget, b.CharsPerToken)
	case b.TargetChars <= 0:
		return fmt.Errorf("%w: target chars must be positive, got %d", ErrInvalidBudget, b.TargetChars)
	case b.TargetChars > b.CeilingChars():
		return fmt.Errorf("%w: target %d exceeds ceiling %d", ErrInvalidBudget, b.TargetChars, b.CeilingChars())
	}
	return nil
}

// Fits reports whether text can be sent whole without chunking.
func (b Budget) Fits(text string) bool {
	return Size(text) <= b.CeilingChars()
}
