// Package paper holds small helpers that describe a paper: a display title
// guessed from its text and how its source should be shown.
package paper

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTitle is used when no line in the opening of the text looks like a title.
const DefaultTitle = "Research Paper"

const (
	titleScanLines = 10
	titleMinLen    = 20
	titleMaxLen    = 150
)

// Title returns the first of the opening lines whose trimmed length lies
// strictly between 20 and 150 characters and which is not written entirely
// in capitals.
func Title(text string) string {
	lines := strings.SplitN(text, "\n", titleScanLines+1)
	if len(lines) > titleScanLines {
		lines = lines[:titleScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n <= titleMinLen || n >= titleMaxLen {
			continue
		}
		if isUpper(line) {
			continue
		}
		return line
	}
	return DefaultTitle
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}

// Kind distinguishes where a paper was loaded from.
type Kind int

const (
	KindURL Kind = iota
	KindLocal
)

func (k Kind) String() string {
	if k == KindLocal {
		return "Local file"
	}
	return "URL"
}

// IsLocal reports whether source names a file on disk. Anything that exists is
// local; otherwise a source without an http(s) scheme that contains a dot is
// treated as a path too.
func IsLocal(source string) bool {
	if _, err := os.Stat(source); err == nil {
		return true
	}
	if hasHTTPScheme(source) {
		return false
	}
	return strings.Contains(source, ".")
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Origin describes a paper's source for display in generated files.
type Origin struct {
	Source  string
	Kind    Kind
	Display string
}

// Describe classifies source and derives its display form: the base name for
// local files, the source itself otherwise.
func Describe(source string) Origin {
	o := Origin{Source: source, Kind: KindURL, Display: source}
	if IsLocal(source) {
		o.Kind = KindLocal
		o.Display = filepath.Base(source)
	}
	return o
}

// BaseName is the stem used for output directories: the file name without
// extension for local files, "paper" otherwise.
func (o Origin) BaseName() string {
	if o.Kind == KindLocal {
		base := filepath.Base(o.Source)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "paper"
}
