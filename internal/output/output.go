// Package output persists emitted artifacts into one fresh directory per paper.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"github.com/csheth/paperchunk/internal/emit"
)

// ErrExists is returned when the target directory is already present.
var ErrExists = errors.New("output directory already exists")

const (
	timestampLayout = "20060102_150405"
	fallbackBase    = "paper"

	SuffixChunks   = "chunks"
	SuffixCombined = "combined"
)

// Writer creates output directories under Root.
type Writer struct {
	Root string
	// Now is the clock used for directory names.
	Now func() time.Time
}

// NewWriter returns a Writer rooted at root using the wall clock.
func NewWriter(root string) *Writer {
	if root == "" {
		root = "."
	}
	return &Writer{Root: root, Now: time.Now}
}

// DirName builds "<slug>_<timestamp>[_<seq>]_<suffix>". A positive seq keeps
// papers processed in the same second apart.
func DirName(base string, at time.Time, seq int, suffix string) string {
	name := slug.Make(base)
	if name == "" {
		name = fallbackBase
	}
	name += "_" + at.Format(timestampLayout)
	if seq > 0 {
		name += "_" + strconv.Itoa(seq)
	}
	return name + "_" + suffix
}

// Result lists what was written.
type Result struct {
	Dir   string
	Index string
	Files []string
}

// Write creates a new directory for base and writes artifacts into it. It
// fails with ErrExists instead of reusing a directory.
func (w *Writer) Write(base string, seq int, suffix string, artifacts []emit.Artifact) (Result, error) {
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output root: %w", err)
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	dir := filepath.Join(w.Root, DirName(base, now(), seq, suffix))
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrExists, dir)
		}
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	res := Result{Dir: dir, Files: make([]string, 0, len(artifacts))}
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Name)
		if err := writeNew(path, a.Content); err != nil {
			return res, err
		}
		if a.Name == emit.IndexName {
			res.Index = path
		}
		res.Files = append(res.Files, path)
	}
	return res, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
