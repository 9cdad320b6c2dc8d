// Package ledger keeps a JSON record of processing runs next to their output.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// FileName is the ledger's name inside the output root.
const FileName = "paperchunk-runs.json"

// StatusSuccess marks a paper that produced its artifacts.
const StatusSuccess = "success"

// Paper is the outcome for one source.
type Paper struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status"`
	Mode   string `json:"mode,omitempty"`
	Dir    string `json:"dir,omitempty"`
	Index  string `json:"index,omitempty"`
	Chunks int    `json:"chunks,omitempty"`
	Chars  int    `json:"chars,omitempty"`
	// Summary is the path of an LLM response written for the paper, if any.
	Summary string `json:"summary,omitempty"`
}

// OK reports whether the paper succeeded.
func (p Paper) OK() bool { return p.Status == StatusSuccess }

// ErrorStatus formats a failure the way the ledger stores it.
func ErrorStatus(err error) string {
	return "error: " + err.Error()
}

// Run groups the papers handled by one invocation.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Papers     []Paper   `json:"papers"`
}

// NewRun starts a run with a fresh identifier.
func NewRun(now time.Time) Run {
	return Run{ID: uuid.NewString(), StartedAt: now}
}

// Succeeded counts successful papers.
func (r Run) Succeeded() int {
	n := 0
	for _, p := range r.Papers {
		if p.OK() {
			n++
		}
	}
	return n
}

// Failed lists the papers that did not succeed.
func (r Run) Failed() []Paper {
	var out []Paper
	for _, p := range r.Papers {
		if !p.OK() {
			out = append(out, p)
		}
	}
	return out
}

// Path is the ledger location for an output root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// lockWait bounds how long Append waits for another process to finish
// writing the same ledger.
const lockWait = 10 * time.Second

// Append adds run to the ledger at path, creating the file if necessary.
// Writers sharing an output root are serialized through a lock file and the
// ledger is replaced by rename, so readers never see a partial file.
func Append(path string, run Run) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock ledger %s: %w", filepath.Base(path), err)
	}
	if !locked {
		return fmt.Errorf("lock ledger %s: held by another run", filepath.Base(path))
	}
	defer func() { _ = lock.Unlock() }()

	runs, err := Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	runs = append(runs, run)
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+FileName+".*")
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

// Load returns all recorded runs, oldest first.
func Load(path string) ([]Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", filepath.Base(path), err)
	}
	return runs, nil
}

// Find returns the run with the given identifier or prefix of it.
func Find(runs []Run, id string) (Run, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, false
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if strings.HasPrefix(runs[i].ID, id) {
			return runs[i], true
		}
	}
	return Run{}, false
}
