package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/ledger"
)

// ErrNoSources is returned when a batch has nothing to process.
var ErrNoSources = errors.New("no papers to process")

// ProcessBatch runs every source through the pipeline with at most
// Options.Workers papers in flight. Failures are recorded per paper and do
// not stop the batch. Papers keep their input order. An unset mode means auto.
func (p *Processor) ProcessBatch(ctx context.Context, sources []string, mode config.Mode) (ledger.Run, error) {
	run := ledger.NewRun(p.opts.Now())
	if len(sources) == 0 {
		run.FinishedAt = p.opts.Now()
		return run, ErrNoSources
	}
	mode = mode.OrDefault(config.ModeAuto)
	workers := p.opts.Workers
	if workers <= 0 {
		workers = 1
	}
	p.log.Info("starting batch", "run", run.ID, "papers", len(sources), "workers", workers, "mode", mode)

	run.Papers = make([]ledger.Paper, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				run.Papers[i] = ledger.Paper{Source: src, Status: ledger.ErrorStatus(err)}
				return nil
			}
			out, err := p.process(gctx, src, i+1, mode)
			if err != nil {
				p.log.Error("paper failed", "source", src, "err", err)
				run.Papers[i] = ledger.Paper{Source: src, Status: ledger.ErrorStatus(err)}
				return nil
			}
			rec := out.Record()
			rec.Source = src
			run.Papers[i] = rec
			return nil
		})
	}
	_ = g.Wait()
	run.FinishedAt = p.opts.Now()

	p.log.Info("batch finished", "run", run.ID, "succeeded", run.Succeeded(), "failed", len(run.Failed()))
	return run, ctx.Err()
}

// ProcessFolder processes every file under dir matching Options.Pattern.
// Patterns use doublestar syntax, so "**/*.pdf" recurses.
func (p *Processor) ProcessFolder(ctx context.Context, dir string, mode config.Mode) (ledger.Run, error) {
	files, err := FindPapers(dir, p.opts.Pattern)
	if err != nil {
		return ledger.NewRun(p.opts.Now()), err
	}
	return p.ProcessBatch(ctx, files, mode)
}

// FindPapers lists regular files under dir matching pattern in lexical order.
func FindPapers(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("folder %s: not a directory", dir)
	}
	if pattern == "" {
		pattern = "*.pdf"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files matching %s in %s", ErrNoSources, pattern, dir)
	}
	sort.Strings(matches)
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}

// ReadList reads one source per line. Blank lines and lines starting with
// '#' are skipped.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	var sources []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s lists no sources", ErrNoSources, path)
	}
	return sources, nil
}
