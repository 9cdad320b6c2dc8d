// Package pipeline wires source acquisition, text extraction, cleaning,
// splitting and artifact emission for one paper or a batch of papers.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/csheth/paperchunk/internal/chunk"
	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/emit"
	"github.com/csheth/paperchunk/internal/ledger"
	"github.com/csheth/paperchunk/internal/llm"
	"github.com/csheth/paperchunk/internal/logging"
	"github.com/csheth/paperchunk/internal/normalize"
	"github.com/csheth/paperchunk/internal/output"
	"github.com/csheth/paperchunk/internal/paper"
	"github.com/csheth/paperchunk/internal/pdftext"
	"github.com/csheth/paperchunk/internal/prompts"
	"github.com/csheth/paperchunk/internal/source"
)

// Fetcher resolves a source reference into bytes. Errors wrap source.ErrUnreachable.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (source.Document, error)
}

// Extractor turns PDF bytes into text. Errors wrap pdftext.ErrExtraction.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Writer persists artifacts into a fresh directory.
type Writer interface {
	Write(base string, seq int, suffix string, artifacts []emit.Artifact) (output.Result, error)
}

// Options controls how papers are turned into artifacts.
type Options struct {
	Budget    chunk.Budget
	Templates []prompts.Template
	Normalize normalize.Options
	// Summarize names the template sent to the LLM for every chunk; empty disables it.
	Summarize string
	Workers   int
	Pattern   string
	Now       func() time.Time
}

// OptionsFromConfig maps resolved configuration onto pipeline options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	templates, err := cfg.ResolveTemplates()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Budget:    cfg.Budget,
		Templates: templates,
		Normalize: normalize.Options{LiteralOrder: cfg.LiteralNormalize},
		Summarize: cfg.LLM.Summarize,
		Workers:   cfg.Workers,
		Pattern:   cfg.Pattern,
	}, nil
}

// Processor runs papers through the pipeline. It is safe for concurrent use
// as long as its collaborators are.
type Processor struct {
	fetcher   Fetcher
	extractor Extractor
	writer    Writer
	llm       llm.Client
	log       logging.Logger
	opts      Options
}

// New builds a Processor. A nil logger discards output.
func New(f Fetcher, e Extractor, w Writer, opts Options, log logging.Logger) *Processor {
	if log == nil {
		log = logging.Discard()
	}
	if len(opts.Templates) == 0 {
		opts.Templates = prompts.Builtin()
	}
	if opts.Budget == (chunk.Budget{}) {
		opts.Budget = chunk.DefaultBudget()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{fetcher: f, extractor: e, writer: w, log: log, opts: opts}
}

// WithLLM enables dispatch of the Summarize template to client.
func (p *Processor) WithLLM(client llm.Client) *Processor {
	p.llm = client
	return p
}

// Outcome describes a processed paper.
type Outcome struct {
	Title  string
	Origin paper.Origin
	Mode   config.Mode
	Chars  int
	Chunks []chunk.Chunk
	Output output.Result
	// Summary is the path of the LLM response file, if one was written.
	Summary string
}

// Record converts the outcome into a ledger entry.
func (o Outcome) Record() ledger.Paper {
	return ledger.Paper{
		Source:  o.Origin.Source,
		Title:   o.Title,
		Status:  ledger.StatusSuccess,
		Mode:    string(o.Mode),
		Dir:     o.Output.Dir,
		Index:   o.Output.Index,
		Chunks:  len(o.Chunks),
		Chars:   o.Chars,
		Summary: o.Summary,
	}
}

// Process handles a single paper. An unset mode means chunked.
func (p *Processor) Process(ctx context.Context, src string, mode config.Mode) (Outcome, error) {
	return p.process(ctx, src, 0, mode.OrDefault(config.ModeChunked))
}

func (p *Processor) process(ctx context.Context, src string, seq int, mode config.Mode) (Outcome, error) {
	log := p.log.With("source", src)

	log.Debug("fetching")
	doc, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch %s: %w", src, err)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	log.Debug("extracting", "bytes", len(doc.Data), "mime", doc.MIME)
	raw, err := p.extractor.Extract(doc.Data)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract %s: %w", src, err)
	}

	text := normalize.CleanWith(raw, p.opts.Normalize)
	if text == "" {
		return Outcome{}, fmt.Errorf("extract %s: %w: no text left after cleaning", src, pdftext.ErrExtraction)
	}
	title := doc.Title
	if title == "" {
		title = paper.Title(raw)
	}
	out := Outcome{Title: title, Origin: doc.Origin, Chars: chunk.Size(text)}
	meta := emit.Metadata{Title: title, Origin: doc.Origin, GeneratedAt: p.opts.Now()}

	out.Mode = p.pickMode(mode, text)
	if mode == config.ModeCombined && out.Mode != config.ModeCombined {
		log.Warn("paper exceeds the hard ceiling, writing chunks instead of combined prompts",
			"chars", out.Chars, "ceiling", p.opts.Budget.CeilingChars())
	}

	var artifacts []emit.Artifact
	suffix := output.SuffixChunks
	if out.Mode == config.ModeCombined {
		suffix = output.SuffixCombined
		artifacts = emit.Combined(text, p.opts.Templates, meta)
		out.Chunks = []chunk.Chunk{{Index: 1, Text: text}}
	} else {
		out.Chunks = chunk.Sequence(text, p.opts.Budget.TargetChars)
		artifacts = emit.Chunked(out.Chunks, p.opts.Templates, meta)
	}
	log.Info("split paper", "title", title, "chars", out.Chars, "chunks", len(out.Chunks), "mode", out.Mode)

	summary, err := p.summarize(ctx, out.Chunks, meta)
	if err != nil {
		log.Warn("llm dispatch failed", "err", err)
	} else if summary != nil {
		artifacts = append(artifacts, *summary)
	}

	res, err := p.writer.Write(doc.Origin.BaseName(), seq, suffix, artifacts)
	if err != nil {
		return Outcome{}, fmt.Errorf("write %s: %w", src, err)
	}
	out.Output = res
	if summary != nil {
		for _, f := range res.Files {
			if filepath.Base(f) == summary.Name {
				out.Summary = f
			}
		}
	}
	log.Info("wrote artifacts", "dir", res.Dir, "files", len(res.Files))
	return out, nil
}

func (p *Processor) pickMode(mode config.Mode, text string) config.Mode {
	switch mode {
	case config.ModeChunked:
		return config.ModeChunked
	case config.ModeCombined, config.ModeAuto:
		if p.opts.Budget.Fits(text) {
			return config.ModeCombined
		}
		return config.ModeChunked
	default:
		return config.ModeChunked
	}
}
