// Package source resolves a paper reference (local path, URL or arXiv
// identifier) into the raw bytes of its PDF.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/csheth/paperchunk/internal/paper"
)

const (
	// DefaultHTTPTimeout bounds a single download.
	DefaultHTTPTimeout = 90 * time.Second
	// DefaultUserAgent mimics a desktop browser; some publishers refuse bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	arxivPDFFormat = "https://arxiv.org/pdf/%s.pdf"
	mimePDF        = "application/pdf"
	mimeHTML       = "text/html"
)

// ErrUnreachable wraps every failure to obtain a source's bytes.
var ErrUnreachable = errors.New("source unreachable")

var (
	arxivURLRegexp = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([0-9a-z.\-/]+?)(?:\.pdf)?(?:[?#].*)?$`)
	arxivNewStyle  = regexp.MustCompile(`^\d{4}\.\d{4,5}(?:v\d+)?$`)
	arxivOldStyle  = regexp.MustCompile(`^[a-z\-]+(?:\.[A-Za-z]{2})?/\d{7}(?:v\d+)?$`)
)

// Document is a fetched source.
type Document struct {
	Origin paper.Origin
	// Location is the resolved path or URL the bytes were read from.
	Location string
	ArxivID  string
	// Title is filled from arXiv metadata when available.
	Title string
	Data  []byte
	MIME  string
}

// Options configures a Fetcher. Zero values pick sensible defaults.
type Options struct {
	CacheDir   string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	// Metadata enables the arXiv API title lookup for arXiv sources.
	Metadata bool
	// ArxivAPI overrides the arXiv query endpoint.
	ArxivAPI string
}

// Fetcher loads papers from disk or the network. Downloads go through an
// on-disk cache shared by all calls.
type Fetcher struct {
	cache    *downloadCache
	client   *http.Client
	metadata bool
	arxivAPI string
}

// New builds a Fetcher.
func New(opts Options) (*Fetcher, error) {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	cache, err := newDownloadCache(opts.CacheDir, client, userAgent)
	if err != nil {
		return nil, fmt.Errorf("prepare download cache: %w", err)
	}
	api := opts.ArxivAPI
	if api == "" {
		api = defaultArxivAPI
	}
	return &Fetcher{cache: cache, client: client, metadata: opts.Metadata, arxivAPI: api}, nil
}

// Target is where a source reference points.
type Target struct {
	Kind     paper.Kind
	Location string
	ArxivID  string
}

// Resolve decides how source should be loaded. Existing paths win; then
// http(s) URLs (arXiv pages are rewritten to their PDF); then bare arXiv
// identifiers; then anything that looks like a file name.
func Resolve(source string) (Target, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Target{}, fmt.Errorf("%w: empty source", ErrUnreachable)
	}
	if _, err := os.Stat(source); err == nil {
		return Target{Kind: paper.KindLocal, Location: source}, nil
	}
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if id := ArxivID(source); id != "" {
			return Target{Kind: paper.KindURL, Location: fmt.Sprintf(arxivPDFFormat, id), ArxivID: id}, nil
		}
		return Target{Kind: paper.KindURL, Location: source}, nil
	}
	if id := ArxivID(source); id != "" {
		return Target{Kind: paper.KindURL, Location: fmt.Sprintf(arxivPDFFormat, id), ArxivID: id}, nil
	}
	if paper.IsLocal(source) {
		return Target{Kind: paper.KindLocal, Location: source}, nil
	}
	return Target{}, fmt.Errorf("%w: %q is not a file, URL or arXiv identifier", ErrUnreachable, source)
}

// ArxivID extracts an arXiv identifier from an arxiv.org URL, an "arXiv:"
// prefixed reference or a bare identifier such as 2101.00001v2.
func ArxivID(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if m := arxivURLRegexp.FindStringSubmatch(input); len(m) > 1 {
		return m[1]
	}
	if len(input) > len("arxiv:") && strings.EqualFold(input[:len("arxiv:")], "arxiv:") {
		input = strings.TrimSpace(input[len("arxiv:"):])
	}
	input = strings.TrimSuffix(input, ".pdf")
	if arxivNewStyle.MatchString(input) || arxivOldStyle.MatchString(input) {
		return input
	}
	return ""
}

// Fetch loads the bytes behind source.
func (f *Fetcher) Fetch(ctx context.Context, source string) (Document, error) {
	target, err := Resolve(source)
	if err != nil {
		return Document{}, err
	}
	if target.Kind == paper.KindLocal {
		return readLocal(target.Location)
	}

	doc, err := f.fetchRemote(ctx, target.Location, true)
	if err != nil {
		return Document{}, err
	}
	doc.Origin = paper.Origin{Source: source, Kind: paper.KindURL, Display: source}
	doc.ArxivID = target.ArxivID
	if f.metadata && target.ArxivID != "" {
		if title, err := f.arxivTitle(ctx, target.ArxivID); err == nil {
			doc.Title = title
		}
	}
	return doc, nil
}

func readLocal(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: read %s: %w", ErrUnreachable, path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Document{
		Origin:   paper.Origin{Source: path, Kind: paper.KindLocal, Display: filepath.Base(path)},
		Location: abs,
		Data:     data,
		MIME:     mimetype.Detect(data).String(),
	}, nil
}

// fetchRemote downloads url. When the body is an HTML landing page and
// followLinks is set, the PDF it links to is fetched instead.
func (f *Fetcher) fetchRemote(ctx context.Context, url string, followLinks bool) (Document, error) {
	path, err := f.cache.Fetch(ctx, url)
	if err != nil {
		return Document{}, fmt.Errorf("%w: download %s: %w", ErrUnreachable, url, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: read cached %s: %w", ErrUnreachable, url, err)
	}
	mt := mimetype.Detect(data)
	if followLinks && !mt.Is(mimePDF) && mt.Is(mimeHTML) {
		link, err := pdfLink(data, f.cache.finalURL(url))
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: %w", ErrUnreachable, url, err)
		}
		return f.fetchRemote(ctx, link, false)
	}
	return Document{Location: url, Data: data, MIME: mt.String()}, nil
}
