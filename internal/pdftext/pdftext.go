// Package pdftext pulls plain text out of PDF bytes.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrExtraction wraps every failure to read text from a document.
	ErrExtraction = errors.New("pdf text extraction failed")
	// ErrEncrypted marks password-protected documents.
	ErrEncrypted = fmt.Errorf("%w: document is encrypted", ErrExtraction)
)

const mimePDF = "application/pdf"

// Extractor reads PDFs with github.com/ledongthuc/pdf.
type Extractor struct{}

// New returns an Extractor.
func New() Extractor { return Extractor{} }

// Extract returns the text of every page in order, each page followed by a
// newline. Pages without a content stream are skipped.
func (Extractor) Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrExtraction)
	}
	if mt := mimetype.Detect(data); !mt.Is(mimePDF) {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrExtraction, mimePDF, mt.String())
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed document: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", ErrEncrypted
		}
		return "", fmt.Errorf("%w: open: %w", ErrExtraction, err)
	}

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrExtraction, i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: no extractable text in %d pages", ErrExtraction, total)
	}
	return b.String(), nil
}
