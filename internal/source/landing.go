package source

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errNoPDFLink = errors.New("page does not link to a PDF")

// pdfLink finds the PDF a landing page points at. Scholarly publishers expose
// it through the citation_pdf_url meta tag; otherwise the first anchor whose
// path ends in .pdf is used. Relative links resolve against base.
func pdfLink(page []byte, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse landing page: %w", err)
	}

	var link string
	if content, ok := doc.Find(`meta[name="citation_pdf_url"]`).First().Attr("content"); ok {
		link = strings.TrimSpace(content)
	}
	if link == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if looksLikePDF(href) {
				link = strings.TrimSpace(href)
				return false
			}
			return true
		})
	}
	if link == "" {
		return "", errNoPDFLink
	}
	return absolute(base, link)
}

func looksLikePDF(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func absolute(base, ref string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", ref, err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
