package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const defaultArxivAPI = "https://export.arxiv.org/api/query"

var extraneousWhitespace = regexp.MustCompile(`\s+`)

type apiFeed struct {
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
}

// arxivTitle asks the arXiv API for the title of id.
func (f *Fetcher) arxivTitle(ctx context.Context, id string) (string, error) {
	endpoint := f.arxivAPI + "?id_list=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("arxiv API error: %s (%s)", resp.Status, string(body))
	}
	entry, err := decodeEntry(resp.Body)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", errors.New("paper not found")
	}
	title := normalizeWhitespace(entry.Title)
	if title == "" || strings.EqualFold(title, "error") {
		return "", errors.New("paper not found")
	}
	return title, nil
}

func decodeEntry(reader io.Reader) (*apiEntry, error) {
	var feed apiFeed
	if err := xml.NewDecoder(reader).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode arxiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	return &feed.Entries[0], nil
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
