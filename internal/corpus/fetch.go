package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Fetcher loads the documentation bundle from a local file path or an
// HTTP(S) URL. HTML sources are reduced to their main textual content before
// splitting; plain-text sources pass through unchanged.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher with a default HTTP client.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 2 * time.Minute},
		logger: logger.With("component", "fetcher"),
	}
}

// Fetch returns the documentation bundle text for the given source. A source
// beginning with http:// or https:// is downloaded; anything else is read
// from the filesystem. Failure to obtain the source is fatal to the run and
// is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.fetchURL(ctx, source)
	}
	return f.readFile(source)
}

func (f *Fetcher) fetchURL(ctx context.Context, rawURL string) (string, error) {
	f.logger.Info("fetching documentation bundle", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status code %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return f.extractText(string(body), rawURL)
	}
	return string(body), nil
}

func (f *Fetcher) readFile(path string) (string, error) {
	f.logger.Info("reading documentation bundle", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source document %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return f.extractText(string(data), "file://"+path)
	default:
		return string(data), nil
	}
}

// extractText reduces an HTML page to its main textual content. A goquery
// pre-pass strips navigation chrome the readability heuristics sometimes
// keep, then go-readability extracts the article text.
func (f *Fetcher) extractText(html, sourceURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML from %s: %w", sourceURL, err)
	}
	doc.Find("nav, script, style, header, footer, aside").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to re-render HTML from %s: %w", sourceURL, err)
	}

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse source URL %s: %w", sourceURL, err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(cleaned), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract readable content from %s: %w", sourceURL, err)
	}

	f.logger.Debug("extracted text from HTML source",
		"source", sourceURL,
		"title", article.Title,
		"text_length", len(article.TextContent))

	return article.TextContent, nil
}
