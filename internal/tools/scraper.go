package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// ScraperTool fetches a page and returns its readable text. Pages that fail
// to fetch or yield no text over plain HTTP are retried through the Renderer.
type ScraperTool struct {
	UserAgent string
	Client    *http.Client
	Renderer  Renderer
	MaxChars  int
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

func NewScraperTool(renderer Renderer) *ScraperTool {
	return &ScraperTool{
		UserAgent: browserUserAgent,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Renderer:  renderer,
		MaxChars:  maxDocumentChars,
	}
}

func (s *ScraperTool) Name() string {
	return "fetch_page"
}

func (s *ScraperTool) Description() string {
	return "Fetch a webpage URL and extract the main content as clean, sanitized text."
}

func (s *ScraperTool) Argument() Argument {
	return Argument{Name: "url", Description: "The full URL of the webpage (e.g., https://example.com/article)"}
}

func (s *ScraperTool) Execute(ctx context.Context, input string) Result {
	parsedURL, err := url.Parse(strings.TrimSpace(input))
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return Fail(KindInvalidInput, "invalid URL: %q", input)
	}

	html, fetchErr := s.fetch(ctx, parsedURL.String())
	if fetchErr == nil {
		if out, ok := s.extract(html, parsedURL); ok {
			return OK(out)
		}
	}

	if s.Renderer != nil {
		rendered, err := s.Renderer.Render(ctx, parsedURL.String())
		if err == nil {
			if out, ok := s.extract(rendered, parsedURL); ok {
				return OK(out)
			}
		} else if fetchErr == nil {
			fetchErr = err
		}
	}

	if fetchErr != nil {
		return Fail(KindTransport, "%v", fetchErr)
	}
	return OK(fmt.Sprintf("No readable content found at %s.", parsedURL))
}

func (s *ScraperTool) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %v", err)
	}
	return string(body), nil
}

func (s *ScraperTool) extract(html string, pageURL *url.URL) (string, bool) {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return "", false
	}

	// Strip any markup readability left behind.
	p := bluemonday.StrictPolicy()
	content := strings.TrimSpace(p.Sanitize(article.TextContent))
	if content == "" {
		return "", false
	}

	output := fmt.Sprintf("TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		output += fmt.Sprintf("EXCERPT: %s\n", article.Excerpt)
	}
	output += "\n-- CONTENT --\n"

	if t, cut := truncate(content, s.MaxChars); cut {
		content = t + "\n... (content truncated) ..."
	}
	return output + content, true
}
