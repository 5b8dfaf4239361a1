package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// ErrNoResults is returned by a Searcher when the query matched nothing.
var ErrNoResults = errors.New("no search results")

const googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// SearchResult is one hit from a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Searcher returns search results already formatted for a model prompt.
type Searcher interface {
	Search(ctx context.Context, query string, max int) (string, error)
}

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	APIKey   string
	CX       string
	Endpoint string
	Client   *http.Client
}

func NewGoogleSearcher(apiKey, cx string, timeout time.Duration) (*GoogleSearcher, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("google search requires an API key and cx")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleSearcher{
		APIKey:   apiKey,
		CX:       cx,
		Endpoint: googleSearchURL,
		Client:   &http.Client{Timeout: timeout},
	}, nil
}

func (g *GoogleSearcher) Search(ctx context.Context, query string, max int) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", g.APIKey)
	params.Set("cx", g.CX)
	params.Set("num", strconv.Itoa(max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Items []SearchResult `json:"items"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("search API error (status %d): %s", resp.StatusCode, body.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned status %d", resp.StatusCode)
	}
	if len(body.Items) == 0 {
		return "", ErrNoResults
	}
	if len(body.Items) > max {
		body.Items = body.Items[:max]
	}
	return FormatResults(body.Items), nil
}

// FormatResults renders results as numbered blocks for a model prompt.
func FormatResults(results []SearchResult) string {
	var sb strings.Builder
	for i, item := range results {
		fmt.Fprintf(&sb, "[Result %d]\nTitle: %s\nSnippet: %s\nURL: %s\n\n", i+1, item.Title, item.Snippet, item.Link)
	}
	return sb.String()
}

// DuckDuckGoSearcher needs no credentials and is the fallback provider.
type DuckDuckGoSearcher struct {
	client *duckduckgo.Tool
}

func NewDuckDuckGoSearcher(maxResults int) (*DuckDuckGoSearcher, error) {
	ddg, err := duckduckgo.New(maxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGoSearcher{client: ddg}, nil
}

func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string, max int) (string, error) {
	res, err := d.client.Call(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if strings.TrimSpace(res) == "" {
		return "", ErrNoResults
	}
	return res, nil
}

// SearchTool exposes a Searcher to the chat agent.
type SearchTool struct {
	Searcher   Searcher
	MaxResults int
}

func NewSearchTool(searcher Searcher, maxResults int) *SearchTool {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &SearchTool{Searcher: searcher, MaxResults: maxResults}
}

func (s *SearchTool) Name() string {
	return "search"
}

func (s *SearchTool) Description() string {
	return "Search the web for real-time information such as news, prices or future events."
}

func (s *SearchTool) Argument() Argument {
	return Argument{Name: "query", Description: "The search query to look up"}
}

func (s *SearchTool) Execute(ctx context.Context, input string) Result {
	query := strings.TrimSpace(input)
	if query == "" {
		return Fail(KindInvalidInput, "empty search query")
	}
	res, err := s.Searcher.Search(ctx, query, s.MaxResults)
	if errors.Is(err, ErrNoResults) {
		return OK(fmt.Sprintf("No search results found for %q.", query))
	}
	if err != nil {
		return Fail(KindTransport, "%v", err)
	}
	return OK(res)
}

// SearchAnswerTool searches and then asks the model for a concise answer
// grounded in the results.
type SearchAnswerTool struct {
	Search  *SearchTool
	Model   llms.Model
	Options []llms.CallOption
}

func NewSearchAnswerTool(search *SearchTool, model llms.Model, opts ...llms.CallOption) *SearchAnswerTool {
	return &SearchAnswerTool{Search: search, Model: model, Options: opts}
}

func (s *SearchAnswerTool) Name() string {
	return "search_answer"
}

func (s *SearchAnswerTool) Description() string {
	return "Search the web and answer the query from the results."
}

func (s *SearchAnswerTool) Argument() Argument {
	return s.Search.Argument()
}

func (s *SearchAnswerTool) Execute(ctx context.Context, input string) Result {
	found := s.Search.Execute(ctx, input)
	if found.Failed() {
		return found
	}
	prompt := fmt.Sprintf("You are a highly accurate assistant.\n"+
		"The user asked: %q\n\n"+
		"Here are search results:\n%s\n\n"+
		"Analyze these results and provide a concise and factual answer.\n"+
		"If unsure, say \"I could not find enough information\".", input, found.Output)
	out, err := llms.GenerateFromSinglePrompt(ctx, s.Model, prompt, s.Options...)
	if err != nil {
		return Fail(KindTransport, "model call failed: %v", err)
	}
	return OK(strings.TrimSpace(out))
}
