package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultWikiBaseURL = "https://en.wikipedia.org"
	wikiTimeout        = 5 * time.Second
)

// WikiClient looks up topic summaries on Wikipedia.
type WikiClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWikiClient creates a client against the public English Wikipedia.
func NewWikiClient() *WikiClient {
	return &WikiClient{
		baseURL: defaultWikiBaseURL,
		httpClient: &http.Client{
			Timeout: wikiTimeout,
		},
	}
}

// NewWikiClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewWikiClientWithBaseURL(baseURL string) *WikiClient {
	c := NewWikiClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Search returns the title of the best-matching article for the term,
// using the opensearch endpoint.
func (c *WikiClient) Search(ctx context.Context, term string) (string, error) {
	q := url.Values{
		"action": {"opensearch"},
		"search": {term},
		"limit":  {"1"},
		"format": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/w/api.php?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", term, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search %q: unexpected status %d", term, resp.StatusCode)
	}

	// Opensearch responds with [query, [titles], [descriptions], [urls]].
	var result []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}
	if len(result) < 2 {
		return "", fmt.Errorf("malformed search response for %q", term)
	}
	var titles []string
	if err := json.Unmarshal(result[1], &titles); err != nil {
		return "", fmt.Errorf("decoding titles: %w", err)
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("no article found for %q", term)
	}
	return titles[0], nil
}

// Summary returns the lead-section extract of the article with the given title.
func (c *WikiClient) Summary(ctx context.Context, title string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/rest_v1/page/summary/"+url.PathEscape(title), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching summary for %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary %q: unexpected status %d", title, resp.StatusCode)
	}

	var payload struct {
		Extract string `json:"extract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding summary: %w", err)
	}
	if payload.Extract == "" {
		return "", fmt.Errorf("empty summary for %q", title)
	}
	return payload.Extract, nil
}
