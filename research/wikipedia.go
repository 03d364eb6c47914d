// Wikipedia research adapter.
//
// Uses the REST summary endpoint first, then the opensearch API to
// resolve fuzzy titles. Output is a citation-tagged evidence block the
// evidence gatherer can later re-split into source records.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWikipediaBase = "https://en.wikipedia.org"

	// articleCharLimit bounds how much article text a single topic may
	// contribute to a prompt.
	articleCharLimit = 4500
)

// WikipediaAdapter implements Adapter against the Wikipedia REST API.
type WikipediaAdapter struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewWikipediaAdapter creates an adapter against en.wikipedia.org.
func NewWikipediaAdapter(log *zap.SugaredLogger) *WikipediaAdapter {
	return NewWikipediaAdapterWithBase(defaultWikipediaBase, log)
}

// NewWikipediaAdapterWithBase creates an adapter against a custom base
// URL (used in tests).
func NewWikipediaAdapterWithBase(baseURL string, log *zap.SugaredLogger) *WikipediaAdapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &WikipediaAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Name identifies the source.
func (w *WikipediaAdapter) Name() string {
	return "Wikipedia"
}

// restSummary is the subset of the REST summary response we read.
type restSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup fetches a summary for the topic. Failures come back as bracketed
// strings; callers treat them as the evidence for this topic.
func (w *WikipediaAdapter) Lookup(ctx context.Context, topic string) string {
	query := CleanQuery(topic)
	if query == "" {
		return "[wikipedia] empty query"
	}

	summary, err := w.fetchSummary(ctx, query)
	if err != nil {
		// Direct title miss: resolve via opensearch and retry once.
		title, searchErr := w.openSearch(ctx, query)
		if searchErr != nil || title == "" {
			w.log.Debugw("wikipedia lookup failed", "topic", query, "error", err)
			return fmt.Sprintf("[wikipedia] no results for '%s'", query)
		}
		summary, err = w.fetchSummary(ctx, title)
		if err != nil {
			return fmt.Sprintf("[wikipedia] no results for '%s'", query)
		}
	}

	if summary.Extract == "" {
		return fmt.Sprintf("[wikipedia] no results for '%s'", query)
	}

	pageURL := summary.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = fmt.Sprintf("%s/wiki/%s", w.baseURL, url.PathEscape(strings.ReplaceAll(summary.Title, " ", "_")))
	}

	return fmt.Sprintf(
		"Wikipedia Article Used: %s\nURL: %s\n\nSummary:\n%s",
		summary.Title, pageURL, TruncateArticle(summary.Extract),
	)
}

// fetchSummary calls the REST summary endpoint for an exact title.
func (w *WikipediaAdapter) fetchSummary(ctx context.Context, title string) (restSummary, error) {
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s",
		w.baseURL, url.PathEscape(strings.ReplaceAll(title, " ", "_")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return restSummary{}, err
	}
	req.Header.Set("User-Agent", "chalkline/1.0 (lesson research)")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return restSummary{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return restSummary{}, fmt.Errorf("summary status %d", resp.StatusCode)
	}

	var summary restSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return restSummary{}, err
	}
	return summary, nil
}

// openSearch resolves a fuzzy query to the best matching article title.
func (w *WikipediaAdapter) openSearch(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":    {"opensearch"},
		"search":    {query},
		"limit":     {"1"},
		"namespace": {"0"},
		"format":    {"json"},
	}
	endpoint := fmt.Sprintf("%s/w/api.php?%s", w.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "chalkline/1.0 (lesson research)")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("opensearch status %d", resp.StatusCode)
	}

	// Opensearch returns [query, [titles], [descriptions], [urls]].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload) < 2 {
		return "", fmt.Errorf("malformed opensearch response")
	}

	var titles []string
	if err := json.Unmarshal(payload[1], &titles); err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}

// TruncateArticle bounds article text at articleCharLimit, preferring to
// cut at a line or sentence boundary rather than mid-sentence.
func TruncateArticle(text string) string {
	snippet := strings.TrimSpace(text)
	if len(snippet) <= articleCharLimit {
		return snippet
	}

	truncated := snippet[:articleCharLimit]
	lastBreak := strings.LastIndex(truncated, "\n")
	if dot := strings.LastIndex(truncated, "."); dot > lastBreak {
		lastBreak = dot
	}
	// Only honor the boundary if it still leaves a meaningful excerpt.
	if lastBreak > 2000 {
		truncated = truncated[:lastBreak]
	}
	return strings.TrimSpace(truncated) + "..."
}

// Verify WikipediaAdapter implements Adapter
var _ Adapter = (*WikipediaAdapter)(nil)
