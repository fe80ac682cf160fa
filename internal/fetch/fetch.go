// Package fetch retrieves story listings and story text from remote
// indexes through pluggable source adapters.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

const maxBodyBytes = 5 * 1024 * 1024

// Client fetches pages over HTTP and hands the parsed documents to an
// adapter.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewClient(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchPage retrieves one listing page of a source and returns the story
// summaries on it. ErrNotFound passes through from the adapter.
func (c *Client) FetchPage(ctx context.Context, a Adapter, page int) ([]*library.Story, error) {
	pageURL, err := a.PageURL(page)
	if err != nil {
		return nil, err
	}

	doc, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d of %s: %w", page, a.Name(), err)
	}

	stories, err := a.ParseSummaries(doc)
	if err != nil {
		return nil, fmt.Errorf("parse page %d of %s: %w", page, a.Name(), err)
	}
	c.logger.Debug("fetched listing page", "source", a.Name(), "page", page, "stories", len(stories))
	return stories, nil
}

// StoryText retrieves a story's own page and extracts its readable text.
func (c *Client) StoryText(ctx context.Context, story *library.Story) (string, error) {
	if story.URL == "" {
		return "", fmt.Errorf("story %s has no URL", story.ID)
	}
	doc, err := c.get(ctx, story.URL)
	if err != nil {
		return "", fmt.Errorf("fetch story %s: %w", story.ID, err)
	}
	text := extractText(doc)
	if text == "" {
		return "", fmt.Errorf("no text content at %s", story.URL)
	}
	return text, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*html.Node, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return doc, nil
}

// extractText returns the readable text of a document, skipping the
// usual non-content elements.
func extractText(doc *html.Node) string {
	skipTags := map[string]bool{
		"script": true, "style": true, "nav": true,
		"header": true, "footer": true, "aside": true,
		"noscript": true, "iframe": true,
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br":
				sb.WriteString("\n")
			}
		}
	}
	walk(doc)

	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
