// Package crawler turns a seed URL into a finite sequence of {url, text}
// pages: breadth-first over same-domain links, deduplicated by fragment-less
// URL, politeness-delayed, capped by page count and depth.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"
)

const (
	userAgent       = "sitechat-bot/1.0"
	fetchTimeout    = 10 * time.Second
	maxResponseSize = 2 << 20 // 2 MiB per page is plenty for text extraction
)

type Page struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type Crawler struct {
	client  *http.Client
	limiter *rate.Limiter
}

func New() *Crawler {
	return &Crawler{
		client: &http.Client{Timeout: fetchTimeout},
		// One fetch every 200ms keeps us polite to the crawled host.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

type frontierItem struct {
	url   string
	depth int
}

// Crawl walks same-domain links breadth-first from the seed, up to maxPages
// collected pages and maxDepth link hops. Individual fetch or parse failures
// skip the page rather than aborting the crawl.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, maxPages, maxDepth int) ([]Page, error) {
	seed, err := url.Parse(seedURL)
	if err != nil || seed.Host == "" {
		return nil, fmt.Errorf("invalid seed url %q", seedURL)
	}

	queue := []frontierItem{{url: stripFragment(seed), depth: 0}}
	seen := map[string]bool{queue[0].url: true}
	var pages []Page

	for len(queue) > 0 && len(pages) < maxPages {
		item := queue[0]
		queue = queue[1:]

		if err := c.limiter.Wait(ctx); err != nil {
			return pages, err
		}

		body, base, err := c.fetchHTML(ctx, item.url)
		if err != nil {
			log.Printf("Skipping %s: %v", item.url, err)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			log.Printf("Skipping %s: failed to parse html: %v", item.url, err)
			continue
		}

		pages = append(pages, Page{URL: item.url, Text: extractText(item.url, body, doc)})

		if item.depth >= maxDepth {
			continue
		}
		for _, link := range extractLinks(doc, base, seed.Host) {
			if !seen[link] {
				seen[link] = true
				queue = append(queue, frontierItem{url: link, depth: item.depth + 1})
			}
		}
	}
	return pages, nil
}

// fetchHTML downloads the page and returns its body plus the final URL after
// redirects, which is the base for resolving relative links. Non-HTML
// responses are rejected.
func (c *Crawler) fetchHTML(ctx context.Context, pageURL string) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", nil, fmt.Errorf("content type %q is not html", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return string(body), resp.Request.URL, nil
}

// extractText prefers readability's article extraction and falls back to the
// whole document with script/style/noscript stripped.
func extractText(pageURL, body string, doc *goquery.Document) string {
	if parsed, err := url.Parse(pageURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(body), parsed)
		if err == nil {
			if text := cleanText(article.TextContent); text != "" {
				return text
			}
		}
	}

	stripped := doc.Clone()
	stripped.Find("script, style, noscript").Remove()
	return cleanText(stripped.Text())
}

func extractLinks(doc *goquery.Document, base *url.URL, host string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if resolved.Host != host {
			return
		}
		links = append(links, stripFragment(resolved))
	})
	return links
}

func stripFragment(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	return clean.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
