// Package web crawls a single website breadth-first and extracts the text
// worth indexing from each page.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Yates-Labs/bayan/internal/rag"
)

// Text tags prepended to extracted nodes.
const (
	TagTitle = "[TITLE] "
	TagDesc  = "[DESC] "
	TagTable = "[TABLE] "
)

// DefaultUserAgent identifies the crawler to the site.
const DefaultUserAgent = "DataSaudiChatbot/1.0 (https://datasaudi.sa; mailto:admin@example.com)"

var ErrInvalidStartURL = errors.New("invalid start URL")

// Config controls a crawl.
type Config struct {
	StartURL          string
	MaxPages          int
	Timeout           time.Duration // per request
	RequestsPerSecond float64       // 0 disables throttling
	UserAgent         string
	MinTextLength     int // text nodes must be longer than this, in characters
}

// DefaultConfig returns the production crawl settings.
func DefaultConfig() Config {
	return Config{
		StartURL:          "https://datasaudi.sa/en/",
		MaxPages:          20,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 2,
		UserAgent:         DefaultUserAgent,
		MinTextLength:     25,
	}
}

// Result is the output of a crawl.
type Result struct {
	Records         []rag.Record
	PagesCrawled    int
	PagesFailed     int
	BudgetExhausted bool
}

// Crawler fetches one page at a time.
type Crawler struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Crawler. Zero config fields take their defaults.
func New(config Config, logger *zap.Logger) *Crawler {
	def := DefaultConfig()
	if config.StartURL == "" {
		config.StartURL = def.StartURL
	}
	if config.MaxPages <= 0 {
		config.MaxPages = def.MaxPages
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.MinTextLength <= 0 {
		config.MinTextLength = def.MinTextLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Crawler{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// Crawl walks the start URL's host breadth-first until the frontier is empty
// or MaxPages pages have been tried. Page failures are logged and skipped;
// only an invalid start URL or cancellation returns an error.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	start, err := url.Parse(c.config.StartURL)
	if err != nil || start.Host == "" || (start.Scheme != "http" && start.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, c.config.StartURL)
	}
	start.Fragment = ""
	host := start.Host

	frontier := []string{start.String()}
	visited := map[string]struct{}{start.String(): {}}
	result := &Result{}
	tried := 0

	for len(frontier) > 0 && tried < c.config.MaxPages {
		if err := c.limiter.Wait(ctx); err != nil {
			return result, err
		}

		pageURL := frontier[0]
		frontier = frontier[1:]
		tried++
		c.logger.Info("scraping page",
			zap.Int("page", tried), zap.Int("budget", c.config.MaxPages), zap.String("url", pageURL))

		doc, err := c.fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.logger.Error("page fetch failed, skipping", zap.String("url", pageURL), zap.Error(err))
			result.PagesFailed++
			continue
		}
		result.PagesCrawled++

		for _, text := range ExtractTexts(doc, c.config.MinTextLength) {
			result.Records = append(result.Records, rag.Record{Source: pageURL, Text: text})
		}

		for _, link := range ExtractLinks(doc, pageURL, host) {
			if _, seen := visited[link]; seen {
				continue
			}
			visited[link] = struct{}{}
			frontier = append(frontier, link)
		}
	}

	if tried >= c.config.MaxPages {
		result.BudgetExhausted = true
		c.logger.Warn("page budget exhausted",
			zap.Int("budget", c.config.MaxPages), zap.Int("frontier_left", len(frontier)))
	}

	c.logger.Info("crawl finished",
		zap.Int("pages", result.PagesCrawled),
		zap.Int("failed", result.PagesFailed),
		zap.Int("records", len(result.Records)))
	return result, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ExtractTexts returns the tagged title, description, content nodes longer
// than minLen characters, and one line per table row.
func ExtractTexts(doc *goquery.Document, minLen int) []string {
	var texts []string

	if title := normalize(doc.Find("title").First().Text()); title != "" {
		texts = append(texts, TagTitle+title)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc = normalize(desc); desc != "" {
			texts = append(texts, TagDesc+desc)
		}
	}

	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := normalize(s.Text())
		if utf8.RuneCountInString(text) > minLen {
			texts = append(texts, text)
		}
	})

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				if text := normalize(cell.Text()); text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				texts = append(texts, TagTable+strings.Join(cells, " | "))
			}
		})
	})

	return texts
}

// ExtractLinks returns canonical http(s) links on host, in document order.
func ExtractLinks(doc *goquery.Document, pageURL, host string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := Canonicalize(base, href)
		if !ok {
			return
		}
		u, _ := url.Parse(link)
		if u.Host == host {
			links = append(links, link)
		}
	})
	return links
}

// Canonicalize resolves href against base and strips the fragment. Scheme,
// host, path and query are kept as they are.
func Canonicalize(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
