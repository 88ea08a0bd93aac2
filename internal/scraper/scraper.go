package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
	"github.com/deusflow/datatools/internal/news"
)

const maxPageBytes = 8 << 20

// EnrichedItem is the result of fetching one linked page. Error is set
// instead of Title/TextSnippet when the page could not be fetched or parsed.
type EnrichedItem struct {
	Title       string
	URL         string
	TextSnippet string
	Error       string
	FetchedVia  news.FetchedVia
}

type enrichedOK struct {
	Title       string          `json:"title,omitempty"`
	URL         string          `json:"url"`
	TextSnippet string          `json:"text_snippet"`
	FetchedVia  news.FetchedVia `json:"fetched_via"`
}

type enrichedErr struct {
	URL        string          `json:"url"`
	Error      string          `json:"error"`
	FetchedVia news.FetchedVia `json:"fetched_via"`
}

// MarshalJSON writes either the success or the error record shape.
func (e EnrichedItem) MarshalJSON() ([]byte, error) {
	if e.Error != "" {
		return json.Marshal(enrichedErr{URL: e.URL, Error: e.Error, FetchedVia: e.FetchedVia})
	}
	return json.Marshal(enrichedOK{Title: e.Title, URL: e.URL, TextSnippet: e.TextSnippet, FetchedVia: e.FetchedVia})
}

// Enricher fetches linked pages one after another.
type Enricher struct {
	client      *http.Client
	userAgent   string
	maxArticles int
	paragraphs  int
	maxChars    int
}

// NewEnricher caps the page count at config.MaxScrapeArticles.
func NewEnricher(cfg config.NewsConfig) *Enricher {
	maxArticles := cfg.ScrapeMaxArticles
	if maxArticles <= 0 || maxArticles > config.MaxScrapeArticles {
		maxArticles = config.MaxScrapeArticles
	}
	return &Enricher{
		client:      &http.Client{Timeout: cfg.ScrapeTimeout},
		userAgent:   cfg.ScrapeUserAgent,
		maxArticles: maxArticles,
		paragraphs:  cfg.ScrapeParagraphs,
		maxChars:    cfg.SnippetMaxChars,
	}
}

// Enrich scrapes the first maxArticles items that have a URL. A failing page
// becomes an error record; the batch always completes.
func (e *Enricher) Enrich(ctx context.Context, items []news.Item) []EnrichedItem {
	var out []EnrichedItem

	for _, it := range items {
		if len(out) >= e.maxArticles {
			break
		}
		if it.URL == "" {
			continue
		}
		if ctx.Err() != nil {
			logger.Warn("Enrichment interrupted", "done", len(out))
			break
		}

		logger.Debug("Scraping page", "n", len(out)+1, "url", it.URL)
		out = append(out, e.scrape(ctx, it.URL))
	}

	return out
}

func (e *Enricher) scrape(ctx context.Context, url string) EnrichedItem {
	start := time.Now()

	title, text, err := e.extractPage(ctx, url)
	if err != nil {
		logger.Warn("Can't get page content", "url", url, "error", err)
		metrics.Global.IncrementEnrichFailures()
		return EnrichedItem{URL: url, Error: err.Error(), FetchedVia: news.ViaScrape}
	}

	metrics.Global.IncrementPagesEnriched()
	logger.Debug("Got page content", "url", url, "chars", utf8.RuneCountInString(text), "took", time.Since(start))
	return EnrichedItem{
		Title:       title,
		URL:         url,
		TextSnippet: truncateRunes(text, e.maxChars),
		FetchedVia:  news.ViaScrape,
	}
}

// extractPage loads a page and returns its <title> and the text of the first paragraphs.
func (e *Enricher) extractPage(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("bad url: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", "", fmt.Errorf("error parsing HTML: %w", err)
	}

	return extractTitle(doc), extractParagraphs(doc, e.paragraphs), nil
}

func extractTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractParagraphs joins the text of the first n <p> elements with single spaces.
func extractParagraphs(doc *goquery.Document, n int) string {
	var parts []string
	doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= n {
			return false
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	return strings.Join(parts, " ")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
