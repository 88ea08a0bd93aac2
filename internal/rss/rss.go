package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
	"github.com/deusflow/datatools/internal/news"
)

// Fetcher reads a fixed list of syndication feeds.
type Fetcher struct {
	parser     *gofeed.Parser
	feeds      []string
	maxEntries int
}

// NewFetcher builds a feed fetcher. maxEntries caps items taken per feed and
// never exceeds config.MaxFeedEntries.
func NewFetcher(feeds []string, maxEntries int, timeout time.Duration) *Fetcher {
	if maxEntries <= 0 || maxEntries > config.MaxFeedEntries {
		maxEntries = config.MaxFeedEntries
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &Fetcher{
		parser:     parser,
		feeds:      feeds,
		maxEntries: maxEntries,
	}
}

func (f *Fetcher) Name() string {
	return "rss"
}

// Fetch parses every feed independently. A failing feed is logged and skipped;
// the returned error joins all per-feed failures and is nil when every feed parsed.
func (f *Fetcher) Fetch(ctx context.Context) ([]news.Item, error) {
	var allItems []news.Item
	var errs []error
	successCount := 0

	for _, url := range f.feeds {
		items, err := f.fetchFeed(ctx, url)
		if err != nil {
			logger.Warn("RSS feed failed", "feed", url, "error", err)
			metrics.Global.IncrementFeedFailures()
			errs = append(errs, fmt.Errorf("feed %s: %w", url, err))
			continue
		}
		allItems = append(allItems, items...)
		successCount++
		logger.Info("RSS feed loaded", "feed", url, "items", len(items))
	}

	logger.Info("Processed RSS feeds", "ok", successCount, "total", len(f.feeds))
	return allItems, errors.Join(errs...)
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]news.Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	entries := feed.Items
	if len(entries) > f.maxEntries {
		entries = entries[:f.maxEntries]
	}

	items := make([]news.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, news.Item{
			Source:      feed.Title,
			Title:       e.Title,
			URL:         e.Link,
			PublishedAt: e.Published,
			FetchedVia:  news.ViaFeed,
		})
	}
	return items, nil
}
