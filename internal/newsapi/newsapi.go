package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/news"
)

const (
	topHeadlinesPath = "/v2/top-headlines"
	maxResponseBytes = 4 << 20
)

// ErrNoCredential means the API stage was not attempted.
var ErrNoCredential = errors.New("newsapi: no API key configured")

// Client fetches top headlines from NewsAPI.
type Client struct {
	apiKey   string
	baseURL  string
	query    string
	pageSize int
	http     *http.Client
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

func NewClient(cfg config.NewsConfig) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.APIURL, "/"),
		query:    cfg.APIQuery,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.APITimeout},
	}
}

func (c *Client) Name() string {
	return "newsapi"
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Fetch issues one top-headlines request. Without a key it returns an empty
// result and no error, and sends nothing.
func (c *Client) Fetch(ctx context.Context) ([]news.Item, error) {
	if !c.Enabled() {
		logger.Debug("NewsAPI skipped", "reason", ErrNoCredential)
		return nil, nil
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("apiKey", c.apiKey)
	if c.query != "" {
		params.Set("q", c.query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+topHeadlinesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("newsapi: read body: %w", err)
	}

	var data response
	if resp.StatusCode != http.StatusOK {
		// NewsAPI returns {"status":"error","code":...,"message":...} on failures
		if json.Unmarshal(body, &data) == nil && data.Message != "" {
			return nil, fmt.Errorf("newsapi: HTTP %d: %s: %s", resp.StatusCode, data.Code, data.Message)
		}
		return nil, fmt.Errorf("newsapi: HTTP %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}

	items := make([]news.Item, 0, len(data.Articles))
	for _, a := range data.Articles {
		items = append(items, news.Item{
			Source:      a.Source.Name,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			FetchedVia:  news.ViaAPI,
		})
	}

	logger.Info("NewsAPI loaded", "items", len(items), "took", time.Since(start))
	return items, nil
}
