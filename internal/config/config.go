// Package config loads run settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/datatools/internal/logger"
)

// ErrMissingAPIKey is returned by ValidateEmbed when the selected provider has no key.
var ErrMissingAPIKey = errors.New("embedding API key is not set")

// DefaultFeeds is used when no feeds file is present.
var DefaultFeeds = []string{
	"https://news.google.com/rss",
	"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
	"https://feeds.bbci.co.uk/news/rss.xml",
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Upper bounds for the news tool; lower overrides are allowed.
const (
	MaxFeedEntries    = 20
	MaxScrapeArticles = 10
)

type Config struct {
	News     NewsConfig
	Embed    EmbedConfig
	Classify ClassifyConfig

	OutputDir string
	Debug     bool
}

type NewsConfig struct {
	// NewsAPI settings; an empty key disables the API stage
	APIKey     string
	APIURL     string
	APIQuery   string
	PageSize   int
	APITimeout time.Duration

	// RSS settings
	FeedsConfigPath string
	Feeds           []string
	FeedTimeout     time.Duration
	FeedMaxEntries  int

	// Scraper settings
	ScrapeMaxArticles int
	ScrapeTimeout     time.Duration
	ScrapeParagraphs  int
	SnippetMaxChars   int
	ScrapeUserAgent   string
}

type EmbedConfig struct {
	Provider      string // openai | gemini
	OpenAIKey     string
	GeminiKey     string
	Model         string
	ChunkChars    int
	BatchSize     int
	RPM           int // requests per minute, 0 = unlimited
	MaxRequests   int // per run, 0 = unlimited
	RetryAttempts int
	RetryDelay    time.Duration
}

type ClassifyConfig struct {
	MaxBytes int64
}

// FeedsConfig is the YAML feeds file structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

func Load() (*Config, error) {
	// .env is optional, real environment wins
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to read .env", "error", err)
	}

	cfg := &Config{
		News: NewsConfig{
			APIURL:            "https://newsapi.org",
			PageSize:          50,
			APITimeout:        15 * time.Second,
			FeedsConfigPath:   "configs/feeds.yaml",
			FeedTimeout:       15 * time.Second,
			FeedMaxEntries:    20,
			ScrapeMaxArticles: 10,
			ScrapeTimeout:     10 * time.Second,
			ScrapeParagraphs:  10,
			SnippetMaxChars:   1000,
			ScrapeUserAgent:   "Mozilla/5.0",
		},
		Embed: EmbedConfig{
			Provider:      ProviderOpenAI,
			ChunkChars:    3000,
			BatchSize:     16,
			RPM:           60,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
		},
		Classify: ClassifyConfig{
			MaxBytes: 10 * 1024 * 1024,
		},
		OutputDir: "data",
	}

	cfg.News.APIKey = os.Getenv("NEWSAPI_KEY")
	cfg.News.APIURL = getEnvOrDefault("NEWSAPI_URL", cfg.News.APIURL)
	cfg.News.APIQuery = os.Getenv("NEWSAPI_QUERY")
	cfg.News.PageSize = getEnvIntOrDefault("NEWSAPI_PAGE_SIZE", cfg.News.PageSize)
	cfg.News.APITimeout = getEnvDurationOrDefault("API_TIMEOUT", cfg.News.APITimeout)
	cfg.News.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.News.FeedsConfigPath)
	cfg.News.FeedTimeout = getEnvDurationOrDefault("FEED_TIMEOUT", cfg.News.FeedTimeout)
	cfg.News.FeedMaxEntries = getEnvIntOrDefault("FEED_MAX_ENTRIES", cfg.News.FeedMaxEntries)
	cfg.News.ScrapeMaxArticles = getEnvIntOrDefault("SCRAPE_MAX_ARTICLES", cfg.News.ScrapeMaxArticles)
	cfg.News.ScrapeTimeout = getEnvDurationOrDefault("SCRAPE_TIMEOUT", cfg.News.ScrapeTimeout)
	cfg.News.ScrapeUserAgent = getEnvOrDefault("SCRAPE_USER_AGENT", cfg.News.ScrapeUserAgent)

	feeds, err := LoadFeeds(cfg.News.FeedsConfigPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg.News.Feeds = DefaultFeeds
	case err != nil:
		return cfg, fmt.Errorf("failed to load feeds from %s: %w", cfg.News.FeedsConfigPath, err)
	case len(feeds) == 0:
		cfg.News.Feeds = DefaultFeeds
	default:
		cfg.News.Feeds = feeds
	}

	cfg.Embed.Provider = strings.ToLower(getEnvOrDefault("EMBED_PROVIDER", cfg.Embed.Provider))
	cfg.Embed.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Embed.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.Embed.Model = os.Getenv("EMBED_MODEL")
	cfg.Embed.ChunkChars = getEnvIntOrDefault("EMBED_CHUNK_CHARS", cfg.Embed.ChunkChars)
	cfg.Embed.BatchSize = getEnvIntOrDefault("EMBED_BATCH_SIZE", cfg.Embed.BatchSize)
	cfg.Embed.RPM = getEnvIntOrDefault("EMBED_RPM", cfg.Embed.RPM)
	cfg.Embed.MaxRequests = getEnvIntOrDefault("EMBED_MAX_REQUESTS", cfg.Embed.MaxRequests)
	cfg.Embed.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.Embed.RetryAttempts)
	cfg.Embed.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.Embed.RetryDelay)

	if v := os.Getenv("CLASSIFY_MAX_BYTES"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil && val > 0 {
			cfg.Classify.MaxBytes = val
		}
	}

	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// LoadFeeds reads the RSS feeds list from a YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fc FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return nil, err
	}
	return fc.Feeds, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// Validate checks settings shared by all tools. Credentials are not required here:
// a missing NewsAPI key only disables the API stage.
func (c *Config) Validate() error {
	if c.News.PageSize <= 0 {
		return fmt.Errorf("NEWSAPI_PAGE_SIZE must be positive")
	}
	if c.News.FeedMaxEntries < 1 || c.News.FeedMaxEntries > MaxFeedEntries {
		return fmt.Errorf("FEED_MAX_ENTRIES must be between 1 and %d", MaxFeedEntries)
	}
	if c.News.ScrapeMaxArticles < 1 || c.News.ScrapeMaxArticles > MaxScrapeArticles {
		return fmt.Errorf("SCRAPE_MAX_ARTICLES must be between 1 and %d", MaxScrapeArticles)
	}
	if c.Embed.ChunkChars <= 0 {
		return fmt.Errorf("EMBED_CHUNK_CHARS must be positive")
	}
	if c.Embed.BatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive")
	}
	if c.Embed.Provider != ProviderOpenAI && c.Embed.Provider != ProviderGemini {
		return fmt.Errorf("EMBED_PROVIDER must be '%s' or '%s'", ProviderOpenAI, ProviderGemini)
	}
	return nil
}

// ValidateEmbed fails when the selected embedding provider has no API key.
func (c *Config) ValidateEmbed() error {
	switch c.Embed.Provider {
	case ProviderOpenAI:
		if c.Embed.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY: %w", ErrMissingAPIKey)
		}
	case ProviderGemini:
		if c.Embed.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
		}
	}
	return nil
}
