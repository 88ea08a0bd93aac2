package news

// FetchedVia tells which stage produced a record.
type FetchedVia string

const (
	ViaAPI    FetchedVia = "api"
	ViaFeed   FetchedVia = "feed"
	ViaScrape FetchedVia = "scrape"
)

// Item is a single headline collected by the cascade. URL is the identity key.
type Item struct {
	Source      string     `json:"source,omitempty"`
	Title       string     `json:"title,omitempty"`
	URL         string     `json:"url,omitempty"`
	PublishedAt string     `json:"publishedAt,omitempty"`
	FetchedVia  FetchedVia `json:"fetched_via"`
}

// Dedupe keeps the first occurrence of every non-empty URL, preserving input order.
// Items without a URL are dropped.
func Dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))

	for _, it := range items {
		if it.URL == "" {
			continue
		}
		if _, dup := seen[it.URL]; dup {
			continue
		}
		seen[it.URL] = struct{}{}
		out = append(out, it)
	}

	return out
}
