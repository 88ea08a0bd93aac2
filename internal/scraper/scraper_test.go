package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/news"
)

func testConfig() config.NewsConfig {
	return config.NewsConfig{
		ScrapeMaxArticles: 10,
		ScrapeTimeout:     5 * time.Second,
		ScrapeParagraphs:  10,
		SnippetMaxChars:   1000,
		ScrapeUserAgent:   "Mozilla/5.0",
	}
}

func TestEnrichExtractsTitleAndParagraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "Mozilla/5.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		var b strings.Builder
		b.WriteString("<html><head><title> Hello page </title></head><body>")
		for i := 1; i <= 12; i++ {
			fmt.Fprintf(&b, "<p>para %d</p>", i)
		}
		b.WriteString("</body></html>")
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	out := NewEnricher(testConfig()).Enrich(context.Background(), []news.Item{{URL: srv.URL + "/article"}})
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	got := out[0]
	if got.Error != "" {
		t.Fatalf("unexpected error record: %+v", got)
	}
	if got.Title != "Hello page" {
		t.Errorf("Title = %q", got.Title)
	}
	if !strings.HasPrefix(got.TextSnippet, "para 1 para 2") || !strings.HasSuffix(got.TextSnippet, "para 10") {
		t.Errorf("TextSnippet = %q, want first 10 paragraphs", got.TextSnippet)
	}
	if got.FetchedVia != news.ViaScrape {
		t.Errorf("FetchedVia = %q", got.FetchedVia)
	}
}

func TestEnrichTruncatesSnippet(t *testing.T) {
	long := strings.Repeat("ж", 700)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p><p>%s</p></body></html>", long, long)
	}))
	defer srv.Close()

	out := NewEnricher(testConfig()).Enrich(context.Background(), []news.Item{{URL: srv.URL}})
	if n := utf8.RuneCountInString(out[0].TextSnippet); n != 1000 {
		t.Fatalf("snippet has %d runes, want 1000", n)
	}
	if out[0].Title != "" {
		t.Errorf("Title = %q, want empty for page without <title>", out[0].Title)
	}
}

func TestEnrichRecordsErrorsAndContinues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<html><title>ok</title><p>fine</p></html>"))
	}))
	defer srv.Close()

	items := []news.Item{{URL: srv.URL + "/missing"}, {URL: srv.URL + "/ok"}}
	out := NewEnricher(testConfig()).Enrich(context.Background(), items)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].Error == "" || out[0].URL != srv.URL+"/missing" {
		t.Errorf("expected error record, got %+v", out[0])
	}
	if out[1].Error != "" || out[1].TextSnippet != "fine" {
		t.Errorf("second page should succeed, got %+v", out[1])
	}
}

func TestEnrichNeverExceedsLimit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<p>x</p>"))
	}))
	defer srv.Close()

	var items []news.Item
	items = append(items, news.Item{Title: "no url"})
	for i := 0; i < 25; i++ {
		items = append(items, news.Item{URL: fmt.Sprintf("%s/%d", srv.URL, i)})
	}

	out := NewEnricher(testConfig()).Enrich(context.Background(), items)
	if len(out) != 10 {
		t.Fatalf("got %d records, want 10", len(out))
	}
	if n := atomic.LoadInt32(&hits); n != 10 {
		t.Fatalf("server hit %d times, want 10", n)
	}
	if out[0].URL != srv.URL+"/0" {
		t.Errorf("items without url must be skipped, first = %s", out[0].URL)
	}
}

func TestEnrichedItemJSONShapes(t *testing.T) {
	ok, _ := json.Marshal(EnrichedItem{URL: "u", TextSnippet: "", FetchedVia: news.ViaScrape})
	if string(ok) != `{"url":"u","text_snippet":"","fetched_via":"scrape"}` {
		t.Errorf("success record = %s", ok)
	}

	failed, _ := json.Marshal(EnrichedItem{URL: "u", Error: "HTTP error: 404", FetchedVia: news.ViaScrape})
	if string(failed) != `{"url":"u","error":"HTTP error: 404","fetched_via":"scrape"}` {
		t.Errorf("error record = %s", failed)
	}
}

func TestNewEnricherClampsLimit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<p>x</p>"))
	}))
	defer srv.Close()

	var items []news.Item
	for i := 0; i < 25; i++ {
		items = append(items, news.Item{URL: fmt.Sprintf("%s/%d", srv.URL, i)})
	}

	for _, limit := range []int{0, 25} {
		atomic.StoreInt32(&hits, 0)
		cfg := testConfig()
		cfg.ScrapeMaxArticles = limit

		out := NewEnricher(cfg).Enrich(context.Background(), items)
		if len(out) != config.MaxScrapeArticles {
			t.Errorf("limit %d: got %d records, want %d", limit, len(out), config.MaxScrapeArticles)
		}
		if n := atomic.LoadInt32(&hits); n != int32(config.MaxScrapeArticles) {
			t.Errorf("limit %d: server hit %d times", limit, n)
		}
	}
}
