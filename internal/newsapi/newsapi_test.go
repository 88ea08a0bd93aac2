package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/news"
)

func testConfig(baseURL, key string) config.NewsConfig {
	return config.NewsConfig{
		APIKey:     key,
		APIURL:     baseURL,
		PageSize:   50,
		APITimeout: 5 * time.Second,
	}
}

func TestFetchWithoutKeyIsSkipped(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL, ""))
	if c.Enabled() {
		t.Fatal("client without key should not be enabled")
	}

	items, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Fetch returned %d items, want 0", len(items))
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("no request must be sent without a key")
	}
}

func TestFetchMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/top-headlines" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apiKey") != "k" || q.Get("pageSize") != "50" || q.Get("q") != "go" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"id":null,"name":"Wire"},"title":"One","url":"https://x/1","publishedAt":"2024-01-01T00:00:00Z"},
			{"source":{"name":"Daily"},"title":"Two","url":null,"publishedAt":null}
		]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, "k")
	cfg.APIQuery = "go"
	items, err := NewClient(cfg).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	want := news.Item{Source: "Wire", Title: "One", URL: "https://x/1", PublishedAt: "2024-01-01T00:00:00Z", FetchedVia: news.ViaAPI}
	if items[0] != want {
		t.Errorf("items[0] = %+v, want %+v", items[0], want)
	}
	if items[1].URL != "" || items[1].Source != "Daily" {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestFetchOmitsEmptyQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["q"]; ok {
			t.Error("q must be omitted when no query is configured")
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(testConfig(srv.URL, "k")).Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL, "k")).Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error on 401")
	}
}
