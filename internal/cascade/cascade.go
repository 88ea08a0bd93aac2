// Package cascade runs news sources in order, strongest first, and records
// how each stage ended instead of failing the run.
package cascade

import (
	"context"

	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
	"github.com/deusflow/datatools/internal/news"
	"github.com/deusflow/datatools/internal/newsapi"
	"github.com/deusflow/datatools/internal/rss"
)

// Source is one stage of the cascade.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]news.Item, error)
}

// Toggle is implemented by sources that can be switched off by configuration.
type Toggle interface {
	Enabled() bool
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial" // some items and an error
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult is what one source produced.
type StageResult struct {
	Stage  string
	Status Status
	Items  []news.Item
	Err    error
}

type Result struct {
	Stages []StageResult
}

// Items concatenates stage items in call order.
func (r Result) Items() []news.Item {
	var out []news.Item
	for _, s := range r.Stages {
		out = append(out, s.Items...)
	}
	return out
}

// Failed returns the stages that did not fully succeed.
func (r Result) Failed() []StageResult {
	var out []StageResult
	for _, s := range r.Stages {
		if s.Status == StatusFailed || s.Status == StatusPartial {
			out = append(out, s)
		}
	}
	return out
}

type Cascade struct {
	sources []Source
}

// New wires the default cascade: NewsAPI first, then the configured feeds.
func New(cfg *config.Config) *Cascade {
	return NewWithSources(
		newsapi.NewClient(cfg.News),
		rss.NewFetcher(cfg.News.Feeds, cfg.News.FeedMaxEntries, cfg.News.FeedTimeout),
	)
}

func NewWithSources(sources ...Source) *Cascade {
	return &Cascade{sources: sources}
}

// Run calls every source in order. Errors never stop the run.
func (c *Cascade) Run(ctx context.Context) Result {
	var res Result

	for _, src := range c.sources {
		stage := StageResult{Stage: src.Name()}

		if t, ok := src.(Toggle); ok && !t.Enabled() {
			stage.Status = StatusSkipped
			logger.Info("Stage skipped", "stage", stage.Stage)
			res.Stages = append(res.Stages, stage)
			continue
		}

		logger.Info("Trying stage", "stage", stage.Stage)
		items, err := src.Fetch(ctx)
		stage.Items = items
		stage.Err = err

		switch {
		case err == nil:
			stage.Status = StatusOK
		case len(items) > 0:
			stage.Status = StatusPartial
			logger.Warn("Stage partially failed", "stage", stage.Stage, "items", len(items), "error", err)
		default:
			stage.Status = StatusFailed
			logger.Error("Stage failed", "stage", stage.Stage, "error", err)
		}

		metrics.Global.AddItemsCollected(len(items))
		res.Stages = append(res.Stages, stage)
	}

	return res
}
