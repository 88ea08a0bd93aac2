// Package app runs the three tools end to end: fetch or read inputs, process, write outputs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/deusflow/datatools/internal/cascade"
	"github.com/deusflow/datatools/internal/classify"
	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/embed"
	"github.com/deusflow/datatools/internal/jsonl"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
	"github.com/deusflow/datatools/internal/news"
	"github.com/deusflow/datatools/internal/scraper"
)

const (
	NewsFile           = "news_output.jsonl"
	EnrichedFile       = "enriched.jsonl"
	ClassificationFile = "file_classification.csv"
	EmbeddingsFile     = "embeddings.jsonl"
)

// DefaultInputDir is read by classify and embed when no directory is given.
var DefaultInputDir = filepath.Join("data", "sample_files")

type NewsResult struct {
	Cascade    cascade.Result
	Items      []news.Item
	Duplicates int
	Enriched   []scraper.EnrichedItem

	NewsPath     string
	EnrichedPath string // empty when nothing was enriched
}

// RunNews fetches, deduplicates, writes and enriches headlines using the default sources.
func RunNews(ctx context.Context, cfg *config.Config) (*NewsResult, error) {
	return RunNewsWith(ctx, cascade.New(cfg), scraper.NewEnricher(cfg.News), cfg.OutputDir)
}

func RunNewsWith(ctx context.Context, c *cascade.Cascade, e *scraper.Enricher, outDir string) (*NewsResult, error) {
	start := time.Now()
	res := &NewsResult{}
	metrics.Global.Reset()

	res.Cascade = c.Run(ctx)
	collected := res.Cascade.Items()
	res.Items = news.Dedupe(collected)
	res.Duplicates = len(collected) - len(res.Items)
	metrics.Global.AddDuplicatesFiltered(res.Duplicates)

	for _, s := range res.Cascade.Stages {
		logger.Info("Stage result", "stage", s.Stage, "status", s.Status, "items", len(s.Items))
	}
	logger.Info("Collected news", "total", len(collected), "unique", len(res.Items), "duplicates", res.Duplicates)

	res.NewsPath = filepath.Join(outDir, NewsFile)
	if err := jsonl.Write(res.NewsPath, res.Items); err != nil {
		metrics.Global.SetError(err.Error())
		return res, err
	}
	logger.Info("Wrote news", "path", res.NewsPath, "items", len(res.Items))

	res.Enriched = e.Enrich(ctx, res.Items)
	if len(res.Enriched) > 0 {
		res.EnrichedPath = filepath.Join(outDir, EnrichedFile)
		if err := jsonl.Write(res.EnrichedPath, res.Enriched); err != nil {
			metrics.Global.SetError(err.Error())
			return res, err
		}
		logger.Info("Wrote enriched pages", "path", res.EnrichedPath, "items", len(res.Enriched))
	}

	metrics.Global.RecordProcessingTime(time.Since(start))
	return res, nil
}

// RunClassify classifies every file under root and writes the CSV report to out.
func RunClassify(cfg *config.Config, root, out string) ([]classify.Result, error) {
	rules := classify.DefaultRules()
	rules.MaxBytes = cfg.Classify.MaxBytes

	results, err := classify.New(rules).ClassifyDir(root)
	if err != nil {
		return nil, err
	}
	if err := classify.WriteCSVFile(out, results); err != nil {
		return results, err
	}

	upload, skip := classify.Counts(results)
	logger.Info("Wrote classification", "path", out, "files", len(results), "upload", upload, "skip", skip)
	return results, nil
}

// RunEmbed embeds every file under root with the configured provider.
// A missing provider credential fails before any file is read.
func RunEmbed(ctx context.Context, cfg *config.Config, root, out string) (embed.Result, error) {
	if err := cfg.ValidateEmbed(); err != nil {
		return embed.Result{}, err
	}
	e, err := embed.NewEmbedder(ctx, cfg.Embed)
	if err != nil {
		return embed.Result{}, err
	}
	if c, ok := e.(io.Closer); ok {
		defer c.Close()
	}
	return RunEmbedWith(ctx, e, cfg.Embed, root, out)
}

func RunEmbedWith(ctx context.Context, e embed.Embedder, cfg config.EmbedConfig, root, out string) (embed.Result, error) {
	enc, err := jsonl.Create(out)
	if err != nil {
		return embed.Result{}, err
	}
	metrics.Global.Reset()

	gen := embed.NewGenerator(e, cfg)
	res, runErr := gen.Run(ctx, root, enc)
	written := enc.Count()
	closeErr := enc.Close()
	if err := errors.Join(runErr, closeErr); err != nil {
		metrics.Global.SetError(err.Error())
		return res, fmt.Errorf("embedding run failed: %w", err)
	}

	gen.Limiter().PrintStats()
	logger.Info("Embeddings written", "path", out, "files", res.Files, "records", written, "skipped", res.Skipped)
	return res, nil
}
