package embed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deusflow/datatools/internal/cache"
	"github.com/deusflow/datatools/internal/config"
	"github.com/deusflow/datatools/internal/logger"
	"github.com/deusflow/datatools/internal/metrics"
	"github.com/deusflow/datatools/internal/ratelimit"
	"github.com/deusflow/datatools/internal/retry"
)

// previewChars is how much of each chunk is kept in the output record.
const previewChars = 200

type Record struct {
	Path      string    `json:"path"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// RecordWriter receives records as each file completes.
type RecordWriter interface {
	Encode(v any) error
}

// Result summarises one generator run.
type Result struct {
	Files     int
	Skipped   int
	Records   int
	CacheHits int
	Stopped   bool // request budget ran out before all files were processed
}

type Generator struct {
	embedder   Embedder
	limiter    *ratelimit.Limiter
	cache      *cache.Cache
	retry      retry.RetryConfig
	chunkChars int
	batchSize  int
}

func NewGenerator(embedder Embedder, cfg config.EmbedConfig) *Generator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Generator{
		embedder: embedder,
		limiter:  ratelimit.New(cfg.RPM, cfg.MaxRequests),
		cache:    cache.New(),
		retry: retry.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       cfg.RetryDelay,
			Backoff:     true,
		},
		chunkChars: cfg.ChunkChars,
		batchSize:  batchSize,
	}
}

// Limiter exposes request statistics for the run.
func (g *Generator) Limiter() *ratelimit.Limiter {
	return g.limiter
}

// Run embeds every regular file under root, in lexical order. A file whose
// read or embedding fails is logged and skipped; its records are not written.
func (g *Generator) Run(ctx context.Context, root string, w RecordWriter) (Result, error) {
	var res Result
	start := time.Now()

	files, err := listFiles(root)
	if err != nil {
		return res, err
	}
	logger.Info("Embedding files", "root", root, "files", len(files), "provider", g.embedder.Name())

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Files++

		records, hits, err := g.embedFile(ctx, path)
		res.CacheHits += hits
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Skipped++
			metrics.Global.IncrementFilesSkipped()
			logger.Warn("skip", "path", path, "error", err)

			if errors.Is(err, ratelimit.ErrLimitReached) {
				res.Stopped = true
				res.Skipped += len(files) - i - 1
				logger.Warn("Request budget exhausted, stopping", "remaining_files", len(files)-i-1)
				break
			}
			continue
		}

		for _, r := range records {
			if err := w.Encode(r); err != nil {
				return res, fmt.Errorf("failed to write record for %s: %w", path, err)
			}
		}
		res.Records += len(records)
		logger.Debug("File embedded", "path", path, "chunks", len(records), "cache_hits", hits)
	}

	metrics.Global.RecordProcessingTime(time.Since(start))
	logger.Debug("Embedding cache", "unique_chunks", g.cache.Len(), "hits", res.CacheHits)
	return res, nil
}

func (g *Generator) embedFile(ctx context.Context, path string) ([]Record, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read file: %w", err)
	}
	chunks := Chunk(strings.ToValidUTF8(string(data), ""), g.chunkChars)
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	keys := make([]string, len(chunks))
	seen := make(map[string]bool, len(chunks))
	var pending []string
	hits := 0
	for i, c := range chunks {
		keys[i] = g.cache.GenerateKey(g.embedder.Name(), c)
		if _, ok := g.cache.Get(keys[i]); ok || seen[keys[i]] {
			hits++
			metrics.Global.IncrementCacheHits()
			g.limiter.RecordCacheHit(len(c))
			continue
		}
		seen[keys[i]] = true
		pending = append(pending, c)
	}

	for start := 0; start < len(pending); start += g.batchSize {
		batch := pending[start:min(start+g.batchSize, len(pending))]
		vectors, err := g.embedBatch(ctx, batch)
		if err != nil {
			return nil, hits, err
		}
		for j, text := range batch {
			g.cache.Set(g.cache.GenerateKey(g.embedder.Name(), text), vectors[j])
		}
		metrics.Global.AddChunksEmbedded(len(batch))
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		vec, _ := g.cache.Get(keys[i])
		records[i] = Record{
			Path:      path,
			Text:      truncateRunes(c, previewChars),
			Embedding: vec,
		}
	}
	return records, hits, nil
}

func (g *Generator) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retry.WithRetry(ctx, g.retry, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ratelimit.ErrLimitReached) {
				return retry.Permanent(err)
			}
			return err
		}
		metrics.Global.IncrementEmbeddingRequests()

		vectors, err := g.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%s returned %d embeddings for %d inputs", g.embedder.Name(), len(vectors), len(texts))
		}
		out = vectors
		return nil
	})
	return out, err
}

func listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Cannot access path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
			return nil
		}
		// follow symlinks to files, not to directories
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	return files, err
}
