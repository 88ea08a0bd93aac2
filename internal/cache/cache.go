// Package cache holds embedding vectors for the duration of one run, keyed by chunk content.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

type Cache struct {
	mu    sync.RWMutex
	items map[string][]float32
}

func New() *Cache {
	return &Cache{
		items: make(map[string][]float32),
	}
}

func (c *Cache) Set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
}

func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[key]
	return v, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GenerateKey hashes the model name and the chunk text, so switching models never reuses vectors.
func (c *Cache) GenerateKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
