package cache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/MarkdownViewer/core/render"
)

// DefaultRenderEntries is the entry limit of NewDefaultRenderCache.
const DefaultRenderEntries = 256

// DefaultRenderBytes bounds the SVG text held by NewDefaultRenderCache.
const DefaultRenderBytes = 32 << 20

// Key returns the content key of a drawing: the hex BLAKE3 digest of text.
func Key(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// RenderCache memoizes render results by content key.
type RenderCache struct {
	cache Cache[string, render.Result]
}

// NewRenderCache creates a render cache. maxEntries <= 0 means unlimited.
func NewRenderCache(maxEntries int, maxBytes int64) *RenderCache {
	return &RenderCache{
		cache: NewLRUCache(Config[string, render.Result]{
			MaxSize:  maxEntries,
			MaxBytes: maxBytes,
			SizeOf:   func(r render.Result) int64 { return int64(len(r.SVG)) },
		}),
	}
}

// NewDefaultRenderCache creates a render cache with the default limits.
func NewDefaultRenderCache() *RenderCache {
	return NewRenderCache(DefaultRenderEntries, DefaultRenderBytes)
}

// Render returns the cached result for text, rendering and storing it on a
// miss. The key is returned as well so callers can persist the result
// under the same name.
func (c *RenderCache) Render(text string) (render.Result, string, bool) {
	key := Key(text)
	if res, ok := c.cache.Get(key); ok {
		return res, key, true
	}
	res := render.Render(text)
	c.cache.Put(key, res)
	return res, key, false
}

// Get retrieves a result by key.
func (c *RenderCache) Get(key string) (render.Result, bool) {
	return c.cache.Get(key)
}

// Put stores a result under key.
func (c *RenderCache) Put(key string, res render.Result) {
	c.cache.Put(key, res)
}

// Remove removes a result.
func (c *RenderCache) Remove(key string) {
	c.cache.Remove(key)
}

// Clear removes all results.
func (c *RenderCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached results.
func (c *RenderCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *RenderCache) Stats() Stats {
	return c.cache.Stats()
}
