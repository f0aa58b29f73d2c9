// Package jsonfile persists probe results between runs. Probing shells out
// to ffprobe, so re-selecting an unchanged file should not pay that cost
// twice.
package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/port"
)

const maxEntries = 256

type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*domain.SourceMedia
}

func New(dataDir string) (*Cache, error) {
	cache := &Cache{
		path:    filepath.Join(dataDir, "probecache.json"),
		entries: make(map[string]*domain.SourceMedia),
	}
	if err := cache.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return cache, nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var entries []*domain.SourceMedia
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache is not worth failing startup over.
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range entries {
		c.entries[entry.Fingerprint] = entry
	}
	return nil
}

func (c *Cache) Get(fingerprint string) (*domain.SourceMedia, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	media, ok := c.entries[fingerprint]
	return media, ok
}

func (c *Cache) Put(media *domain.SourceMedia) error {
	c.mu.Lock()
	if len(c.entries) >= maxEntries {
		// Crude eviction; the cache is a convenience, not a database.
		c.entries = make(map[string]*domain.SourceMedia)
	}
	c.entries[media.Fingerprint] = media
	entries := make([]*domain.SourceMedia, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.mu.Unlock()

	return c.save(entries)
}

func (c *Cache) save(entries []*domain.SourceMedia) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

var _ port.ProbeCache = (*Cache)(nil)
