// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// FileCache stores one YAML file per publication under a directory.
// Writes for the same publication are serialised; writes for different
// publications never contend.
type FileCache struct {
	dir   string
	locks sync.Map // sanitized id -> *sync.Mutex
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) path(id string) string {
	return filepath.Join(c.dir, SanitizeID(id)+".yaml")
}

func (c *FileCache) lock(id string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(SanitizeID(id), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Get reads the entry for id.
func (c *FileCache) Get(_ context.Context, id string) (types.CacheEntry, bool, error) {
	mu := c.lock(id)
	mu.Lock()
	defer mu.Unlock()

	e, err := readEntry(c.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return types.CacheEntry{}, false, nil
	}
	if err != nil {
		return types.CacheEntry{}, false, err
	}
	return e, true, nil
}

// Put writes e through a temp file and rename so readers never see a
// partial entry. The write is not interrupted by ctx.
func (c *FileCache) Put(_ context.Context, e types.CacheEntry) error {
	if e.Publication.ID == "" {
		return ErrInvalidEntry
	}
	data, err := yaml.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	mu := c.lock(e.Publication.ID)
	mu.Lock()
	defer mu.Unlock()

	dest := c.path(e.Publication.ID)
	tmp, err := os.CreateTemp(c.dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Stats parses every entry in the directory.
func (c *FileCache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return s, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".yaml" {
			continue
		}
		e, err := readEntry(filepath.Join(c.dir, name))
		if err != nil {
			return s, err
		}
		s.add(e.Completeness)
	}
	return s, nil
}

func readEntry(path string) (types.CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CacheEntry{}, err
	}
	var e types.CacheEntry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return types.CacheEntry{}, fmt.Errorf("parsing cache entry %s: %w", filepath.Base(path), err)
	}
	return e, nil
}
