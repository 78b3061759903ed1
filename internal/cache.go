package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DescriptorCache stores parsed archive descriptors keyed by archive path,
// validated against the manifest file's modification time. Scanning a large
// archive is cheap to redo, so every cache failure is a soft miss.
type DescriptorCache struct {
	db *sql.DB
}

const descriptorCacheSchema = `
CREATE TABLE IF NOT EXISTS descriptors (
	archive_path TEXT PRIMARY KEY,
	source_path  TEXT NOT NULL,
	mod_time_ns  INTEGER NOT NULL,
	descriptor   TEXT NOT NULL
)`

// DefaultCachePath returns the descriptor cache location under the user's
// cache directory
func DefaultCachePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(base, "twitter-archive-combiner", "descriptors.db"), nil
}

// OpenDescriptorCache opens (creating if needed) the cache database at path
func OpenDescriptorCache(path string) (*DescriptorCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(descriptorCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &DescriptorCache{db: db}, nil
}

// Close closes the cache database
func (c *DescriptorCache) Close() error {
	return c.db.Close()
}

// Get returns the cached descriptor for archivePath if its source file has
// not changed since it was cached
func (c *DescriptorCache) Get(archivePath string) (*ArchiveDescriptor, bool) {
	var sourcePath, payload string
	var modTime int64
	row := c.db.QueryRow(
		"SELECT source_path, mod_time_ns, descriptor FROM descriptors WHERE archive_path = ?",
		archivePath)
	if err := row.Scan(&sourcePath, &modTime, &payload); err != nil {
		return nil, false
	}

	info, err := os.Stat(sourcePath)
	if err != nil || info.ModTime().UnixNano() != modTime {
		return nil, false
	}

	var desc ArchiveDescriptor
	if err := json.Unmarshal([]byte(payload), &desc); err != nil {
		LogWarn("discarding corrupt cache entry for %s: %v", archivePath, err)
		return nil, false
	}
	return &desc, true
}

// Put stores a descriptor, replacing any previous entry for its path
func (c *DescriptorCache) Put(desc *ArchiveDescriptor) error {
	info, err := os.Stat(desc.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", desc.ManifestPath, err)
	}

	payload, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO descriptors (archive_path, source_path, mod_time_ns, descriptor)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(archive_path) DO UPDATE SET
		   source_path = excluded.source_path,
		   mod_time_ns = excluded.mod_time_ns,
		   descriptor = excluded.descriptor`,
		desc.Root, desc.ManifestPath, info.ModTime().UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("failed to store descriptor: %w", err)
	}
	return nil
}

// LoadDescriptorCached loads a descriptor through the cache. A nil cache
// loads directly.
func LoadDescriptorCached(cache *DescriptorCache, root string) (*ArchiveDescriptor, error) {
	if cache != nil {
		if desc, ok := cache.Get(root); ok {
			LogDebug("descriptor cache hit for %s", root)
			return desc, nil
		}
	}

	desc, err := LoadDescriptor(root)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Put(desc); err != nil {
			LogWarn("failed to cache descriptor for %s: %v", root, err)
		}
	}
	return desc, nil
}
