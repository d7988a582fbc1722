package miner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores raw mined repository data as one JSON file per repository, so
// reruns skip the expensive API walk entirely.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir. The directory is created lazily on
// first save.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the cache file path for a repository.
func (c *Cache) Path(repoFullName string) string {
	return filepath.Join(c.dir, fmt.Sprintf("issue_solver_data_%s.json", sanitizeRepoName(repoFullName)))
}

// Load reads cached data for a repository. The second return value reports
// whether a cache file existed.
func (c *Cache) Load(repoFullName string) (RepoData, bool, error) {
	raw, err := os.ReadFile(c.Path(repoFullName))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache for %s: %w", repoFullName, err)
	}

	var data RepoData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("failed to parse cache for %s: %w", repoFullName, err)
	}

	return data, true, nil
}

// Save writes repository data to the cache, creating the cache directory if
// needed. Files are written atomically via a temp file rename so an
// interrupted run never leaves a truncated cache behind.
func (c *Cache) Save(repoFullName string, data RepoData) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache for %s: %w", repoFullName, err)
	}

	path := c.Path(repoFullName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache for %s: %w", repoFullName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize cache for %s: %w", repoFullName, err)
	}

	return nil
}

// sanitizeRepoName makes an owner/repo string safe for use in a filename.
func sanitizeRepoName(repoFullName string) string {
	return strings.ReplaceAll(repoFullName, "/", "_")
}
