// Package state tracks mining progress across runs. A checkpoint file in
// the cache directory records which repositories finished, so an
// interrupted multi-repo mine resumes where it stopped.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const checkpointFile = "mining_checkpoint.json"

// Checkpoint records per-repository mining progress.
type Checkpoint struct {
	StartedAt time.Time            `json:"started_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Completed map[string]time.Time `json:"completed"`

	dir string
}

// LoadCheckpoint reads the checkpoint from dir, returning a fresh one when
// no file exists.
func LoadCheckpoint(dir string) (*Checkpoint, error) {
	cp := &Checkpoint{
		StartedAt: time.Now().UTC(),
		Completed: make(map[string]time.Time),
		dir:       dir,
	}

	data, err := os.ReadFile(filepath.Join(dir, checkpointFile))
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	if cp.Completed == nil {
		cp.Completed = make(map[string]time.Time)
	}
	cp.dir = dir

	return cp, nil
}

// IsDone reports whether a repository already finished in this run set.
func (c *Checkpoint) IsDone(repoFullName string) bool {
	_, ok := c.Completed[repoFullName]
	return ok
}

// MarkDone records a repository as finished and persists the checkpoint.
func (c *Checkpoint) MarkDone(repoFullName string) error {
	c.Completed[repoFullName] = time.Now().UTC()
	return c.save()
}

// Reset clears all recorded progress and removes the checkpoint file.
func (c *Checkpoint) Reset() error {
	c.Completed = make(map[string]time.Time)
	c.StartedAt = time.Now().UTC()

	err := os.Remove(filepath.Join(c.dir, checkpointFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

// save writes the checkpoint atomically via a temp file rename.
func (c *Checkpoint) save() error {
	c.UpdatedAt = time.Now().UTC()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := filepath.Join(c.dir, checkpointFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	return nil
}
