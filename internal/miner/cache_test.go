package miner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())

	data := RepoData{
		"42": {
			IssueNumber: 42,
			Title:       "Crash when config file is missing",
			Labels:      []string{"bug"},
			Solvers:     []string{"alice", "bob"},
			LinkedPRs: []LinkedPR{
				{Number: 100, Title: "Handle missing config", MergedBy: "carol"},
			},
			CommitMessages: "handle missing config",
		},
	}

	if err := cache.Save("acme/api", data); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := cache.Load("acme/api")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit after save")
	}

	rec, exists := loaded["42"]
	if !exists {
		t.Fatalf("expected issue 42 in loaded data, got keys %v", keysOf(loaded))
	}
	if rec.Title != "Crash when config file is missing" {
		t.Errorf("title = %q", rec.Title)
	}
	if len(rec.Solvers) != 2 {
		t.Errorf("solvers = %v", rec.Solvers)
	}
	if len(rec.LinkedPRs) != 1 || rec.LinkedPRs[0].Number != 100 {
		t.Errorf("linked prs = %+v", rec.LinkedPRs)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(t.TempDir())

	_, ok, err := cache.Load("acme/api")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss for unsaved repo")
	}
}

func TestCacheCorruptFile(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)

	path := cache.Path("acme/api")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, _, err := cache.Load("acme/api")
	if err == nil {
		t.Fatal("expected error for corrupt cache file")
	}
}

func TestCachePathSanitizesRepoName(t *testing.T) {
	cache := NewCache("cache")
	path := cache.Path("acme/api")

	base := filepath.Base(path)
	if strings.Contains(base, "/") {
		t.Errorf("filename contains separator: %q", base)
	}
	if base != "issue_solver_data_acme_api.json" {
		t.Errorf("unexpected cache filename %q", base)
	}
}

func keysOf(data RepoData) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	return keys
}
