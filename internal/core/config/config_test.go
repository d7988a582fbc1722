package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolverank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "ghp_secret")

	path := writeConfig(t, `
github:
  token: ${TEST_GH_TOKEN}
qdrant:
  url: localhost:6334
repositories:
  - org: acme
    repo: api
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.GitHub.Token != "ghp_secret" {
		t.Errorf("token = %q", cfg.GitHub.Token)
	}

	// Defaults.
	if cfg.Miner.MaxPRs != 500 {
		t.Errorf("max_prs = %d", cfg.Miner.MaxPRs)
	}
	if cfg.Miner.CacheDir != "cache" {
		t.Errorf("cache_dir = %q", cfg.Miner.CacheDir)
	}
	if cfg.Dataset.Output != "dataset.csv" {
		t.Errorf("output = %q", cfg.Dataset.Output)
	}
	if cfg.Dataset.Delimiters.PatchNewline != "|;|" {
		t.Errorf("patch delimiter = %q", cfg.Dataset.Delimiters.PatchNewline)
	}
	if cfg.Store.Path != "resolverank.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Qdrant.Collection != "contributor_profiles" {
		t.Errorf("collection = %q", cfg.Qdrant.Collection)
	}
	if cfg.Defaults.SimilarityThreshold != 0.55 || cfg.Defaults.MaxCandidates != 10 || cfg.Defaults.LLMRerankTop != 5 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoadExplicitValuesBeatDefaults(t *testing.T) {
	path := writeConfig(t, `
miner:
  max_prs: 50
dataset:
  output: out/pairs.csv
  comment_delimiter: " ;; "
defaults:
  similarity_threshold: 0.7
  max_candidates: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Miner.MaxPRs != 50 {
		t.Errorf("max_prs = %d", cfg.Miner.MaxPRs)
	}
	if cfg.Dataset.Output != "out/pairs.csv" {
		t.Errorf("output = %q", cfg.Dataset.Output)
	}
	if cfg.Dataset.Delimiters.Comment != " ;; " {
		t.Errorf("comment delimiter = %q", cfg.Dataset.Delimiters.Comment)
	}
	// Unset delimiters still default.
	if cfg.Dataset.Delimiters.CommitMsg != " || " {
		t.Errorf("commit delimiter = %q", cfg.Dataset.Delimiters.CommitMsg)
	}
	if cfg.Defaults.SimilarityThreshold != 0.7 || cfg.Defaults.MaxCandidates != 3 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoadWithInheritanceChildOverridesParent(t *testing.T) {
	path := writeConfig(t, `
extends: acme/configs@main
qdrant:
  url: child.qdrant.local:6334
miner:
  max_prs: 100
`)

	parent := []byte(`
qdrant:
  url: parent.qdrant.local:6334
  collection: org_profiles
llm:
  model: gemini-2.0-flash
repositories:
  - org: acme
    repo: api
    enabled: true
`)

	cfg, err := LoadWithInheritance(path, func(ref string) ([]byte, error) {
		if ref != "acme/configs@main" {
			t.Errorf("fetched ref %q", ref)
		}
		return parent, nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Child wins where set.
	if cfg.Qdrant.URL != "child.qdrant.local:6334" {
		t.Errorf("url = %q", cfg.Qdrant.URL)
	}
	if cfg.Miner.MaxPRs != 100 {
		t.Errorf("max_prs = %d", cfg.Miner.MaxPRs)
	}

	// Parent fills the gaps.
	if cfg.Qdrant.Collection != "org_profiles" {
		t.Errorf("collection = %q", cfg.Qdrant.Collection)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
	if len(cfg.Repositories) != 1 {
		t.Errorf("repositories = %+v", cfg.Repositories)
	}
}

func TestLoadWithInheritanceFetchError(t *testing.T) {
	path := writeConfig(t, "extends: acme/configs@main\n")

	_, err := LoadWithInheritance(path, func(ref string) ([]byte, error) {
		return nil, errors.New("not found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadWithInheritanceNoExtends(t *testing.T) {
	path := writeConfig(t, "store:\n  path: custom.db\n")

	cfg, err := LoadWithInheritance(path, func(ref string) ([]byte, error) {
		t.Fatal("fetcher should not be called")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Path != "custom.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}

func TestParseExtendsRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		org     string
		repo    string
		branch  string
		path    string
		wantErr bool
	}{
		{
			name: "default path", ref: "acme/configs@main",
			org: "acme", repo: "configs", branch: "main", path: ".github/resolverank.yaml",
		},
		{
			name: "explicit path", ref: "acme/configs@v2:configs/base.yaml",
			org: "acme", repo: "configs", branch: "v2", path: "configs/base.yaml",
		},
		{name: "missing branch", ref: "acme/configs", wantErr: true},
		{name: "missing repo", ref: "acme@main", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, repo, branch, path, err := ParseExtendsRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if org != tt.org || repo != tt.repo || branch != tt.branch || path != tt.path {
				t.Errorf("got %s/%s@%s:%s", org, repo, branch, path)
			}
		})
	}
}

func TestEnabledRepositories(t *testing.T) {
	cfg := &Config{Repositories: []RepositoryConfig{
		{Org: "acme", Repo: "api", Enabled: true},
		{Org: "acme", Repo: "legacy", Enabled: false},
	}}

	enabled := cfg.EnabledRepositories()
	if len(enabled) != 1 || enabled[0].FullName() != "acme/api" {
		t.Errorf("enabled = %+v", enabled)
	}
}
