// Package config handles loading and merging resolverank configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/resolverank/resolverank/internal/miner"
)

// Config is the root configuration structure.
type Config struct {
	// Extends allows inheriting from a remote config (e.g., "org/repo@branch").
	Extends string `yaml:"extends,omitempty"`

	// GitHub configures API access for mining and issue fetching.
	GitHub GitHubConfig `yaml:"github"`

	// Qdrant configures the vector database connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// LLM configures the model used for skill extraction and scoring.
	LLM LLMConfig `yaml:"llm"`

	// Miner controls the dataset mining pass.
	Miner MinerConfig `yaml:"miner"`

	// Dataset controls export output and flattening delimiters.
	Dataset DatasetConfig `yaml:"dataset"`

	// Store configures the SQLite dataset store.
	Store StoreConfig `yaml:"store"`

	// Workflow is a preset pipeline name (e.g., "recommend").
	Workflow string `yaml:"workflow,omitempty"`

	// Steps is a custom list of pipeline steps (overrides workflow).
	Steps []string `yaml:"steps,omitempty"`

	// Defaults contains default behavior settings.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Repositories lists the repositories to mine.
	Repositories []RepositoryConfig `yaml:"repositories,omitempty"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model,omitempty"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model,omitempty"`
}

// MinerConfig controls the mining pass.
type MinerConfig struct {
	MaxPRs   int    `yaml:"max_prs"`
	CacheDir string `yaml:"cache_dir"`
	Refresh  bool   `yaml:"refresh"`
}

// DatasetConfig controls dataset export.
type DatasetConfig struct {
	Output     string           `yaml:"output"`
	Delimiters miner.Delimiters `yaml:",inline"`
}

// StoreConfig holds SQLite store settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultsConfig holds default behavior settings.
type DefaultsConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxCandidates       int     `yaml:"max_candidates"`
	LLMRerankTop        int     `yaml:"llm_rerank_top"`
}

// RepositoryConfig defines a repository to mine.
type RepositoryConfig struct {
	Org     string `yaml:"org"`
	Repo    string `yaml:"repo"`
	Enabled bool   `yaml:"enabled"`
}

// FullName returns "org/repo".
func (r RepositoryConfig) FullName() string {
	return r.Org + "/" + r.Repo
}

// Load reads a config file from the given path and expands environment
// variables.
func Load(path string) (*Config, error) {
	cfg, err := loadRaw(path)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

// loadRaw reads and parses a config without applying defaults. Inheritance
// merges raw configs so a defaulted child field cannot shadow an explicit
// parent value.
func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// LoadWithInheritance loads a config and resolves the 'extends' chain. The
// fetcher function retrieves remote configs.
func LoadWithInheritance(path string, fetcher func(ref string) ([]byte, error)) (*Config, error) {
	cfg, err := loadRaw(path)
	if err != nil {
		return nil, err
	}

	if cfg.Extends == "" {
		cfg.applyDefaults()
		return cfg, nil
	}

	parentData, err := fetcher(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent config '%s': %w", cfg.Extends, err)
	}

	expanded := os.ExpandEnv(string(parentData))
	var parentCfg Config
	if err := yaml.Unmarshal([]byte(expanded), &parentCfg); err != nil {
		return nil, fmt.Errorf("failed to parse parent config: %w", err)
	}

	// Child overrides parent.
	merged := mergeConfigs(&parentCfg, cfg)
	merged.applyDefaults()

	return merged, nil
}

// Default returns a config with only the defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".github/resolverank.yaml",
		".github/resolverank.yml",
		".resolverank.yaml",
		".resolverank.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Defaults.SimilarityThreshold == 0 {
		c.Defaults.SimilarityThreshold = 0.55
	}
	if c.Defaults.MaxCandidates == 0 {
		c.Defaults.MaxCandidates = 10
	}
	if c.Defaults.LLMRerankTop == 0 {
		c.Defaults.LLMRerankTop = 5
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gemini"
	}
	if c.Miner.MaxPRs == 0 {
		c.Miner.MaxPRs = 500
	}
	if c.Miner.CacheDir == "" {
		c.Miner.CacheDir = "cache"
	}
	if c.Dataset.Output == "" {
		c.Dataset.Output = "dataset.csv"
	}
	if c.Store.Path == "" {
		c.Store.Path = "resolverank.db"
	}
	if c.Qdrant.URL == "" {
		c.Qdrant.URL = "localhost:6334"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "contributor_profiles"
	}

	defaults := miner.DefaultDelimiters()
	if c.Dataset.Delimiters.Comment == "" {
		c.Dataset.Delimiters.Comment = defaults.Comment
	}
	if c.Dataset.Delimiters.FileChange == "" {
		c.Dataset.Delimiters.FileChange = defaults.FileChange
	}
	if c.Dataset.Delimiters.CommitMsg == "" {
		c.Dataset.Delimiters.CommitMsg = defaults.CommitMsg
	}
	if c.Dataset.Delimiters.PatchNewline == "" {
		c.Dataset.Delimiters.PatchNewline = defaults.PatchNewline
	}
}

// mergeConfigs merges a child config onto a parent config. Non-zero values
// in the child override the parent.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent

	if child.Workflow != "" {
		result.Workflow = child.Workflow
	}
	if len(child.Steps) > 0 {
		result.Steps = child.Steps
	}

	if child.GitHub.Token != "" {
		result.GitHub.Token = child.GitHub.Token
	}

	if child.Qdrant.URL != "" {
		result.Qdrant.URL = child.Qdrant.URL
	}
	if child.Qdrant.APIKey != "" {
		result.Qdrant.APIKey = child.Qdrant.APIKey
	}
	if child.Qdrant.Collection != "" {
		result.Qdrant.Collection = child.Qdrant.Collection
	}

	if child.Embedding.Provider != "" {
		result.Embedding.Provider = child.Embedding.Provider
	}
	if child.Embedding.APIKey != "" {
		result.Embedding.APIKey = child.Embedding.APIKey
	}
	if child.Embedding.Model != "" {
		result.Embedding.Model = child.Embedding.Model
	}

	if child.LLM.APIKey != "" {
		result.LLM.APIKey = child.LLM.APIKey
	}
	if child.LLM.Model != "" {
		result.LLM.Model = child.LLM.Model
	}

	if child.Miner.MaxPRs != 0 {
		result.Miner.MaxPRs = child.Miner.MaxPRs
	}
	if child.Miner.CacheDir != "" {
		result.Miner.CacheDir = child.Miner.CacheDir
	}
	// Refresh is a run-mode flag; always take the child value so it can
	// override in both directions.
	result.Miner.Refresh = child.Miner.Refresh

	if child.Dataset.Output != "" {
		result.Dataset.Output = child.Dataset.Output
	}
	if child.Dataset.Delimiters.Comment != "" {
		result.Dataset.Delimiters.Comment = child.Dataset.Delimiters.Comment
	}
	if child.Dataset.Delimiters.FileChange != "" {
		result.Dataset.Delimiters.FileChange = child.Dataset.Delimiters.FileChange
	}
	if child.Dataset.Delimiters.CommitMsg != "" {
		result.Dataset.Delimiters.CommitMsg = child.Dataset.Delimiters.CommitMsg
	}
	if child.Dataset.Delimiters.PatchNewline != "" {
		result.Dataset.Delimiters.PatchNewline = child.Dataset.Delimiters.PatchNewline
	}

	if child.Store.Path != "" {
		result.Store.Path = child.Store.Path
	}

	if child.Defaults.SimilarityThreshold != 0 {
		result.Defaults.SimilarityThreshold = child.Defaults.SimilarityThreshold
	}
	if child.Defaults.MaxCandidates != 0 {
		result.Defaults.MaxCandidates = child.Defaults.MaxCandidates
	}
	if child.Defaults.LLMRerankTop != 0 {
		result.Defaults.LLMRerankTop = child.Defaults.LLMRerankTop
	}

	// Repositories: child completely overrides if non-empty.
	if len(child.Repositories) > 0 {
		result.Repositories = child.Repositories
	}

	return &result
}

// EnabledRepositories returns the repositories with Enabled set.
func (c *Config) EnabledRepositories() []RepositoryConfig {
	var out []RepositoryConfig
	for _, r := range c.Repositories {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// ParseExtendsRef parses "org/repo@branch[:path]" into components.
func ParseExtendsRef(ref string) (org, repo, branch, path string, err error) {
	parts := strings.SplitN(ref, "@", 2)
	if len(parts) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo@branch)", ref)
	}

	orgRepo := strings.SplitN(parts[0], "/", 2)
	if len(orgRepo) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo)", ref)
	}

	org = orgRepo[0]
	repo = orgRepo[1]

	branchPath := strings.SplitN(parts[1], ":", 2)
	branch = branchPath[0]
	if len(branchPath) == 2 {
		path = branchPath[1]
	} else {
		path = ".github/resolverank.yaml"
	}

	return org, repo, branch, path, nil
}
