// Package commands implements the resolverank CLI commands.
package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/integrations/github"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command for the resolverank CLI.
var rootCmd = &cobra.Command{
	Use:   "resolverank",
	Short: "Mine GitHub resolution history and recommend issue resolvers",
	Long: `resolverank mines merged pull requests and the issues they close into a
contributor-issue dataset, builds per-contributor skill profiles, and
recommends likely resolvers for new issues by skill similarity.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
}

// loadConfig resolves the config path and loads it with inheritance. A
// missing config file is not fatal; defaults and environment variables
// still apply.
func loadConfig(ctx context.Context) *config.Config {
	path := config.FindConfigPath(cfgFile)
	if path == "" {
		if verbose {
			log.Println("no configuration file found, using defaults and environment variables")
		}
		return config.Default()
	}

	fetcher := func(ref string) ([]byte, error) {
		org, repo, branch, refPath, err := config.ParseExtendsRef(ref)
		if err != nil {
			return nil, err
		}
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN required to fetch remote config %s", ref)
		}
		client := github.NewClient(ctx, token)
		return client.GetFileContent(ctx, org, repo, refPath, branch)
	}

	cfg, err := config.LoadWithInheritance(path, fetcher)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", path, err)
	}
	if verbose {
		log.Printf("loaded config from %s", path)
	}
	return cfg
}

// githubToken resolves the token from config or environment.
func githubToken(cfg *config.Config) string {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}
