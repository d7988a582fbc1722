package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/integrations/github"
	"github.com/resolverank/resolverank/internal/integrations/qdrant"
	"github.com/resolverank/resolverank/internal/store/sqlite"
	"github.com/resolverank/resolverank/internal/tui"
)

var (
	recommendIssueFile string
	recommendRepo      string
	recommendNumber    int
	recommendWorkflow  string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend contributors for an open issue",
	Long: `Run the recommend pipeline for one issue. The issue is fetched from
GitHub when --repo owner/name and --number are given, or read from a JSON
file via --issue. Interactive runs show a live step view; in CI the steps
log plainly.`,
	Run: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendIssueFile, "issue", "", "Path to issue JSON file")
	recommendCmd.Flags().StringVar(&recommendRepo, "repo", "", "Repository (owner/name)")
	recommendCmd.Flags().IntVar(&recommendNumber, "number", 0, "Issue number")
	recommendCmd.Flags().StringVar(&recommendWorkflow, "workflow", "", "Workflow preset (default from config, else recommend)")
}

func runRecommend(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig(ctx)

	issue, err := loadIssue(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load issue: %v", err)
	}

	workflow := recommendWorkflow
	if workflow == "" {
		workflow = cfg.Workflow
	}
	stepNames := pipeline.ResolveSteps(cfg.Steps, workflow)

	deps, cleanup := buildDependencies(ctx, cfg)
	defer cleanup()

	statusChan := make(chan tui.PipelineStatusMsg)

	isCI := os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
	if isCI {
		log.Println("[recommend] running in CI mode")
		// No TUI is reading the channel, log the step statuses instead.
		go func() {
			for msg := range statusChan {
				if msg.Message != "" {
					log.Printf("[recommend] %s: %s (%s)", msg.Step, msg.Status, msg.Message)
				} else {
					log.Printf("[recommend] %s: %s", msg.Step, msg.Status)
				}
			}
		}()
		runPipeline(nil, deps, stepNames, issue, cfg, statusChan)
		return
	}

	model := tui.NewModel(stepNames, statusChan)
	p := tea.NewProgram(model)

	go runPipeline(p, deps, stepNames, issue, cfg, statusChan)

	if _, err := p.Run(); err != nil {
		log.Fatalf("failed to run TUI: %v", err)
	}
}

// loadIssue resolves the target issue from --issue or --repo/--number.
func loadIssue(ctx context.Context, cfg *config.Config) (*pipeline.Issue, error) {
	if recommendIssueFile != "" {
		data, err := os.ReadFile(recommendIssueFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read issue file: %w", err)
		}
		var issue pipeline.Issue
		if err := json.Unmarshal(data, &issue); err != nil {
			return nil, fmt.Errorf("failed to parse issue JSON: %w", err)
		}
		return &issue, nil
	}

	if recommendRepo == "" || recommendNumber == 0 {
		return nil, fmt.Errorf("provide --issue file.json or --repo owner/name with --number")
	}

	parts := strings.Split(recommendRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repo %q (expected owner/name)", recommendRepo)
	}
	org, repo := parts[0], parts[1]

	token := githubToken(cfg)
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required to fetch the issue")
	}

	client := github.NewClient(ctx, token)
	ghIssue, err := client.GetIssue(ctx, org, repo, recommendNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s#%d: %w", recommendRepo, recommendNumber, err)
	}

	labels := make([]string, 0, len(ghIssue.Labels))
	for _, l := range ghIssue.Labels {
		labels = append(labels, l.GetName())
	}

	return &pipeline.Issue{
		Org:    org,
		Repo:   repo,
		Number: ghIssue.GetNumber(),
		Title:  ghIssue.GetTitle(),
		Body:   ghIssue.GetBody(),
		State:  ghIssue.GetState(),
		Labels: labels,
		Author: ghIssue.GetUser().GetLogin(),
		URL:    ghIssue.GetHTMLURL(),
		IsPR:   ghIssue.IsPullRequest(),
	}, nil
}

// buildDependencies wires whatever clients the configuration allows. Missing
// pieces stay nil and the steps degrade.
func buildDependencies(ctx context.Context, cfg *config.Config) (*pipeline.Dependencies, func()) {
	deps := &pipeline.Dependencies{}
	var closers []func()

	embedder, err := gemini.NewEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model)
	if err != nil {
		log.Printf("[recommend] WARNING: embedder unavailable: %v", err)
	} else {
		deps.Embedder = embedder
		closers = append(closers, func() { embedder.Close() })
	}

	vectors, err := qdrant.NewClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		log.Printf("[recommend] WARNING: vector store unavailable: %v", err)
	} else {
		deps.Vectors = vectors
		closers = append(closers, func() { vectors.Close() })
	}

	if llm := newLLMClient(cfg); llm != nil {
		deps.LLM = llm
		closers = append(closers, func() { llm.Close() })
	} else {
		log.Println("[recommend] no LLM configured, skill extraction and scoring degrade")
	}

	if db, err := sqlite.NewDB(cfg.Store.Path); err == nil {
		deps.Profiles = sqlite.NewProfileRepo(db)
		closers = append(closers, func() { db.Close() })
	} else {
		log.Printf("[recommend] WARNING: profile store unavailable: %v", err)
	}

	return deps, func() {
		for _, c := range closers {
			c()
		}
	}
}
