package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/resolverank/resolverank/internal/core/config"
)

func TestResolveMineTargetsFromFlags(t *testing.T) {
	old := mineRepos
	defer func() { mineRepos = old }()

	mineRepos = []string{"acme/widgets", "acme/gadgets"}
	cfg := config.Default()
	cfg.Repositories = []config.RepositoryConfig{{Org: "other", Repo: "repo", Enabled: true}}

	repos := resolveMineTargets(cfg)
	if len(repos) != 2 {
		t.Fatalf("expected flag repos to win, got %+v", repos)
	}
	if repos[0].FullName() != "acme/widgets" || !repos[0].Enabled {
		t.Errorf("unexpected first target: %+v", repos[0])
	}
}

func TestResolveMineTargetsFromConfig(t *testing.T) {
	old := mineRepos
	defer func() { mineRepos = old }()

	mineRepos = nil
	cfg := config.Default()
	cfg.Repositories = []config.RepositoryConfig{
		{Org: "acme", Repo: "widgets", Enabled: true},
		{Org: "acme", Repo: "legacy", Enabled: false},
	}

	repos := resolveMineTargets(cfg)
	if len(repos) != 1 || repos[0].FullName() != "acme/widgets" {
		t.Fatalf("expected only enabled config repos, got %+v", repos)
	}
}

func TestLoadIssueFromFile(t *testing.T) {
	oldFile := recommendIssueFile
	defer func() { recommendIssueFile = oldFile }()

	path := filepath.Join(t.TempDir(), "issue.json")
	data := `{
		"Org": "acme",
		"Repo": "widgets",
		"Number": 42,
		"Title": "Crash on startup",
		"Body": "Panics immediately.",
		"Labels": ["bug"],
		"Author": "alice"
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	recommendIssueFile = path

	issue, err := loadIssue(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue.Number != 42 || issue.Org != "acme" || issue.Repo != "widgets" {
		t.Fatalf("unexpected issue identity: %+v", issue)
	}
	if issue.Title != "Crash on startup" || issue.Author != "alice" {
		t.Fatalf("expected issue fields parsed, got %+v", issue)
	}
	if len(issue.Labels) != 1 {
		t.Fatalf("expected labels parsed, got %+v", issue.Labels)
	}
}

func TestLoadIssueRequiresSource(t *testing.T) {
	oldFile, oldRepo, oldNum := recommendIssueFile, recommendRepo, recommendNumber
	defer func() {
		recommendIssueFile, recommendRepo, recommendNumber = oldFile, oldRepo, oldNum
	}()

	recommendIssueFile = ""
	recommendRepo = ""
	recommendNumber = 0

	if _, err := loadIssue(context.Background(), config.Default()); err == nil {
		t.Fatal("expected error without --issue or --repo/--number")
	}
}

func TestLoadIssueRejectsBadRepo(t *testing.T) {
	oldFile, oldRepo, oldNum := recommendIssueFile, recommendRepo, recommendNumber
	defer func() {
		recommendIssueFile, recommendRepo, recommendNumber = oldFile, oldRepo, oldNum
	}()

	recommendIssueFile = ""
	recommendRepo = "not-a-repo"
	recommendNumber = 3

	if _, err := loadIssue(context.Background(), config.Default()); err == nil {
		t.Fatal("expected error for repo without owner")
	}
}
