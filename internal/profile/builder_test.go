package profile

import (
	"reflect"
	"testing"

	"github.com/resolverank/resolverank/internal/miner"
)

func sampleRows() []miner.Row {
	return []miner.Row{
		{
			RepoName:            "acme/widgets",
			ContributorID:       "alice",
			IssueID:             1,
			IssueTitle:          "Fix crash in parser",
			IssueLabels:         "bug, parser",
			ModifiedSourceFiles: "PR#10 - internal/parser/parse.go: @@ -1 +1 @@|;|fix || PR#10 - internal/parser/parse_test.go: @@",
			CommitMessages:      "fix parser crash || add regression test",
		},
		{
			RepoName:            "acme/widgets",
			ContributorID:       "alice",
			IssueID:             2,
			IssueTitle:          "Improve docs",
			IssueLabels:         "documentation",
			ModifiedSourceFiles: "PR#11 - README.md: @@",
			CommitMessages:      "rewrite readme",
		},
		{
			RepoName:      "acme/gadgets",
			ContributorID: "bob",
			IssueID:       5,
			IssueTitle:    "Slow query",
			IssueLabels:   "performance",
		},
		{
			RepoName:      "acme/widgets",
			ContributorID: miner.UnknownContributor,
			IssueID:       3,
			IssueTitle:    "Orphaned issue",
		},
	}
}

func TestAggregateContributors(t *testing.T) {
	aggs := AggregateContributors(sampleRows(), miner.DefaultDelimiters())

	if len(aggs) != 2 {
		t.Fatalf("expected 2 contributors (unknown excluded), got %d", len(aggs))
	}

	alice := aggs[0]
	if alice.Login != "alice" {
		t.Fatalf("expected alice first, got %s", alice.Login)
	}
	if alice.ResolvedCount != 2 {
		t.Errorf("expected alice resolved 2, got %d", alice.ResolvedCount)
	}
	if !reflect.DeepEqual(alice.Repos, []string{"acme/widgets"}) {
		t.Errorf("unexpected repos: %v", alice.Repos)
	}
	wantFiles := []string{"README.md", "internal/parser/parse.go", "internal/parser/parse_test.go"}
	if !reflect.DeepEqual(alice.ModifiedFiles, wantFiles) {
		t.Errorf("expected files %v, got %v", wantFiles, alice.ModifiedFiles)
	}
	if len(alice.CommitMessages) != 3 {
		t.Errorf("expected 3 commit messages, got %v", alice.CommitMessages)
	}
	if len(alice.IssueTitles) != 2 {
		t.Errorf("expected 2 issue titles, got %v", alice.IssueTitles)
	}

	bob := aggs[1]
	if bob.Login != "bob" || bob.ResolvedCount != 1 {
		t.Errorf("unexpected bob aggregate: %+v", bob)
	}
}

func TestAggregateIssues(t *testing.T) {
	rows := sampleRows()
	// Second solver for issue 1; the issue must still aggregate once.
	rows = append(rows, miner.Row{
		RepoName:      "acme/widgets",
		ContributorID: "bob",
		IssueID:       1,
		IssueTitle:    "Fix crash in parser",
		IssueLabels:   "bug, parser",
	})

	aggs := AggregateIssues(rows, miner.DefaultDelimiters())

	if len(aggs) != 4 {
		t.Fatalf("expected 4 unique issues, got %d", len(aggs))
	}

	first := aggs[0]
	if first.Key != "acme/gadgets#5" {
		t.Errorf("expected sorted keys, got %s first", first.Key)
	}

	for _, agg := range aggs {
		if agg.Key == "acme/widgets#1" {
			if !reflect.DeepEqual(agg.Labels, []string{"bug", "parser"}) {
				t.Errorf("unexpected labels: %v", agg.Labels)
			}
			if len(agg.ModifiedFiles) != 2 {
				t.Errorf("expected 2 files, got %v", agg.ModifiedFiles)
			}
		}
	}
}

func TestFileNames(t *testing.T) {
	delims := miner.DefaultDelimiters()
	cell := "PR#7 - cmd/main.go: @@ -1 +1 @@ patch|;|more || PR#7 - docs/guide.md: @@ || garbage entry"

	got := FileNames(cell, delims)
	want := []string{"cmd/main.go", "docs/guide.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFallbackSkills(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		files  []string
		want   []string
	}{
		{
			name:  "extensions map to languages",
			files: []string{"internal/db/query.sql", "cmd/main.go", "web/app.tsx"},
			want:  []string{"go", "react", "sql"},
		},
		{
			name:   "labels are normalized and scope prefixes stripped",
			labels: []string{"kind/Bug", "area: networking", "  Performance "},
			want:   []string{"bug", "networking", "performance"},
		},
		{
			name:  "special filenames",
			files: []string{"Dockerfile", "Makefile", "go.mod"},
			want:  []string{"build tooling", "docker", "go"},
		},
		{
			name:   "deduplicated and sorted",
			labels: []string{"bug", "bug"},
			files:  []string{"a.go", "b.go"},
			want:   []string{"bug", "go"},
		},
		{
			name: "empty input yields empty list",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackSkills(tt.labels, tt.files)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
