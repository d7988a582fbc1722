// Package profile aggregates dataset pairs into per-contributor and
// per-issue skill profiles.
package profile

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/resolverank/resolverank/internal/miner"
)

// ContributorAggregate is one contributor's collected resolution history.
type ContributorAggregate struct {
	Login          string
	Repos          []string
	IssueTitles    []string
	Labels         []string
	ModifiedFiles  []string
	CommitMessages []string
	ResolvedCount  int
}

// IssueAggregate is one issue's collected matching material.
type IssueAggregate struct {
	Key           string // "repo#number"
	Repo          string
	Number        int
	Title         string
	Body          string
	Labels        []string
	ModifiedFiles []string
}

// AggregateContributors groups dataset rows by contributor. Rows attributed
// to the unknown contributor are skipped; they carry no profile signal.
// Output is sorted by login.
func AggregateContributors(rows []miner.Row, delims miner.Delimiters) []ContributorAggregate {
	byLogin := make(map[string]*ContributorAggregate)

	for _, row := range rows {
		if row.ContributorID == miner.UnknownContributor {
			continue
		}

		agg, ok := byLogin[row.ContributorID]
		if !ok {
			agg = &ContributorAggregate{Login: row.ContributorID}
			byLogin[row.ContributorID] = agg
		}

		agg.ResolvedCount++
		agg.Repos = appendUnique(agg.Repos, row.RepoName)
		if title := strings.TrimSpace(row.IssueTitle); title != "" {
			agg.IssueTitles = append(agg.IssueTitles, title)
		}
		agg.Labels = append(agg.Labels, splitList(row.IssueLabels)...)
		agg.ModifiedFiles = append(agg.ModifiedFiles, FileNames(row.ModifiedSourceFiles, delims)...)
		agg.CommitMessages = append(agg.CommitMessages, splitDelimited(row.CommitMessages, delims.CommitMsg)...)
	}

	out := make([]ContributorAggregate, 0, len(byLogin))
	for _, agg := range byLogin {
		agg.ModifiedFiles = uniqueSorted(agg.ModifiedFiles)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out
}

// AggregateIssues collapses dataset rows into one aggregate per issue,
// sorted by key.
func AggregateIssues(rows []miner.Row, delims miner.Delimiters) []IssueAggregate {
	byKey := make(map[string]*IssueAggregate)

	for _, row := range rows {
		key := fmt.Sprintf("%s#%d", row.RepoName, row.IssueID)
		agg, ok := byKey[key]
		if !ok {
			agg = &IssueAggregate{
				Key:    key,
				Repo:   row.RepoName,
				Number: row.IssueID,
				Title:  row.IssueTitle,
				Body:   row.IssueBody,
				Labels: splitList(row.IssueLabels),
			}
			byKey[key] = agg
		}
		agg.ModifiedFiles = uniqueSorted(append(agg.ModifiedFiles, FileNames(row.ModifiedSourceFiles, delims)...))
	}

	out := make([]IssueAggregate, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// fileChangeEntry matches the "PR#<n> - <path>: <patch>" cell format.
var fileChangeEntry = regexp.MustCompile(`^PR#\d+ - ([^:]+):`)

// FileNames extracts the file paths from a flattened modified_source_files
// cell.
func FileNames(cell string, delims miner.Delimiters) []string {
	var names []string
	for _, entry := range splitDelimited(cell, delims.FileChange) {
		m := fileChangeEntry.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names
}

// extensionSkills maps file extensions to skill names for the no-LLM
// fallback.
var extensionSkills = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "react",
	".ts":    "typescript",
	".tsx":   "react",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cpp":   "c++",
	".cc":    "c++",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "c#",
	".swift": "swift",
	".sql":   "sql",
	".sh":    "shell",
	".yaml":  "yaml",
	".yml":   "yaml",
	".proto": "protobuf",
	".css":   "css",
	".scss":  "css",
	".html":  "html",
	".md":    "documentation",
	".tf":    "terraform",
}

// specialFileSkills maps well-known filenames to skills.
var specialFileSkills = map[string]string{
	"dockerfile":     "docker",
	"docker-compose": "docker",
	"makefile":       "build tooling",
	"go.mod":         "go",
	"go.sum":         "go",
	"package.json":   "javascript",
	"requirements":   "python",
	"cargo.toml":     "rust",
}

// FallbackSkills derives a deterministic skill list from issue labels and
// modified file names. Used when no LLM key is configured, so profiles and
// search still work end to end.
func FallbackSkills(labels, files []string) []string {
	set := make(map[string]struct{})

	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		// Strip scope prefixes like "kind/" or "area:".
		for _, sep := range []string{"/", ":"} {
			if idx := strings.Index(label, sep); idx >= 0 {
				label = strings.TrimSpace(label[idx+1:])
			}
		}
		if label != "" {
			set[label] = struct{}{}
		}
	}

	for _, file := range files {
		base := strings.ToLower(path.Base(file))
		if skill, ok := extensionSkills[path.Ext(base)]; ok {
			set[skill] = struct{}{}
			continue
		}
		for prefix, skill := range specialFileSkills {
			if strings.HasPrefix(base, prefix) {
				set[skill] = struct{}{}
				break
			}
		}
	}

	out := make([]string, 0, len(set))
	for skill := range set {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

func splitDelimited(cell, delim string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitList splits a ", "-joined label cell.
func splitList(cell string) []string {
	return splitDelimited(cell, ",")
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func uniqueSorted(items []string) []string {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
