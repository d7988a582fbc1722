package text

import (
	"fmt"
	"sort"
	"strings"
)

// Comment is a single issue comment used when building embedding content.
type Comment struct {
	Author string
	Body   string
}

// BuildIssueContent constructs the text used for skill extraction and
// embedding of an issue. Title, body, labels and comments are combined into a
// single string; empty sections are skipped.
func BuildIssueContent(title, body string, labels []string, comments []Comment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n\n", title)

	if b := strings.TrimSpace(body); b != "" {
		fmt.Fprintf(&sb, "Body: %s\n\n", b)
	}

	if len(labels) > 0 {
		fmt.Fprintf(&sb, "Labels: %s\n\n", strings.Join(labels, ", "))
	}

	hasHeader := false
	for _, c := range comments {
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		if !hasHeader {
			sb.WriteString("Comments:\n")
			hasHeader = true
		}
		fmt.Fprintf(&sb, "- %s: %s\n", c.Author, c.Body)
	}

	return sb.String()
}

// ProfileInput carries the per-contributor history used to build the text
// form of a skill profile.
type ProfileInput struct {
	Login          string
	Repos          []string
	Skills         []string
	IssueTitles    []string
	Labels         []string
	ModifiedFiles  []string
	CommitMessages []string
}

// BuildProfileContent constructs the text representation of a contributor
// profile. When extracted skills are present they lead the document, so the
// embedding is dominated by skills rather than raw history.
func BuildProfileContent(in ProfileInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Contributor: %s\n", in.Login)

	if len(in.Repos) > 0 {
		fmt.Fprintf(&sb, "Repositories: %s\n", strings.Join(in.Repos, ", "))
	}

	if len(in.Skills) > 0 {
		fmt.Fprintf(&sb, "\nSkills: %s\n", strings.Join(in.Skills, ", "))
	}

	writeSection(&sb, "Resolved issues", in.IssueTitles)
	writeSection(&sb, "Issue labels", dedupe(in.Labels))
	writeSection(&sb, "Modified files", in.ModifiedFiles)
	writeSection(&sb, "Commit messages", in.CommitMessages)

	return sb.String()
}

func writeSection(sb *strings.Builder, header string, items []string) {
	wrote := false
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		if !wrote {
			fmt.Fprintf(sb, "\n%s:\n", header)
			wrote = true
		}
		fmt.Fprintf(sb, "- %s\n", item)
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(item))
	}
	sort.Strings(out)
	return out
}
