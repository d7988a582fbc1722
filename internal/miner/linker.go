package miner

import (
	"regexp"
	"strconv"
	"strings"
)

// closingPatterns match issue references in PR bodies: GitHub closing
// keywords ("fixes #123") and looser "issue #123" mentions. Bodies are
// lowercased before matching, so the patterns stay lowercase.
var closingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:close|closes|closed|fix|fixes|fixed|resolve|resolves|resolved)[\s:]+#(\d+)`),
	regexp.MustCompile(`(?:issue|issues)[\s:]+#(\d+)`),
}

// ReferencedIssues extracts issue numbers referenced by a PR body.
// Duplicates are removed; first-seen order is preserved.
func ReferencedIssues(body string) []int {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	lower := strings.ToLower(body)
	seen := make(map[int]struct{})
	var numbers []int

	for _, pattern := range closingPatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			n, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			numbers = append(numbers, n)
		}
	}

	return numbers
}

// mergeIssueNumbers unions two reference lists, keeping first-seen order.
// Used to combine body-regex references with GraphQL closing references.
func mergeIssueNumbers(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	var out []int
	for _, list := range [][]int{a, b} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
