package gemini

import (
	"fmt"
	"strings"
)

// buildIssueSkillsPrompt asks for the technical skills an issue demands.
func buildIssueSkillsPrompt(issue *IssueInput) string {
	return fmt.Sprintf(`You are analyzing a GitHub issue to determine which technical skills are needed to resolve it.

Issue:
- Title: %s
- Body: %s
- Labels: %s
- Comments: %s

List the concrete technical skills a developer needs to fix this issue. Prefer specific technologies, subsystems and techniques (for example "grpc", "sql query optimization", "react hooks") over vague terms like "programming".

Respond with JSON only:
{"skills": ["skill1", "skill2", ...]}

Keep the list between 3 and 10 skills.`,
		issue.Title,
		truncate(issue.Body, 2000),
		strings.Join(issue.Labels, ", "),
		truncate(issue.Comments, 1000),
	)
}

// buildContributorSkillsPrompt asks for a contributor's skills based on
// their resolution history.
func buildContributorSkillsPrompt(c *ContributorInput) string {
	return fmt.Sprintf(`You are profiling the technical skills of GitHub contributor %q based on issues they have resolved.

Repositories: %s

Titles of issues they resolved:
%s

Files they modified:
%s

Their commit messages:
%s

List the technical skills this contributor has demonstrated. Prefer specific technologies, subsystems and techniques over vague terms.

Respond with JSON only:
{"skills": ["skill1", "skill2", ...]}

Keep the list between 3 and 15 skills.`,
		c.Login,
		strings.Join(c.Repos, ", "),
		truncate(bulleted(c.IssueTitles), 1500),
		truncate(bulleted(c.ModifiedFiles), 1500),
		truncate(bulleted(c.CommitMessages), 1500),
	)
}

// buildScoreCandidatePrompt asks how well one candidate fits an issue.
func buildScoreCandidatePrompt(input *ScoreInput) string {
	return fmt.Sprintf(`You are matching a GitHub contributor to an open issue.

Open issue:
- Title: %s
- Body: %s
- Skills required: %s

Candidate %q:
- Demonstrated skills: %s
- Previously resolved issues:
%s
- Embedding similarity to this issue: %.2f

Assess how well this candidate's demonstrated experience fits the issue. Weigh overlap in skills and in the kind of problems they have resolved before. Similarity alone is not enough; explain the match in terms of concrete skills.

Respond with JSON only:
{"confidence": 0.0-1.0, "reasoning": "one or two sentences"}`,
		input.Issue.Title,
		truncate(input.Issue.Body, 1500),
		strings.Join(input.IssueSkills, ", "),
		input.Candidate.Login,
		strings.Join(input.Candidate.Skills, ", "),
		truncate(bulleted(input.Candidate.SolvedTitles), 1000),
		input.Candidate.Similarity,
	)
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncate limits a string to a maximum length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
