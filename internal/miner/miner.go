package miner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v60/github"
)

// Fetcher is the slice of the GitHub client the miner needs. The concrete
// implementation lives in internal/integrations/github and handles
// pagination, caching and rate limiting.
type Fetcher interface {
	// MergedPullRequests returns up to limit merged PRs, most recently
	// updated first.
	MergedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*gh.PullRequest, error)

	// ClosingIssueNumbers returns the issues GitHub itself links to a PR via
	// the closingIssuesReferences connection.
	ClosingIssueNumbers(ctx context.Context, owner, repo string, prNumber int) ([]int, error)

	GetIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*gh.IssueComment, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*gh.CommitFile, error)
	ListPullRequestCommits(ctx context.Context, owner, repo string, number int) ([]*gh.RepositoryCommit, error)
}

// Options configure a mining pass.
type Options struct {
	// MaxPRs caps how many merged PRs are processed per repository.
	MaxPRs int

	// Delims control multi-value flattening in the produced records.
	Delims Delimiters
}

// Miner walks a repository's merged PRs and produces issue-centric records.
type Miner struct {
	fetcher Fetcher
	opts    Options
}

// New creates a Miner. A zero MaxPRs defaults to 500, matching the original
// dataset builder.
func New(fetcher Fetcher, opts Options) *Miner {
	if opts.MaxPRs <= 0 {
		opts.MaxPRs = 500
	}
	if opts.Delims == (Delimiters{}) {
		opts.Delims = DefaultDelimiters()
	}
	return &Miner{fetcher: fetcher, opts: opts}
}

// prInfo is the intermediate PR-to-issues mapping entry.
type prInfo struct {
	pr     *gh.PullRequest
	issues []int
}

// MineRepo processes a repository: map merged PRs to referenced issues,
// invert into an issue-centric structure, then enrich each issue and its
// linked PRs. Individual item failures are logged and skipped; only listing
// the PRs at all is fatal.
func (m *Miner) MineRepo(ctx context.Context, owner, repo string) (RepoData, error) {
	fullName := owner + "/" + repo

	prs, err := m.fetcher.MergedPullRequests(ctx, owner, repo, m.opts.MaxPRs)
	if err != nil {
		return nil, fmt.Errorf("failed to list merged PRs for %s: %w", fullName, err)
	}
	log.Printf("[miner] %s: processing %d merged PRs", fullName, len(prs))

	// Step 1: PR -> issue mapping from body keywords plus GraphQL links.
	var linked []prInfo
	for _, pr := range prs {
		refs := ReferencedIssues(pr.GetBody())

		gqlRefs, err := m.fetcher.ClosingIssueNumbers(ctx, owner, repo, pr.GetNumber())
		if err != nil {
			// Regex references still stand; GraphQL is best-effort.
			log.Printf("[miner] %s#%d: closing references lookup failed: %v", fullName, pr.GetNumber(), err)
		}

		refs = mergeIssueNumbers(refs, gqlRefs)
		if len(refs) == 0 {
			continue
		}
		linked = append(linked, prInfo{pr: pr, issues: refs})
	}
	log.Printf("[miner] %s: %d PRs reference issues", fullName, len(linked))

	// Step 2: invert into issue-centric records.
	data := make(RepoData)
	for _, info := range linked {
		for _, issueNumber := range info.issues {
			key := strconv.Itoa(issueNumber)
			rec, ok := data[key]
			if !ok {
				rec = &IssueRecord{IssueNumber: issueNumber}
				data[key] = rec
			}

			mergedAt := ""
			if !info.pr.GetMergedAt().IsZero() {
				mergedAt = info.pr.GetMergedAt().Format(timeLayout)
			}

			rec.LinkedPRs = append(rec.LinkedPRs, LinkedPR{
				Number:   info.pr.GetNumber(),
				Title:    info.pr.GetTitle(),
				Author:   info.pr.GetUser().GetLogin(),
				MergedAt: mergedAt,
				MergedBy: info.pr.GetMergedBy().GetLogin(),
			})
		}
	}

	// Step 3: enrich issues and their linked PRs.
	for _, key := range sortedKeys(data) {
		rec := data[key]
		m.enrichIssue(ctx, owner, repo, rec)

		solvers := make(map[string]struct{})
		for i := range rec.LinkedPRs {
			m.enrichLinkedPR(ctx, owner, repo, rec, &rec.LinkedPRs[i], solvers)
		}

		rec.Solvers = sortedSet(solvers)
	}

	return data, nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00" // RFC 3339, as the original emits

// enrichIssue fills issue metadata and joined comments. Failures leave the
// record partially filled and are logged, matching the per-item tolerance of
// the original builder.
func (m *Miner) enrichIssue(ctx context.Context, owner, repo string, rec *IssueRecord) {
	issue, err := m.fetcher.GetIssue(ctx, owner, repo, rec.IssueNumber)
	if err != nil {
		log.Printf("[miner] failed to fetch issue %s/%s#%d: %v", owner, repo, rec.IssueNumber, err)
		return
	}

	rec.Title = issue.GetTitle()
	rec.Body = issue.GetBody()
	rec.State = issue.GetState()
	rec.OpenedBy = issue.GetUser().GetLogin()
	if !issue.GetCreatedAt().IsZero() {
		rec.CreatedAt = issue.GetCreatedAt().Format(timeLayout)
	}
	if !issue.GetClosedAt().IsZero() {
		rec.ClosedAt = issue.GetClosedAt().Format(timeLayout)
	}

	rec.Labels = rec.Labels[:0]
	for _, label := range issue.Labels {
		rec.Labels = append(rec.Labels, label.GetName())
	}

	comments, err := m.fetcher.ListIssueComments(ctx, owner, repo, rec.IssueNumber)
	if err != nil {
		log.Printf("[miner] failed to fetch comments for %s/%s#%d: %v", owner, repo, rec.IssueNumber, err)
		return
	}

	bodies := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.GetBody())
	}
	rec.Comments = strings.Join(bodies, m.opts.Delims.Comment)
}

// enrichLinkedPR fills file changes and commit messages for one linked PR and
// accumulates its commit authors into the solver set.
func (m *Miner) enrichLinkedPR(ctx context.Context, owner, repo string, rec *IssueRecord, pr *LinkedPR, solvers map[string]struct{}) {
	files, err := m.fetcher.ListPullRequestFiles(ctx, owner, repo, pr.Number)
	if err != nil {
		log.Printf("[miner] failed to fetch files for %s/%s#%d: %v", owner, repo, pr.Number, err)
	} else {
		changes := make([]FileChange, 0, len(files))
		for _, f := range files {
			changes = append(changes, FileChange{
				Filename:  f.GetFilename(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Changes:   f.GetChanges(),
				Status:    f.GetStatus(),
				Patch:     strings.ReplaceAll(f.GetPatch(), "\n", m.opts.Delims.PatchNewline),
			})
		}

		pr.FileChanges = FormatFileChanges(pr.Number, changes, m.opts.Delims)
		rec.FileChanges = append(rec.FileChanges, pr.FileChanges)
	}

	commits, err := m.fetcher.ListPullRequestCommits(ctx, owner, repo, pr.Number)
	if err != nil {
		log.Printf("[miner] failed to fetch commits for %s/%s#%d: %v", owner, repo, pr.Number, err)
		return
	}

	messages := make([]string, 0, len(commits))
	for _, c := range commits {
		messages = append(messages, c.GetCommit().GetMessage())
		if login := c.GetAuthor().GetLogin(); login != "" {
			solvers[login] = struct{}{}
		}
	}

	pr.CommitMessages = strings.Join(messages, m.opts.Delims.CommitMsg)
	if pr.CommitMessages != "" {
		rec.CommitMessages += m.opts.Delims.CommitMsg + pr.CommitMessages
	}
}

func sortedKeys(data RepoData) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
