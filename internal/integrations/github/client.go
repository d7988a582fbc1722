// Package github wraps the go-github REST client and a minimal GraphQL
// client behind the fetch operations the miner and recommender need.
package github

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// Client wraps the GitHub API clients.
type Client struct {
	gh      *gh.Client
	graphql *GraphQLClient
}

// NewClientWithHTTPClient creates a Client against a custom base URL.
// Intended for tests, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	client.BaseURL = u

	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		gh:      client,
		graphql: newGraphQLClientWithEndpoint(httpClient, "", graphqlU.String()),
	}, nil
}

// MergedPullRequests returns up to limit merged pull requests, most recently
// updated first. It pages through closed PRs and filters to merged ones.
func (c *Client) MergedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*gh.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var merged []*gh.PullRequest

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PRs for %s/%s (page %d): %w", owner, repo, opts.Page, err)
		}

		logRateLimit(resp, fmt.Sprintf("%s/%s/pulls", owner, repo))

		for _, pr := range prs {
			if pr.MergedAt == nil {
				continue
			}
			merged = append(merged, pr)
			if len(merged) >= limit {
				return merged, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return merged, nil
}

// ClosingIssueNumbers returns the issue numbers GitHub links to a PR via the
// closingIssuesReferences connection.
func (c *Client) ClosingIssueNumbers(ctx context.Context, owner, repo string, prNumber int) ([]int, error) {
	return c.graphql.ClosingIssueNumbers(ctx, owner, repo, prNumber)
}

// GetIssue fetches issue details.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error) {
	issue, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return issue, nil
}

// ListIssueComments returns all comments on an issue, paginated.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []*gh.IssueComment
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}
		all = append(all, comments...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListPullRequestFiles returns all changed files of a PR, paginated.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]*gh.CommitFile, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var all []*gh.CommitFile
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}
		all = append(all, files...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListPullRequestCommits returns all commits of a PR, paginated.
func (c *Client) ListPullRequestCommits(ctx context.Context, owner, repo string, number int) ([]*gh.RepositoryCommit, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var all []*gh.RepositoryCommit
	for {
		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}
		all = append(all, commits...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetFileContent fetches a file's raw content from a repository. An empty
// ref means the default branch.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}

	content, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s/%s: %w", path, owner, repo, err)
	}
	if content == nil {
		return nil, fmt.Errorf("%s in %s/%s is not a file", path, owner, repo)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s from %s/%s: %w", path, owner, repo, err)
	}

	return []byte(decoded), nil
}

// logRateLimit warns when the remaining core rate limit budget runs low.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		log.Printf("[github] rate limit low on %s: %d remaining, resets in %s",
			endpoint, resp.Rate.Remaining, time.Until(resp.Rate.Reset.Time).Round(time.Second))
	}
}
