package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultGraphQLEndpoint = "https://api.github.com/graphql"

// GraphQLClient issues queries against the GitHub GraphQL API. Only the
// closingIssuesReferences connection is queried; everything else goes
// through REST.
type GraphQLClient struct {
	httpClient *http.Client
	token      string
	endpoint   string
}

// NewGraphQLClient creates a GraphQL client against api.github.com.
func NewGraphQLClient(httpClient *http.Client, token string) *GraphQLClient {
	return newGraphQLClientWithEndpoint(httpClient, token, defaultGraphQLEndpoint)
}

func newGraphQLClientWithEndpoint(httpClient *http.Client, token, endpoint string) *GraphQLClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{httpClient: httpClient, token: token, endpoint: endpoint}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// execute runs a query and unmarshals the data payload into out.
func (c *GraphQLClient) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read GraphQL response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GraphQL request returned %d: %s", resp.StatusCode, body)
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("GraphQL error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode GraphQL data: %w", err)
	}
	return nil
}

const closingIssuesQuery = `
query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      closingIssuesReferences(first: 50) {
        nodes {
          number
        }
      }
    }
  }
}`

// ClosingIssueNumbers returns issue numbers linked to the PR through the
// development sidebar or closing keywords that GitHub itself resolved.
func (c *GraphQLClient) ClosingIssueNumbers(ctx context.Context, owner, repo string, prNumber int) ([]int, error) {
	var data struct {
		Repository struct {
			PullRequest struct {
				ClosingIssuesReferences struct {
					Nodes []struct {
						Number int `json:"number"`
					} `json:"nodes"`
				} `json:"closingIssuesReferences"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}

	variables := map[string]any{
		"owner":  owner,
		"repo":   repo,
		"number": prNumber,
	}
	if err := c.execute(ctx, closingIssuesQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("closing references for %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	nodes := data.Repository.PullRequest.ClosingIssuesReferences.Nodes
	numbers := make([]int, 0, len(nodes))
	for _, n := range nodes {
		numbers = append(numbers, n.Number)
	}
	return numbers, nil
}
