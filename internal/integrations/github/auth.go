package github

import (
	"context"
	"net/http"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v60/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
)

// NewClient creates a GitHub client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. oauth2 token injection (skipped when token is empty)
//
// The mining pass replays largely unchanged resources across runs, so the
// conditional-request cache keeps most calls off the core rate limit budget.
func NewClient(ctx context.Context, token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		authCtx := context.WithValue(ctx, oauth2.HTTPClient, rateLimitClient)
		httpClient = oauth2.NewClient(authCtx, ts)
	} else {
		httpClient = rateLimitClient
	}

	return &Client{
		gh:      gh.NewClient(httpClient),
		graphql: NewGraphQLClient(httpClient, token),
	}
}
