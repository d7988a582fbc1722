package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// LLMClient provides LLM-based skill extraction and candidate scoring.
type LLMClient struct {
	provider    Provider
	gemini      *genai.Client
	openAI      *http.Client
	apiKey      string
	model       string
	retryConfig RetryConfig
}

// IssueInput represents the issue data fed to the LLM.
type IssueInput struct {
	Title    string
	Body     string
	Labels   []string
	Comments string
}

// ContributorInput represents a contributor's mined history fed to the LLM
// for skill extraction.
type ContributorInput struct {
	Login          string
	Repos          []string
	IssueTitles    []string
	ModifiedFiles  []string
	CommitMessages []string
}

// CandidateInput represents one contributor considered for an open issue.
type CandidateInput struct {
	Login        string
	Skills       []string
	SolvedTitles []string
	Similarity   float64
}

// ScoreInput is the full scoring request: the issue plus one candidate.
type ScoreInput struct {
	Issue       *IssueInput
	IssueSkills []string
	Candidate   *CandidateInput
}

// ScoreResult holds the LLM's fit assessment for one candidate.
type ScoreResult struct {
	Confidence float64 `json:"confidence"` // 0.0-1.0
	Reasoning  string  `json:"reasoning"`
}

// NewLLMClient creates a new LLM client. Like the embedder, it resolves
// the provider from the environment.
func NewLLMClient(apiKey, model string) (*LLMClient, error) {
	provider, resolvedKey, err := ResolveProvider(apiKey)
	if err != nil {
		return nil, err
	}

	l := &LLMClient{
		provider:    provider,
		apiKey:      resolvedKey,
		retryConfig: DefaultRetryConfig(),
	}

	switch provider {
	case ProviderGemini:
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(resolvedKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		l.gemini = client
		if strings.TrimSpace(model) == "" {
			model = "gemini-2.0-flash-lite"
		}
	case ProviderOpenAI:
		l.openAI = &http.Client{Timeout: 90 * time.Second}
		if strings.TrimSpace(model) == "" {
			model = "gpt-4o-mini"
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	l.model = strings.TrimSpace(model)
	return l, nil
}

// Close closes the underlying provider clients.
func (l *LLMClient) Close() error {
	if l.gemini != nil {
		return l.gemini.Close()
	}
	return nil
}

// Provider returns the resolved provider.
func (l *LLMClient) Provider() string {
	return string(l.provider)
}

// Model returns the resolved model.
func (l *LLMClient) Model() string {
	return l.model
}

// ExtractIssueSkills derives the technical skills an issue demands.
func (l *LLMClient) ExtractIssueSkills(ctx context.Context, issue *IssueInput) ([]string, error) {
	raw, err := l.generateJSON(ctx, "ExtractIssueSkills", buildIssueSkillsPrompt(issue))
	if err != nil {
		return nil, err
	}
	return parseSkillsResponse(raw)
}

// ExtractContributorSkills derives a contributor's skills from their mined
// resolution history.
func (l *LLMClient) ExtractContributorSkills(ctx context.Context, contributor *ContributorInput) ([]string, error) {
	raw, err := l.generateJSON(ctx, "ExtractContributorSkills", buildContributorSkillsPrompt(contributor))
	if err != nil {
		return nil, err
	}
	return parseSkillsResponse(raw)
}

// ScoreCandidate asks the LLM how well one candidate fits an issue.
func (l *LLMClient) ScoreCandidate(ctx context.Context, input *ScoreInput) (*ScoreResult, error) {
	raw, err := l.generateJSON(ctx, "ScoreCandidate", buildScoreCandidatePrompt(input))
	if err != nil {
		return nil, err
	}
	return parseScoreResponse(raw)
}

// generateJSON runs a prompt expecting a JSON object back, retrying
// transient provider errors.
func (l *LLMClient) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	switch l.provider {
	case ProviderGemini:
		return withRetry(ctx, l.retryConfig, operation, func() (string, error) {
			return l.generateGemini(ctx, prompt)
		})
	case ProviderOpenAI:
		return withRetry(ctx, l.retryConfig, operation, func() (string, error) {
			return l.generateOpenAI(ctx, prompt)
		})
	default:
		return "", fmt.Errorf("unsupported provider: %s", l.provider)
	}
}

func (l *LLMClient) generateGemini(ctx context.Context, prompt string) (string, error) {
	model := l.gemini.GenerativeModel(l.model)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}

	var responseText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText += string(txt)
		}
	}
	return responseText, nil
}

func (l *LLMClient) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	req := struct {
		Model          string `json:"model"`
		Temperature    float64 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}{
		Model:       l.model,
		Temperature: 0.3,
	}
	req.ResponseFormat.Type = "json_object"
	req.Messages = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{
		{Role: "user", Content: prompt},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := callOpenAIJSON(ctx, l.openAI, l.apiKey, "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from LLM")
	}

	return resp.Choices[0].Message.Content, nil
}

// parseSkillsResponse parses {"skills": [...]} and normalizes the list:
// lowercase, trimmed, de-duplicated, sorted.
func parseSkillsResponse(raw string) ([]string, error) {
	var result struct {
		Skills []string `json:"skills"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse skills response: %w", err)
	}

	seen := make(map[string]struct{})
	skills := make([]string, 0, len(result.Skills))
	for _, s := range result.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}
	sort.Strings(skills)

	return skills, nil
}

// parseScoreResponse parses a score object and clamps confidence to [0, 1].
func parseScoreResponse(raw string) (*ScoreResult, error) {
	var result ScoreResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse score response: %w", err)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	result.Reasoning = strings.TrimSpace(result.Reasoning)

	return &result, nil
}
