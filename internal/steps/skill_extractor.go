package steps

import (
	"log"
	"strings"

	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/utils/text"
)

// SkillExtractor derives the issue's required-skills document. With an LLM
// configured it extracts a skill list; without one it falls back to the
// normalized title/body/labels content.
type SkillExtractor struct {
	llm pipeline.SkillLLM
}

// NewSkillExtractor creates a new skill extraction step.
func NewSkillExtractor(deps *pipeline.Dependencies) *SkillExtractor {
	return &SkillExtractor{llm: deps.LLM}
}

// Name returns the step name.
func (s *SkillExtractor) Name() string {
	return "skill_extractor"
}

// Run produces ctx.SkillsText for the search and ranking steps.
func (s *SkillExtractor) Run(ctx *pipeline.Context) error {
	content := text.BuildIssueContent(ctx.Issue.Title, ctx.Issue.Body, ctx.Issue.Labels, nil)

	if s.llm == nil {
		log.Printf("[skill_extractor] no LLM configured, using normalized issue content for #%d", ctx.Issue.Number)
		ctx.SkillsText = content
		return nil
	}

	body := ctx.Issue.Body
	// Oversized bodies are chunked and only the leading chunk is sent; the
	// opening of an issue carries the problem statement.
	chunks := text.NewRecursiveCharacterSplitter().SplitText(body)
	if len(chunks) > 1 {
		log.Printf("[skill_extractor] #%d body split into %d chunks, extracting from the first", ctx.Issue.Number, len(chunks))
		body = chunks[0]
	}

	skills, err := s.llm.ExtractIssueSkills(ctx.Ctx, &gemini.IssueInput{
		Title:  ctx.Issue.Title,
		Body:   body,
		Labels: ctx.Issue.Labels,
	})
	if err != nil {
		// Extraction is best-effort; the normalized content still embeds.
		log.Printf("[skill_extractor] extraction failed for #%d, falling back: %v", ctx.Issue.Number, err)
		ctx.SkillsText = content
		return nil
	}

	ctx.Result.IssueSkills = skills
	// Skills lead the document so the embedding is dominated by them.
	ctx.SkillsText = "Skills: " + strings.Join(skills, ", ") + "\n\n" + content

	log.Printf("[skill_extractor] #%d requires: %s", ctx.Issue.Number, strings.Join(skills, ", "))
	return nil
}
