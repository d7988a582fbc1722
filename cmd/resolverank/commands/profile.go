package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/profile"
	"github.com/resolverank/resolverank/internal/store/sqlite"
	"github.com/resolverank/resolverank/internal/utils/text"
)

var profileOutputDir string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build contributor and issue skill profiles from the dataset",
	Long: `Group the stored dataset pairs by contributor and by issue, extract a
skill list for each (LLM extraction when an API key is configured, otherwise
a deterministic fallback from labels and file extensions), store the
profiles, and write contributor_skills.csv, issue_skills.csv and
skill_superset.csv.`,
	Run: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVar(&profileOutputDir, "output-dir", ".", "Directory for the skill CSV files")
}

func runProfile(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig(ctx)

	db, err := sqlite.NewDB(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		log.Fatalf("failed to migrate store: %v", err)
	}

	rows, err := sqlite.NewPairRepo(db).ListAll(ctx)
	if err != nil {
		log.Fatalf("failed to read dataset: %v", err)
	}
	if len(rows) == 0 {
		log.Fatal("store is empty, run mine first")
	}

	llm := newLLMClient(cfg)
	if llm != nil {
		defer llm.Close()
		log.Printf("[profile] using %s (%s) for skill extraction", llm.Provider(), llm.Model())
	} else {
		log.Println("[profile] no LLM key configured, using deterministic fallback skills")
	}

	profiles := sqlite.NewProfileRepo(db)
	delims := cfg.Dataset.Delimiters
	superset := make(map[string]struct{})

	contributors := profile.AggregateContributors(rows, delims)
	contributorProfiles := make([]*sqlite.Profile, 0, len(contributors))
	for _, agg := range contributors {
		skills, source := contributorSkills(ctx, llm, agg)
		for _, s := range skills {
			superset[s] = struct{}{}
		}

		p := &sqlite.Profile{
			Kind:          sqlite.ProfileKindContributor,
			Key:           agg.Login,
			Skills:        skills,
			Source:        source,
			Repos:         agg.Repos,
			ResolvedCount: agg.ResolvedCount,
			Content: text.BuildProfileContent(text.ProfileInput{
				Login:          agg.Login,
				Repos:          agg.Repos,
				Skills:         skills,
				IssueTitles:    agg.IssueTitles,
				Labels:         agg.Labels,
				ModifiedFiles:  agg.ModifiedFiles,
				CommitMessages: agg.CommitMessages,
			}),
		}
		if err := profiles.Upsert(ctx, p); err != nil {
			log.Fatalf("failed to store profile for %s: %v", agg.Login, err)
		}
		contributorProfiles = append(contributorProfiles, p)
	}
	log.Printf("[profile] built %s contributor profiles", humanize.Comma(int64(len(contributorProfiles))))

	issues := profile.AggregateIssues(rows, delims)
	issueProfiles := make([]*sqlite.Profile, 0, len(issues))
	for _, agg := range issues {
		skills, source := issueSkills(ctx, llm, agg)
		for _, s := range skills {
			superset[s] = struct{}{}
		}

		p := &sqlite.Profile{
			Kind:    sqlite.ProfileKindIssue,
			Key:     agg.Key,
			Skills:  skills,
			Source:  source,
			Repos:   []string{agg.Repo},
			Content: text.BuildIssueContent(agg.Title, agg.Body, agg.Labels, nil),
		}
		if err := profiles.Upsert(ctx, p); err != nil {
			log.Fatalf("failed to store profile for %s: %v", agg.Key, err)
		}
		issueProfiles = append(issueProfiles, p)
	}
	log.Printf("[profile] built %s issue profiles", humanize.Comma(int64(len(issueProfiles))))

	if err := writeSkillCSVs(contributorProfiles, issueProfiles, superset); err != nil {
		log.Fatalf("failed to write skill CSVs: %v", err)
	}
	log.Printf("[profile] wrote skill CSVs to %s (%d distinct skills)", profileOutputDir, len(superset))
}

// newLLMClient returns a client when any LLM key is available, nil
// otherwise.
func newLLMClient(cfg *config.Config) *gemini.LLMClient {
	key := cfg.LLM.APIKey
	if key == "" && os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
		return nil
	}
	llm, err := gemini.NewLLMClient(key, cfg.LLM.Model)
	if err != nil {
		log.Printf("[profile] WARNING: failed to initialize LLM client, using fallback: %v", err)
		return nil
	}
	return llm
}

func contributorSkills(ctx context.Context, llm *gemini.LLMClient, agg profile.ContributorAggregate) ([]string, string) {
	if llm != nil {
		skills, err := llm.ExtractContributorSkills(ctx, &gemini.ContributorInput{
			Login:          agg.Login,
			Repos:          agg.Repos,
			IssueTitles:    agg.IssueTitles,
			ModifiedFiles:  agg.ModifiedFiles,
			CommitMessages: agg.CommitMessages,
		})
		if err == nil {
			return skills, sqlite.SkillSourceLLM
		}
		log.Printf("[profile] WARNING: LLM extraction for %s failed, falling back: %v", agg.Login, err)
	}
	return profile.FallbackSkills(agg.Labels, agg.ModifiedFiles), sqlite.SkillSourceFallback
}

func issueSkills(ctx context.Context, llm *gemini.LLMClient, agg profile.IssueAggregate) ([]string, string) {
	if llm != nil {
		skills, err := llm.ExtractIssueSkills(ctx, &gemini.IssueInput{
			Title:  agg.Title,
			Body:   agg.Body,
			Labels: agg.Labels,
		})
		if err == nil {
			return skills, sqlite.SkillSourceLLM
		}
		log.Printf("[profile] WARNING: LLM extraction for %s failed, falling back: %v", agg.Key, err)
	}
	return profile.FallbackSkills(agg.Labels, agg.ModifiedFiles), sqlite.SkillSourceFallback
}

func writeSkillCSVs(contributors, issues []*sqlite.Profile, superset map[string]struct{}) error {
	contributorRows := [][]string{{"contributor_id", "skills", "source", "resolved_count"}}
	for _, p := range contributors {
		contributorRows = append(contributorRows, []string{
			p.Key, strings.Join(p.Skills, "; "), p.Source, strconv.Itoa(p.ResolvedCount),
		})
	}
	if err := writeCSVFile("contributor_skills.csv", contributorRows); err != nil {
		return err
	}

	issueRows := [][]string{{"issue", "skills", "source"}}
	for _, p := range issues {
		issueRows = append(issueRows, []string{p.Key, strings.Join(p.Skills, "; "), p.Source})
	}
	if err := writeCSVFile("issue_skills.csv", issueRows); err != nil {
		return err
	}

	skills := make([]string, 0, len(superset))
	for s := range superset {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	supersetRows := [][]string{{"skill"}}
	for _, s := range skills {
		supersetRows = append(supersetRows, []string{s})
	}
	return writeCSVFile("skill_superset.csv", supersetRows)
}

func writeCSVFile(name string, rows [][]string) error {
	path := filepath.Join(profileOutputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
