package commands

import (
	"context"
	"log"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/core/state"
	"github.com/resolverank/resolverank/internal/integrations/github"
	"github.com/resolverank/resolverank/internal/miner"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

var (
	mineRepos      []string
	mineRefresh    bool
	mineResetState bool
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine merged PRs and resolved issues into the dataset store",
	Long: `Mine each configured repository: walk its merged pull requests, map them
to the issues they close, enrich the issues with comments, file changes,
commit messages and contributor logins, and upsert the resulting
contributor-issue pairs into the SQLite store.

Per-repo results are cached as JSON; a cached repository is loaded instead
of refetched unless --refresh is given. A checkpoint file lets an
interrupted run resume at the last finished repository.`,
	Run: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)

	mineCmd.Flags().StringSliceVar(&mineRepos, "repo", nil, "Repository to mine (owner/name, overrides config, repeatable)")
	mineCmd.Flags().BoolVar(&mineRefresh, "refresh", false, "Refetch repositories even when cached")
	mineCmd.Flags().BoolVar(&mineResetState, "reset-checkpoint", false, "Discard the mining checkpoint and start over")
}

func runMine(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig(ctx)

	repos := resolveMineTargets(cfg)
	if len(repos) == 0 {
		log.Fatal("no repositories to mine (configure repositories or pass --repo owner/name)")
	}

	token := githubToken(cfg)
	if token == "" {
		log.Fatal("GitHub token is required (set github.token or GITHUB_TOKEN)")
	}

	db, err := sqlite.NewDB(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		log.Fatalf("failed to migrate store: %v", err)
	}
	pairs := sqlite.NewPairRepo(db)

	checkpoint, err := state.LoadCheckpoint(cfg.Miner.CacheDir)
	if err != nil {
		log.Fatalf("failed to load checkpoint: %v", err)
	}
	if mineResetState {
		if err := checkpoint.Reset(); err != nil {
			log.Fatalf("failed to reset checkpoint: %v", err)
		}
	}

	client := github.NewClient(ctx, token)
	cache := miner.NewCache(cfg.Miner.CacheDir)
	m := miner.New(client, miner.Options{
		MaxPRs: cfg.Miner.MaxPRs,
		Delims: cfg.Dataset.Delimiters,
	})

	refresh := mineRefresh || cfg.Miner.Refresh
	totalRows := 0

	for _, repo := range repos {
		fullName := repo.FullName()

		if checkpoint.IsDone(fullName) && !refresh {
			log.Printf("[mine] %s already mined this run, skipping (use --reset-checkpoint to redo)", fullName)
			continue
		}

		data, cached, err := cache.Load(fullName)
		if err != nil {
			log.Printf("[mine] WARNING: unreadable cache for %s, refetching: %v", fullName, err)
			cached = false
		}

		if !cached || refresh {
			log.Printf("[mine] mining %s (max %d PRs)", fullName, cfg.Miner.MaxPRs)
			data, err = m.MineRepo(ctx, repo.Org, repo.Repo)
			if err != nil {
				log.Printf("[mine] ERROR: mining %s failed: %v", fullName, err)
				continue
			}
			if err := cache.Save(fullName, data); err != nil {
				log.Printf("[mine] WARNING: failed to cache %s: %v", fullName, err)
			}
		} else {
			log.Printf("[mine] loaded %s from cache (%d issues)", fullName, len(data))
		}

		rows := miner.Rows(fullName, data, cfg.Dataset.Delimiters)
		if err := pairs.Upsert(ctx, rows); err != nil {
			log.Printf("[mine] ERROR: storing %s failed: %v", fullName, err)
			continue
		}
		totalRows += len(rows)

		if err := checkpoint.MarkDone(fullName); err != nil {
			log.Printf("[mine] WARNING: failed to checkpoint %s: %v", fullName, err)
		}
		log.Printf("[mine] %s done: %s pairs stored", fullName, humanize.Comma(int64(len(rows))))
	}

	count, err := pairs.Count(ctx)
	if err == nil {
		log.Printf("[mine] finished, %s pairs upserted this run, %s total in store",
			humanize.Comma(int64(totalRows)), humanize.Comma(int64(count)))
	}
}

// resolveMineTargets prefers --repo flags over the config's repository list.
func resolveMineTargets(cfg *config.Config) []config.RepositoryConfig {
	if len(mineRepos) == 0 {
		return cfg.EnabledRepositories()
	}

	var repos []config.RepositoryConfig
	for _, full := range mineRepos {
		parts := strings.Split(full, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Fatalf("invalid repo %q (expected owner/name)", full)
		}
		repos = append(repos, config.RepositoryConfig{Org: parts[0], Repo: parts[1], Enabled: true})
	}
	return repos
}
