package commands

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/integrations/gemini"
	"github.com/resolverank/resolverank/internal/integrations/qdrant"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

var (
	indexWorkers int
	indexDryRun  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed contributor profiles into the vector database",
	Long: `Embed each stored contributor profile and upsert it into the Qdrant
collection, one point per contributor. The collection is created with the
embedder's dimensionality when it does not exist yet.`,
	Run: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().IntVar(&indexWorkers, "workers", 5, "Number of concurrent embedding workers")
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "Embed nothing, just report what would be indexed")
}

func runIndex(cmd *cobra.Command, args []string) {
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

	profiles, err := sqlite.NewProfileRepo(db).ListByKind(ctx, sqlite.ProfileKindContributor)
	if err != nil {
		log.Fatalf("failed to list contributor profiles: %v", err)
	}
	if len(profiles) == 0 {
		log.Fatal("no contributor profiles in store, run profile first")
	}

	if indexDryRun {
		for _, p := range profiles {
			log.Printf("[index] would index %s (%d resolved, %d skills)", p.Key, p.ResolvedCount, len(p.Skills))
		}
		log.Printf("[index] dry run, %d profiles", len(profiles))
		return
	}

	embedder, err := gemini.NewEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model)
	if err != nil {
		log.Fatalf("failed to initialize embedder: %v", err)
	}
	defer embedder.Close()

	store, err := qdrant.NewClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	collection := cfg.Qdrant.Collection
	if err := store.CreateCollection(ctx, collection, embedder.Dimensions()); err != nil {
		log.Fatalf("failed to create collection %s: %v", collection, err)
	}

	workers := indexWorkers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan sqlite.Profile, workers)
	var wg sync.WaitGroup
	var indexed, failed atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for p := range jobs {
				if err := indexProfile(ctx, embedder, store, collection, p); err != nil {
					log.Printf("[index] worker %d: %s failed: %v", id, p.Key, err)
					failed.Add(1)
					continue
				}
				indexed.Add(1)
			}
		}(i)
	}

	for _, p := range profiles {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	log.Printf("[index] done: %d indexed, %d failed, collection %s", indexed.Load(), failed.Load(), collection)
}

func indexProfile(ctx context.Context, embedder *gemini.Embedder, store qdrant.VectorStore, collection string, p sqlite.Profile) error {
	vector, err := embedder.Embed(ctx, p.Content)
	if err != nil {
		return err
	}

	// Deterministic ID per login keeps reindex runs idempotent.
	point := &qdrant.Point{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.Key)).String(),
		Vector: vector,
		Payload: map[string]interface{}{
			"login":          p.Key,
			"text":           p.Content,
			"skills":         p.Skills,
			"repos":          p.Repos,
			"resolved_count": int64(p.ResolvedCount),
			"skill_source":   p.Source,
		},
	}

	return store.Upsert(ctx, collection, []*qdrant.Point{point})
}
