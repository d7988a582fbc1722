package commands

import (
	"context"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/resolverank/resolverank/internal/miner"
	"github.com/resolverank/resolverank/internal/store/sqlite"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dataset from the store",
	Long: `Export the contributor-issue dataset from the SQLite store as CSV (the
fixed 14-column layout) or JSON.`,
	Run: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (defaults to dataset.output from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or json")
}

func runExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig(ctx)

	if exportFormat != "csv" && exportFormat != "json" {
		log.Fatalf("unsupported format %q (expected csv or json)", exportFormat)
	}

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

	output := exportOutput
	if output == "" {
		output = cfg.Dataset.Output
	}

	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", output, err)
	}
	defer f.Close()

	switch exportFormat {
	case "csv":
		err = miner.WriteCSV(f, rows)
	case "json":
		err = miner.WriteJSON(f, rows)
	}
	if err != nil {
		log.Fatalf("failed to write %s: %v", output, err)
	}

	log.Printf("[export] wrote %s rows to %s", humanize.Comma(int64(len(rows))), output)
}
