// Command importer runs the one-shot bulk import pipeline: the
// Food.com recipes pass, the interactions/ratings pass, search index
// rebuild, and optional dataset download.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"meal-planner/internal/core/importer"
	"meal-planner/internal/core/search"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config

	recipesFile string
	batchSize   int
	limit       int

	ratingsFile string

	fetchURL  string
	fetchDest string
)

func main() {
	root := &cobra.Command{
		Use:   "importer",
		Short: "Bulk import the Food.com dataset into the meal planner store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err == nil {
				fmt.Println("Loaded .env")
			}
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := common.InitLogger(cfg.LogLevel); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			common.Sync()
		},
	}

	recipesCmd := &cobra.Command{
		Use:   "recipes",
		Short: "Import the recipes CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(db *sql.DB) error {
				if batchSize <= 0 {
					batchSize = cfg.Import.BatchSize
				}
				count, err := importer.ImportRecipes(cmd.Context(), db, recipesFile, importer.Options{
					BatchSize: batchSize,
					Limit:     limit,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d recipes\n", count)
				return nil
			})
		},
	}
	recipesCmd.Flags().StringVar(&recipesFile, "file", "", "path to the recipes CSV (required)")
	recipesCmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per transaction (default from config)")
	recipesCmd.Flags().IntVar(&limit, "limit", 0, "stop after this many rows (0 = no limit)")
	recipesCmd.MarkFlagRequired("file")

	ratingsCmd := &cobra.Command{
		Use:   "ratings",
		Short: "Import the interactions CSV and aggregate ratings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(db *sql.DB) error {
				if batchSize <= 0 {
					batchSize = cfg.Import.RatingsBatchSize
				}
				result, err := importer.ImportRatings(cmd.Context(), db, ratingsFile, batchSize)
				if err != nil {
					return err
				}
				fmt.Printf("Updated %d recipes, skipped %d\n", result.Updated, result.Skipped)
				return nil
			})
		},
	}
	ratingsCmd.Flags().StringVar(&ratingsFile, "file", "", "path to the interactions CSV (required)")
	ratingsCmd.Flags().IntVar(&batchSize, "batch-size", 0, "updates per transaction (default from config)")
	ratingsCmd.MarkFlagRequired("file")

	rebuildCmd := &cobra.Command{
		Use:   "rebuild-index",
		Short: "Rebuild the search index from recipe rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(db *sql.DB) error {
				count, err := search.RebuildIndex(db)
				if err != nil {
					return err
				}
				fmt.Printf("Reindexed %d recipes\n", count)
				return nil
			})
		},
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a dataset file over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importer.FetchDataset(cmd.Context(), fetchURL, fetchDest)
		},
	}
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "dataset URL (required)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "destination path (required)")
	fetchCmd.MarkFlagRequired("url")
	fetchCmd.MarkFlagRequired("dest")

	root.AddCommand(recipesCmd, ratingsCmd, rebuildCmd, fetchCmd)

	if err := root.Execute(); err != nil {
		common.LogError("importer failed", zap.Error(err))
		os.Exit(1)
	}
}

// withStore opens the configured store, applies migrations and runs fn.
func withStore(fn func(db *sql.DB) error) error {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return fn(db)
}
