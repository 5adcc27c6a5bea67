package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tr2ynab/tr2ynab/pkg/config"
	"github.com/tr2ynab/tr2ynab/pkg/history"
	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
)

var recentCount int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display import statistics",
	Long: `Display statistics about imported transactions.

Shows:
- Total number of imported transactions
- First and last import timestamps
- The checkpoint the next sync continues from

Example:
  tr2ynab stats
  tr2ynab stats --recent 10`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&recentCount, "recent", 0, "Also list the N most recent imports")
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	// Initialize PathResolver
	pathResolver := pathutil.New(pathutil.Config{
		DatabasePath: cfg.Main.DBPath,
		ArchiveDir:   cfg.Main.ArchiveDir,
	})

	// Open database connection
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := history.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	importHistory := history.NewImportHistory(conn)

	// Get statistics
	stats, err := importHistory.GetStats()
	exitOnError(err, "failed to get statistics")

	// Display statistics
	fmt.Println("\n=== Import Statistics ===")
	fmt.Printf("Total imported: %d\n", stats.TotalImported)

	if stats.FirstImport.Valid {
		fmt.Printf("First import:   %s\n", stats.FirstImport.String)
	}
	if stats.LastImport.Valid {
		fmt.Printf("Last import:    %s\n", stats.LastImport.String)
	}

	if stats.Checkpoint.Valid {
		fmt.Printf("Checkpoint:     %s\n", stats.Checkpoint.String)
	} else {
		fmt.Printf("Checkpoint:     (never synced)\n")
	}

	fmt.Println()

	if recentCount > 0 {
		records, err := importHistory.Recent(recentCount)
		exitOnError(err, "failed to list recent imports")

		fmt.Printf("=== Recent Imports (%d) ===\n", len(records))
		for _, record := range records {
			fmt.Printf("%s  %12s  %-14s %s\n",
				record.TxDate,
				record.Amount.Display(cfg.Main.Currency),
				record.TxType,
				record.Note,
			)
		}
		fmt.Println()
	}

	slog.Info("Statistics displayed successfully")
}
