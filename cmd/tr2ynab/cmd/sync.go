package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tr2ynab/tr2ynab/pkg/archive"
	"github.com/tr2ynab/tr2ynab/pkg/config"
	"github.com/tr2ynab/tr2ynab/pkg/converter"
	"github.com/tr2ynab/tr2ynab/pkg/history"
	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
	"github.com/tr2ynab/tr2ynab/pkg/sync"
	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
	"github.com/tr2ynab/tr2ynab/pkg/ynab"
)

var (
	dryRun     bool
	sinceDate  string
	fromExport string
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Trade Republic transactions to YNAB",
	Long: `Sync transactions from Trade Republic to a YNAB account.

This command:
1. Fetches the transaction timeline from Trade Republic
2. Filters out already imported transactions
3. Converts amounts to YNAB milliunits
4. Uploads new transactions to YNAB
5. Archives them and records import history in SQLite

The first run reaches back seven days; later runs continue from the
last successful import. Trade Republic sends a login code to your
device, which the command prompts for.

Example:
  tr2ynab sync
  tr2ynab sync --dry-run
  tr2ynab sync --since 2024-01-01
  tr2ynab sync --from-export transactions.jsonl`,
	Run: runSync,
}

func init() {
	// Flags
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List transactions without uploading or writing anything")
	syncCmd.Flags().StringVar(&sinceDate, "since", "", "Fetch transactions since this date (YYYY-MM-DD), overrides the checkpoint")
	syncCmd.Flags().StringVar(&fromExport, "from-export", "", "Sync from a JSONL export file instead of the timeline")
}

func runSync(cmd *cobra.Command, args []string) {
	slog.Info("Starting sync", "dry_run", dryRun)

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	// Validate required fields
	if err := cfg.Validate(
		[]string{"ynab", "budgetId"},
		[]string{"ynab", "accountId"},
		[]string{"ynab", "accessToken"},
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	var since time.Time
	if sinceDate != "" {
		since, err = time.Parse("2006-01-02", sinceDate)
		exitOnError(err, "invalid --since date")
	}

	// Initialize components
	pathResolver := pathutil.New(pathutil.Config{
		DatabasePath: cfg.Main.DBPath,
		ArchiveDir:   cfg.Main.ArchiveDir,
	})

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := history.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	importHistory := history.NewImportHistory(conn)

	// Transactions come from an export file or from the live timeline.
	var transactions []traderepublic.Transaction
	var fetcher sync.Fetcher
	if fromExport != "" {
		transactions, err = traderepublic.ReadExportFile(fromExport)
		exitOnError(err, "failed to read export file")
		slog.Info("Read export file", "path", fromExport, "count", len(transactions))
		if len(transactions) == 0 {
			fmt.Println("No transactions in export file")
			return
		}
	} else {
		if err := cfg.Validate(
			[]string{"traderepublic", "phoneNo"},
			[]string{"traderepublic", "pin"},
		); err != nil {
			exitOnError(err, "invalid configuration")
		}

		trClient := traderepublic.NewClient(traderepublic.ClientConfig{
			APIURL:  cfg.TradeRepublic.APIURL,
			WSURL:   cfg.TradeRepublic.WSURL,
			PhoneNo: cfg.TradeRepublic.PhoneNo,
			PIN:     cfg.TradeRepublic.PIN,
			Locale:  cfg.Main.Locale,
			Timeout: 30 * time.Second,
		})

		err = login(trClient)
		exitOnError(err, "failed to log in to Trade Republic")
		fetcher = trClient
	}

	// Initialize category mapper (optional)
	var mapper *converter.Mapper
	if cfg.Main.MappingPath != "" {
		mapper, err = converter.NewMapper(pathutil.ExpandUser(cfg.Main.MappingPath))
		exitOnError(err, "failed to load category mapping")
	}

	// Initialize converter
	cvtr := converter.NewConverter(mapper, cfg.YNAB.AccountID)

	// Initialize YNAB API client
	ynabClient := ynab.NewClient(ynab.ClientConfig{
		APIURL:      cfg.YNAB.APIURL,
		AccessToken: cfg.YNAB.AccessToken,
		BudgetID:    cfg.YNAB.BudgetID,
		Timeout:     30 * time.Second,
	})

	// Initialize archive repository (optional)
	var archiver sync.Archiver
	if cfg.Main.ArchiveDir != "" {
		archiver = archive.NewFileSystemRepository(pathResolver)
	}

	runner := sync.NewRunner(sync.RunnerConfig{
		Fetcher:   fetcher,
		Uploader:  ynabClient,
		Converter: cvtr,
		History:   importHistory,
		Archiver:  archiver,
		Currency:  cfg.Main.Currency,
	})

	summary, err := runner.Run(sync.Options{
		DryRun:       dryRun,
		Since:        since,
		Transactions: transactions,
	})
	exitOnError(err, "sync failed")

	// Display final statistics
	if !dryRun {
		fmt.Println("\n=== Sync Summary ===")
		fmt.Printf("Fetched:      %d\n", summary.Fetched)
		fmt.Printf("Skipped:      %d\n", summary.Skipped)
		fmt.Printf("Failed:       %d\n", summary.Failed)
		fmt.Printf("Uploaded:     %d\n", summary.Uploaded)
		fmt.Printf("Duplicates:   %d\n", summary.Duplicates)
		if !summary.Checkpoint.IsZero() {
			fmt.Printf("Checkpoint:   %s\n", summary.Checkpoint.Format("2006-01-02"))
		}
		fmt.Println()
	}

	slog.Info("Sync completed",
		"uploaded", summary.Uploaded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
}

// login runs the two-step device login: request a code, then confirm the
// code the user received on their device.
func login(client *traderepublic.Client) error {
	process, err := client.Login()
	if err != nil {
		return err
	}

	fmt.Printf("Enter the code sent to your device (valid for %d seconds): ", process.CountdownSeconds)
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read login code: %w", err)
	}

	return client.CompleteLogin(process, strings.TrimSpace(code))
}
