package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tr2ynab/tr2ynab/pkg/config"
	"github.com/tr2ynab/tr2ynab/pkg/converter"
	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
	"github.com/tr2ynab/tr2ynab/pkg/ynab"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and YNAB connectivity",
	Long: `Validate the configuration and verify that the configured YNAB
account is reachable with the given access token.

Trade Republic credentials are only reported, not verified, because a
login attempt would send a code to your device.

Example:
  tr2ynab check`,
	Run: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	slog.Info("Checking configuration")

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

	pathResolver := pathutil.New(pathutil.Config{
		DatabasePath: cfg.Main.DBPath,
		ArchiveDir:   cfg.Main.ArchiveDir,
	})

	fmt.Println("\n=== Configuration ===")
	fmt.Printf("Database:      %s\n", pathResolver.GetDatabasePath())
	if cfg.Main.ArchiveDir != "" {
		fmt.Printf("Archive:       %s\n", pathResolver.GetArchiveDir())
	} else {
		fmt.Printf("Archive:       (disabled)\n")
	}
	if cfg.TradeRepublic.PhoneNo != "" && cfg.TradeRepublic.PIN != "" {
		fmt.Printf("Trade Republic credentials: set\n")
	} else {
		fmt.Printf("Trade Republic credentials: missing (only --from-export syncs will work)\n")
	}

	// Verify the category mapping parses when configured.
	if cfg.Main.MappingPath != "" {
		_, err := converter.NewMapper(pathutil.ExpandUser(cfg.Main.MappingPath))
		exitOnError(err, "failed to load category mapping")
		fmt.Printf("Category mapping:           %s\n", cfg.Main.MappingPath)
	}

	// Verify the YNAB account is reachable.
	ynabClient := ynab.NewClient(ynab.ClientConfig{
		APIURL:      cfg.YNAB.APIURL,
		AccessToken: cfg.YNAB.AccessToken,
		BudgetID:    cfg.YNAB.BudgetID,
		Timeout:     30 * time.Second,
	})

	account, err := ynabClient.GetAccount(cfg.YNAB.AccountID)
	exitOnError(err, "failed to reach the YNAB account")

	fmt.Println("\n=== YNAB Account ===")
	fmt.Printf("Name:          %s\n", account.Name)
	fmt.Printf("Type:          %s\n", account.Type)
	fmt.Printf("Balance:       %s\n", account.Balance.Display(cfg.Main.Currency))
	if account.Closed {
		fmt.Printf("Warning:       account is closed, uploads will fail\n")
	}
	if !account.OnBudget {
		fmt.Printf("Note:          account is a tracking account\n")
	}
	fmt.Println()

	slog.Info("Configuration check passed")
}
