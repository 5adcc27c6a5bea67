// Package sync orchestrates one synchronization run: fetch transactions,
// drop already imported ones, convert, upload to YNAB, archive, and then
// advance the checkpoint.
package sync

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tr2ynab/tr2ynab/pkg/converter"
	"github.com/tr2ynab/tr2ynab/pkg/history"
	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
	"github.com/tr2ynab/tr2ynab/pkg/ynab"
)

// DefaultLookback is how far back the first sync reaches when no checkpoint
// exists yet.
const DefaultLookback = 7 * 24 * time.Hour

// Fetcher retrieves transactions dated at or after since.
type Fetcher interface {
	Timeline(since time.Time) ([]traderepublic.Transaction, error)
}

// Uploader creates transactions in YNAB.
type Uploader interface {
	CreateTransactions(transactions []ynab.NewTransaction) (*ynab.CreateResult, error)
}

// History provides the import-history operations a run needs.
type History interface {
	LastImport() (time.Time, bool, error)
	SetLastImport(t time.Time) error
	ImportedHashes() (map[string]bool, error)
	RecordImports(records []history.ImportRecord) error
}

// Archiver persists uploaded transactions to the monthly archive.
type Archiver interface {
	AppendTransactions(transactions []traderepublic.Transaction) error
}

// RunnerConfig represents the collaborators for a Runner.
type RunnerConfig struct {
	Fetcher   Fetcher
	Uploader  Uploader
	Converter *converter.Converter
	History   History
	Archiver  Archiver // optional, nil disables archiving
	Currency  string   // ISO code for dry-run display, default EUR
}

// Runner executes sync runs.
type Runner struct {
	fetcher   Fetcher
	uploader  Uploader
	converter *converter.Converter
	history   History
	archiver  Archiver
	currency  string
}

// NewRunner creates a new Runner.
func NewRunner(config RunnerConfig) *Runner {
	currency := config.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &Runner{
		fetcher:   config.Fetcher,
		uploader:  config.Uploader,
		converter: config.Converter,
		history:   config.History,
		archiver:  config.Archiver,
		currency:  currency,
	}
}

// Options control a single run.
type Options struct {
	// DryRun lists what would be uploaded without writing anything: no
	// upload, no archive, no history, no checkpoint move.
	DryRun bool
	// Since overrides the checkpoint as the fetch cutoff when non-zero.
	Since time.Time
	// Transactions skips the timeline fetch and syncs the given
	// transactions instead, e.g. from an export file.
	Transactions []traderepublic.Transaction
	// Out receives dry-run listings and progress output.
	// Defaults to os.Stdout.
	Out io.Writer
}

// Summary reports what a run did.
type Summary struct {
	Fetched    int
	Skipped    int // already imported before this run
	Failed     int // conversion failures, logged and left for a retry
	Uploaded   int
	Duplicates int // rejected by YNAB as duplicate import IDs
	DryRun     bool
	Checkpoint time.Time // new checkpoint, zero when unchanged
}

// Run executes one sync and reports what happened. Nothing is written until
// the upload has succeeded, so an aborted run leaves the checkpoint and the
// history untouched and the next run picks the same transactions up again.
func (r *Runner) Run(opts Options) (*Summary, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	summary := &Summary{DryRun: opts.DryRun}

	transactions := opts.Transactions
	if transactions == nil {
		since, err := r.resolveSince(opts.Since)
		if err != nil {
			return nil, err
		}

		slog.Info("Fetching timeline", "since", since.Format("2006-01-02"))
		transactions, err = r.fetcher.Timeline(since)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch timeline: %w", err)
		}
	}
	summary.Fetched = len(transactions)

	// Filter out transactions recorded by earlier runs.
	imported, err := r.history.ImportedHashes()
	if err != nil {
		return nil, fmt.Errorf("failed to load import history: %w", err)
	}

	var pending []traderepublic.Transaction
	for _, tx := range transactions {
		if imported[tx.Hash()] {
			summary.Skipped++
			continue
		}
		pending = append(pending, tx)
	}

	slog.Info("Fetched transactions",
		"count", summary.Fetched,
		"new", len(pending),
		"skipped", summary.Skipped,
	)

	if len(pending) == 0 {
		fmt.Fprintln(out, "No new transactions to sync")
		if !opts.DryRun {
			if err := r.advanceCheckpoint(transactions, summary); err != nil {
				return nil, err
			}
		}
		return summary, nil
	}

	batch := r.converter.ConvertAll(pending)
	summary.Failed = len(batch.Failed)
	for _, failed := range batch.Failed {
		slog.Warn("Skipping unconvertible transaction",
			"date", failed.Transaction.Date.Format("2006-01-02"),
			"note", failed.Transaction.Note,
			"error", failed.Err,
		)
	}

	if opts.DryRun {
		r.printDryRun(out, batch)
		return summary, nil
	}

	if len(batch.Converted) > 0 {
		result, err := r.uploader.CreateTransactions(batch.Transactions())
		if err != nil {
			return nil, fmt.Errorf("failed to upload transactions: %w", err)
		}

		summary.Uploaded = len(result.TransactionIDs)
		summary.Duplicates = len(result.DuplicateImportIDs)
		slog.Info("Uploaded transactions",
			"created", summary.Uploaded,
			"duplicates", summary.Duplicates,
		)

		if r.archiver != nil {
			sources := make([]traderepublic.Transaction, len(batch.Converted))
			for i, conv := range batch.Converted {
				sources[i] = conv.Source
			}
			if err := r.archiver.AppendTransactions(sources); err != nil {
				return nil, fmt.Errorf("failed to archive transactions: %w", err)
			}
		}

		if err := r.history.RecordImports(buildRecords(batch)); err != nil {
			return nil, fmt.Errorf("failed to record imports: %w", err)
		}
	}

	if err := r.advanceCheckpoint(transactions, summary); err != nil {
		return nil, err
	}

	return summary, nil
}

// resolveSince picks the fetch cutoff: an explicit override, else the
// stored checkpoint, else DefaultLookback before now.
func (r *Runner) resolveSince(override time.Time) (time.Time, error) {
	if !override.IsZero() {
		return override, nil
	}

	checkpoint, ok, err := r.history.LastImport()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if ok {
		return checkpoint, nil
	}

	return time.Now().Add(-DefaultLookback), nil
}

// advanceCheckpoint moves the checkpoint to the newest fetched transaction
// date. The checkpoint never moves backwards, so ingesting an old export
// cannot regress a later timeline sync.
func (r *Runner) advanceCheckpoint(transactions []traderepublic.Transaction, summary *Summary) error {
	var latest time.Time
	for _, tx := range transactions {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	if latest.IsZero() {
		return nil
	}

	current, ok, err := r.history.LastImport()
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if ok && !latest.After(current) {
		return nil
	}

	if err := r.history.SetLastImport(latest); err != nil {
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}

	summary.Checkpoint = latest
	slog.Debug("Advanced checkpoint", "checkpoint", latest.Format(time.RFC3339))
	return nil
}

// printDryRun lists what an actual run would upload.
func (r *Runner) printDryRun(out io.Writer, batch converter.Batch) {
	fmt.Fprintf(out, "[DRY RUN] Would upload %d transactions:\n", len(batch.Converted))
	for _, conv := range batch.Converted {
		tx := conv.Transaction
		fmt.Fprintf(out, "  %s  %12s  %s", tx.Date, tx.Amount.Display(r.currency), tx.PayeeName)
		if tx.Memo != "" {
			fmt.Fprintf(out, "  (%s)", tx.Memo)
		}
		fmt.Fprintln(out)
	}
	if len(batch.Failed) > 0 {
		fmt.Fprintf(out, "[DRY RUN] %d transactions could not be converted\n", len(batch.Failed))
	}
}

// buildRecords turns a converted batch into import-history records.
func buildRecords(batch converter.Batch) []history.ImportRecord {
	records := make([]history.ImportRecord, len(batch.Converted))
	for i, conv := range batch.Converted {
		records[i] = history.ImportRecord{
			TxHash:   conv.Source.Hash(),
			TxDate:   conv.Transaction.Date,
			TxType:   conv.Source.Type,
			Amount:   conv.Transaction.Amount,
			Note:     conv.Source.Note,
			ImportID: conv.Transaction.ImportID,
		}
	}
	return records
}
