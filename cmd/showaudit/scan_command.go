package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"showaudit/internal/catalog/tvdb"
	"showaudit/internal/config"
	"showaudit/internal/logging"
	"showaudit/internal/matching"
	"showaudit/internal/preflight"
	"showaudit/internal/reconcile"
	"showaudit/internal/services"
	"showaudit/internal/state"
)

// errScanLocked is returned when another process holds the scan lock.
var errScanLocked = errors.New("another scan is running")

type scanOptions struct {
	mode           reconcile.Mode
	root           string
	nonInteractive bool
	acceptLow      bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var nonInteractive bool
	var acceptLow bool

	cmd := &cobra.Command{
		Use:   "scan [full|update] [library-root]",
		Short: "Reconcile every show folder against TheTVDB",
		Long: `Reconcile every show folder under the library root against TheTVDB.

The mode defaults to "full" and the library root to paths.library_dir. Shows
with missing seasons are appended to the report in paths.state_dir; per-show
failures are written to a per-run errors-*.log in paths.log_dir.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := scanOptions{
				root:           cfg.Paths.LibraryDir,
				nonInteractive: nonInteractive,
				acceptLow:      acceptLow,
			}
			var modeArg string
			if len(args) > 0 {
				modeArg = args[0]
			}
			if opts.mode, err = reconcile.ParseMode(modeArg); err != nil {
				return err
			}
			if len(args) > 1 {
				if opts.root, err = config.ExpandPath(args[1]); err != nil {
					return fmt.Errorf("resolve library root: %w", err)
				}
			}
			return runScan(cmd, cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Skip low-confidence matches instead of prompting")
	cmd.Flags().BoolVar(&acceptLow, "accept-low-confidence", false, "Accept the best candidate for low-confidence matches without prompting")
	cmd.MarkFlagsMutuallyExclusive("non-interactive", "accept-low-confidence")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, opts scanOptions) error {
	if result := preflight.CheckDirectoryReadable("Library directory", opts.root); !result.Passed {
		return fmt.Errorf("library root: %s", result.Detail)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (lock %s)", errScanLocked, cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	started := time.Now()
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	failures := logging.NewFailureLog(cfg.Paths.LogDir, runID, started)
	logging.PruneFailureLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, failures.Path())
	defer func() {
		if err := failures.Close(); err != nil {
			logger.Warn("failure log close failed", logging.Args(logging.Error(err))...)
		}
	}()

	client, err := tvdb.New(cfg.TVDB.APIKey, cfg.TVDB.BaseURL,
		tvdb.WithTimeout(cfg.RequestTimeout()),
		tvdb.WithPIN(cfg.TVDB.PIN),
		tvdb.WithSearchLimit(cfg.TVDB.SearchLimit),
	)
	if err != nil {
		return err
	}

	store, err := state.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	resolver := matching.NewResolver(cfg.Matching.ConfidenceThreshold, chooseDisambiguator(cmd, opts), logger)
	engine, err := reconcile.NewEngine(reconcile.Options{
		Catalog:   client,
		Resolver:  resolver,
		Store:     store,
		Report:    state.NewReport(cfg.ReportPath()),
		Failures:  failures,
		ShowDelay: cfg.ShowDelay(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = services.WithRunID(runCtx, runID)

	summary, runErr := engine.Run(runCtx, opts.root, opts.mode)
	if errors.Is(runErr, reconcile.ErrModeNotSupported) {
		return runErr
	}
	printScanSummary(out, summary, shouldColorize(out))
	return runErr
}

// chooseDisambiguator picks the low-confidence policy. Prompting only happens
// when stdin is a terminal.
func chooseDisambiguator(cmd *cobra.Command, opts scanOptions) matching.Disambiguator {
	switch {
	case opts.acceptLow:
		return matching.AutoAccept
	case opts.nonInteractive:
		return matching.AutoReject
	case isInteractive(cmd.InOrStdin()):
		return newPromptDisambiguator(cmd.InOrStdin(), cmd.OutOrStdout())
	default:
		return matching.AutoReject
	}
}

func printScanSummary(out io.Writer, summary reconcile.Summary, colorize bool) {
	if len(summary.Outcomes) > 0 {
		rows := make([][]string, 0, len(summary.Outcomes))
		for _, outcome := range summary.Outcomes {
			missing := "-"
			if len(outcome.Missing) > 0 {
				missing = state.FormatSeasons(outcome.Missing)
			}
			rows = append(rows, []string{
				outcome.Folder,
				orDash(outcome.CatalogID),
				orDash(outcome.Title),
				paint(string(outcome.Result), colorize, resultColor(outcome.Result)),
				missing,
				outcome.Reason,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Folder", "TVDB ID", "Title", "Result", "Missing", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}

	totals := [][]string{
		{"Scanned", strconv.Itoa(summary.Scanned)},
		{"Reconciled", strconv.Itoa(summary.Reconciled)},
		{"Complete", strconv.Itoa(summary.Complete)},
		{"Incomplete", strconv.Itoa(summary.Incomplete)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Report rows added", strconv.Itoa(summary.Reported)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Scan", string(summary.Mode)}, totals, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Report: %s\n", summary.ReportPath)
	if summary.FailureLogPath != "" {
		fmt.Fprintf(out, "Failures: %s\n", summary.FailureLogPath)
	}
}

func resultColor(result reconcile.Result) text.Color {
	switch result {
	case reconcile.ResultComplete:
		return text.FgGreen
	case reconcile.ResultIncomplete:
		return text.FgYellow
	case reconcile.ResultFailed:
		return text.FgRed
	default:
		return text.FgHiBlack
	}
}
