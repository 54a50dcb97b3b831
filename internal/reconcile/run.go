package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"showaudit/internal/inventory"
	"showaudit/internal/logging"
	"showaudit/internal/services"
	"showaudit/internal/state"
)

// Result labels the outcome of one show in a scan.
type Result string

const (
	ResultComplete   Result = "complete"
	ResultIncomplete Result = "incomplete"
	ResultSkipped    Result = "skipped"
	ResultFailed     Result = "failed"
)

// Outcome is the per-show line of a scan summary.
type Outcome struct {
	Folder    string
	CatalogID string
	Title     string
	Result    Result
	Reason    string
	Missing   []int
	Reported  bool
}

// Summary describes a finished (or aborted) scan.
type Summary struct {
	Mode           Mode
	Root           string
	Scanned        int
	Reconciled     int
	Complete       int
	Incomplete     int
	Skipped        int
	Failed         int
	Reported       int
	ReportPath     string
	FailureLogPath string
	Duration       time.Duration
	Outcomes       []Outcome
}

func (s *Summary) add(outcome Outcome) {
	s.Outcomes = append(s.Outcomes, outcome)
	switch outcome.Result {
	case ResultComplete:
		s.Reconciled++
		s.Complete++
	case ResultIncomplete:
		s.Reconciled++
		s.Incomplete++
	case ResultSkipped:
		s.Skipped++
	case ResultFailed:
		s.Failed++
	}
	if outcome.Reported {
		s.Reported++
	}
}

// Run reconciles every show folder under root in lexicographic order. Per-show
// failures are logged and skipped; authentication and persistence failures
// abort the scan. Records persisted before an abort stay valid.
func (e *Engine) Run(ctx context.Context, root string, mode Mode) (Summary, error) {
	started := time.Now()
	summary := Summary{Mode: mode, Root: root, ReportPath: e.report.Path()}
	logger := logging.WithContext(ctx, e.logger)

	switch mode {
	case ModeFull:
	case ModeUpdate:
		return summary, fmt.Errorf("%w: %q", ErrModeNotSupported, mode)
	default:
		return summary, fmt.Errorf("unknown run mode %q", mode)
	}

	shows, err := inventory.ListShows(root)
	if err != nil {
		return summary, err
	}
	token, err := e.catalog.Login(services.WithPhase(ctx, "login"))
	if err != nil {
		logging.ErrorWithContext(logger, "catalog login failed; scan aborted", "catalog_login_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tvdb.api_key and tvdb.pin in the config"),
		)
		return summary, err
	}
	logger.Info("scan started",
		logging.String("root", root),
		logging.String("mode", string(mode)),
		logging.Int("shows", len(shows)),
		logging.Duration("show_delay", e.delay),
	)

	limit := rate.Inf
	if e.delay > 0 {
		limit = rate.Every(e.delay)
	}
	limiter := rate.NewLimiter(limit, 1)
	claimed := make(map[string]string)

	for _, show := range shows {
		if err := limiter.Wait(ctx); err != nil {
			return e.finish(summary, started), ctxErr(ctx, err)
		}
		summary.Scanned++

		record, reported, err := e.processShow(ctx, show, token, claimed)
		if ctx.Err() != nil {
			summary.Scanned--
			return e.finish(summary, started), ctx.Err()
		}
		outcome := Outcome{Folder: show.Folder, Reason: services.Reason(err)}
		showLogger := logger.With(logging.Folder(show.Folder))

		switch {
		case err == nil:
			outcome.CatalogID = record.CatalogID
			outcome.Title = record.Title
			outcome.Missing = record.Missing
			outcome.Reported = reported
			outcome.Result = ResultComplete
			outcome.Reason = "all seasons present"
			if !record.Complete() {
				outcome.Result = ResultIncomplete
				outcome.Reason = "missing seasons " + SeasonSet(record.Missing).String()
			}
		case services.IsFatal(err):
			outcome.Result = ResultFailed
			summary.add(outcome)
			e.recordFailure(showLogger, show.Folder, err)
			logging.ErrorWithContext(showLogger, "scan aborted", "scan_aborted",
				logging.String("reason", outcome.Reason),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, fatalHint(err)),
			)
			return e.finish(summary, started), err
		case services.IsSkip(err):
			outcome.Result = ResultSkipped
			hint := "rename the folder or rerun interactively to confirm the match"
			if errors.Is(err, services.ErrDuplicate) {
				outcome.CatalogID = record.CatalogID
				outcome.Title = record.Title
				outcome.Reason = fmt.Sprintf("duplicate of folder %q", claimed[record.CatalogID])
				hint = "merge the folders or rename one so it matches a different show"
			}
			logging.WarnWithContext(showLogger, "show skipped", "show_skipped",
				logging.String("reason", outcome.Reason),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hint),
				logging.String(logging.FieldImpact, "show not reconciled this run"),
			)
		default:
			outcome.Result = ResultFailed
			e.recordFailure(showLogger, show.Folder, err)
			logging.WarnWithContext(showLogger, "show failed", "show_failed",
				logging.String("reason", outcome.Reason),
				logging.Error(err),
				logging.String(logging.FieldImpact, "show not reconciled this run"),
			)
		}
		summary.add(outcome)
	}

	summary = e.finish(summary, started)
	logger.Info("scan complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("reconciled", summary.Reconciled),
		logging.Int("incomplete", summary.Incomplete),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.String("report", summary.ReportPath),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// processShow reconciles and persists one show. claimed maps catalog ids to
// the folder that first resolved to them this run; a later folder with the
// same id is skipped with ErrDuplicate and its resolved record returned
// unpersisted. A panic is converted into an error so it stays contained to
// this show.
func (e *Engine) processShow(ctx context.Context, show inventory.Show, token string, claimed map[string]string) (record state.Record, reported bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			record, reported = state.Record{}, false
			err = fmt.Errorf("panic while reconciling %q: %v", show.Folder, r)
		}
	}()

	record, err = e.Reconcile(ctx, show, token)
	if err != nil {
		return state.Record{}, false, err
	}
	if owner, ok := claimed[record.CatalogID]; ok {
		return record, false, services.Wrap(services.ErrDuplicate, component, "claim",
			fmt.Sprintf("catalog id %s already reconciled from folder %q", record.CatalogID, owner), nil)
	}
	claimed[record.CatalogID] = show.Folder
	reported, err = e.persist(services.WithFolder(ctx, show.Folder), record)
	if err != nil {
		return state.Record{}, false, err
	}
	return record, reported, nil
}

func (e *Engine) recordFailure(logger *slog.Logger, folder string, err error) {
	if e.failures == nil {
		return
	}
	if logErr := e.failures.Record(folder, services.Reason(err), err); logErr != nil {
		logger.Warn("failure log write failed", logging.Args(logging.Error(logErr))...)
	}
}

func (e *Engine) finish(summary Summary, started time.Time) Summary {
	summary.Duration = time.Since(started)
	if e.failures != nil && summary.Failed > 0 {
		summary.FailureLogPath = e.failures.Path()
	}
	return summary
}

func fatalHint(err error) string {
	if errors.Is(err, services.ErrAuth) {
		return "the catalog token was rejected; check credentials and rerun the scan"
	}
	return "check free space and permissions on the state directory"
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
