package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showaudit/internal/catalog"
	"showaudit/internal/inventory"
	"showaudit/internal/logging"
	"showaudit/internal/matching"
	"showaudit/internal/naming"
	"showaudit/internal/services"
	"showaudit/internal/state"
)

const component = "reconcile"

// Mode selects how much of the library a scan covers.
type Mode string

const (
	ModeFull   Mode = "full"
	ModeUpdate Mode = "update"
)

// ErrModeNotSupported is returned for run modes that are reserved but not implemented.
var ErrModeNotSupported = errors.New("run mode not yet supported")

// ParseMode validates a user-supplied mode. Blank means full.
func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", ModeFull:
		return ModeFull, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("unknown run mode %q (expected full or update)", raw)
	}
}

// Store is the persistence the engine needs.
type Store interface {
	Upsert(ctx context.Context, record state.Record) (state.UpsertResult, error)
	MarkReported(ctx context.Context, id string, missing []int) error
}

// ReportWriter receives one row per show whose missing seasons changed.
type ReportWriter interface {
	Append(record state.Record) error
	Path() string
}

// FailureRecorder captures per-show failures for the run.
type FailureRecorder interface {
	Record(folder, reason string, err error) error
	Path() string
}

// Options wires an Engine.
type Options struct {
	Catalog   catalog.Client
	Resolver  *matching.Resolver
	Store     Store
	Report    ReportWriter
	Failures  FailureRecorder
	ShowDelay time.Duration
	Logger    *slog.Logger
}

// Engine reconciles shows one at a time.
type Engine struct {
	catalog  catalog.Client
	resolver *matching.Resolver
	store    Store
	report   ReportWriter
	failures FailureRecorder
	delay    time.Duration
	logger   *slog.Logger
}

// NewEngine validates opts and returns an engine. Resolver defaults to the
// standard threshold with auto-reject.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, errors.New("reconcile: catalog client required")
	}
	if opts.Store == nil {
		return nil, errors.New("reconcile: store required")
	}
	if opts.Report == nil {
		return nil, errors.New("reconcile: report writer required")
	}
	logger := logging.NewComponentLogger(opts.Logger, component)
	resolver := opts.Resolver
	if resolver == nil {
		resolver = matching.NewResolver(matching.DefaultThreshold, matching.AutoReject, opts.Logger)
	}
	return &Engine{
		catalog:  opts.Catalog,
		resolver: resolver,
		store:    opts.Store,
		report:   opts.Report,
		failures: opts.Failures,
		delay:    max(opts.ShowDelay, 0),
		logger:   logger,
	}, nil
}

// Reconcile identifies one show and builds its record. It does not persist.
func (e *Engine) Reconcile(ctx context.Context, show inventory.Show, token string) (state.Record, error) {
	ctx = services.WithFolder(ctx, show.Folder)
	logger := logging.WithContext(ctx, e.logger)

	query := naming.Normalize(show.Folder)
	if query.Name == "" {
		return state.Record{}, services.Wrap(services.ErrNoMatch, component, "normalize", "folder name is empty after cleaning", nil)
	}
	logger.Debug("folder normalized",
		logging.String("query", query.Name),
		logging.Int("year", query.Year),
		logging.Bool("has_year", query.HasYear),
	)

	candidates, err := e.catalog.Search(services.WithPhase(ctx, "search"), token, query.Name)
	if err != nil {
		return state.Record{}, err
	}
	decision, err := e.resolver.Resolve(services.WithPhase(ctx, "match"), show.Folder, query, candidates)
	if err != nil {
		return state.Record{}, err
	}

	seasonCtx := services.WithPhase(ctx, "seasons")
	title := decision.Candidate.Name
	status := decision.Candidate.Status
	var catalogSeasons []int
	if lookup, ok := e.catalog.(catalog.SeriesLookup); ok {
		series, err := lookup.Series(seasonCtx, token, decision.Candidate.ID)
		if err != nil {
			return state.Record{}, err
		}
		catalogSeasons = series.Seasons
		if series.Status != "" {
			status = series.Status
		}
		if decision.Provenance == matching.ProvenanceOverride && series.Name != "" {
			title = series.Name
		}
	} else {
		catalogSeasons, err = e.catalog.Seasons(seasonCtx, token, decision.Candidate.ID)
		if err != nil {
			return state.Record{}, err
		}
	}

	local, err := inventory.LocalSeasons(show.Path)
	if err != nil {
		return state.Record{}, err
	}

	if strings.TrimSpace(title) == "" {
		title = query.Name
	}
	record := NewRecord(Input{
		CatalogID:  decision.Candidate.ID,
		Title:      title,
		Folder:     show.Folder,
		Confidence: decision.Score,
		Status:     status,
		Provenance: string(decision.Provenance),
		Catalog:    NewSeasonSet(catalogSeasons...),
		Local:      NewSeasonSet(local...),
	})
	logger.Info("seasons compared",
		logging.CatalogID(record.CatalogID),
		logging.String("title", record.Title),
		logging.Seasons("catalog_seasons", record.Seasons),
		logging.Seasons("local_seasons", record.LocalSeasons),
		logging.Seasons("missing", record.Missing),
		logging.Seasons("extra", record.Extra),
	)
	return record, nil
}

// persist upserts record and appends a report row when its missing set is
// non-empty and differs from the set last reported. The reported set only
// advances after the row is written, so a failed append is retried on the
// next scan.
func (e *Engine) persist(ctx context.Context, record state.Record) (bool, error) {
	result, err := e.store.Upsert(ctx, record)
	if err != nil {
		return false, err
	}
	if record.Complete() {
		if result.Previous != nil && len(result.Previous.ReportedMissing) > 0 {
			return false, e.store.MarkReported(ctx, record.CatalogID, nil)
		}
		return false, nil
	}
	if !result.NeedsReport(record) {
		return false, nil
	}
	if err := e.report.Append(record); err != nil {
		return false, err
	}
	if err := e.store.MarkReported(ctx, record.CatalogID, record.Missing); err != nil {
		return true, err
	}
	return true, nil
}
