package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"showaudit/internal/catalog"
	"showaudit/internal/inventory"
	"showaudit/internal/logging"
	"showaudit/internal/matching"
	"showaudit/internal/reconcile"
	"showaudit/internal/services"
	"showaudit/internal/state"
	"showaudit/internal/testsupport"
)

type fakeCatalog struct {
	mu         sync.Mutex
	loginErr   error
	candidates map[string][]catalog.Candidate
	seasons    map[string][]int
	searchErr  map[string]error
	panicOn    string
	logins     int
	searches   []string
}

func (f *fakeCatalog) Login(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "token", nil
}

func (f *fakeCatalog) Search(_ context.Context, token, query string) ([]catalog.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token != "token" {
		return nil, fmt.Errorf("unexpected token %q", token)
	}
	f.searches = append(f.searches, query)
	if query == f.panicOn {
		panic("catalog exploded")
	}
	if err := f.searchErr[query]; err != nil {
		return nil, err
	}
	return f.candidates[query], nil
}

func (f *fakeCatalog) Seasons(_ context.Context, _ string, id string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seasons, ok := f.seasons[id]
	if !ok {
		return nil, services.Wrap(services.ErrUpstream, "fake", "seasons", "unknown id "+id, nil)
	}
	return catalog.NormalizeSeasons(seasons), nil
}

// lookupCatalog also implements catalog.SeriesLookup.
type lookupCatalog struct {
	*fakeCatalog
	status map[string]string
	names  map[string]string
}

func (l *lookupCatalog) Series(ctx context.Context, token, id string) (catalog.Series, error) {
	seasons, err := l.Seasons(ctx, token, id)
	if err != nil {
		return catalog.Series{}, err
	}
	return catalog.Series{ID: id, Name: l.names[id], Status: l.status[id], Seasons: seasons}, nil
}

type failingStore struct{ err error }

func (s failingStore) Upsert(context.Context, state.Record) (state.UpsertResult, error) {
	return state.UpsertResult{}, s.err
}

func (s failingStore) MarkReported(context.Context, string, []int) error {
	return s.err
}

// flakyReport fails the first failN appends.
type flakyReport struct {
	*state.Report
	failN   int
	appends int
}

func (r *flakyReport) Append(record state.Record) error {
	r.appends++
	if r.appends <= r.failN {
		return services.Wrap(services.ErrPersistence, "fake", "report", "disk full", nil)
	}
	return r.Report.Append(record)
}

type harness struct {
	root           string
	store          *state.Store
	report         *state.Report
	failures       *logging.FailureLog
	catalog        catalog.Client
	resolver       *matching.Resolver
	storeOverride  reconcile.Store
	reportOverride reconcile.ReportWriter
}

func newHarness(t *testing.T, client catalog.Client) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &harness{
		root:     cfg.Paths.LibraryDir,
		store:    testsupport.MustOpenStore(t, cfg),
		report:   state.NewReport(cfg.ReportPath()),
		failures: logging.NewFailureLog(cfg.Paths.LogDir, "run-test", time.Now()),
		catalog:  client,
		resolver: matching.NewResolver(matching.DefaultThreshold, matching.AutoReject, logging.NewNop()),
	}
}

func (h *harness) engine(t *testing.T) *reconcile.Engine {
	t.Helper()
	var store reconcile.Store = h.store
	if h.storeOverride != nil {
		store = h.storeOverride
	}
	var report reconcile.ReportWriter = h.report
	if h.reportOverride != nil {
		report = h.reportOverride
	}
	engine, err := reconcile.NewEngine(reconcile.Options{
		Catalog:  h.catalog,
		Resolver: h.resolver,
		Store:    store,
		Report:   report,
		Failures: h.failures,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func standardCatalog() *fakeCatalog {
	return &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"Show Name":    {{ID: "42", Name: "Show Name", Year: "2019", Status: "Continuing"}},
			"Finished":     {{ID: "7", Name: "Finished", Year: "2010", Status: "Ended"}},
			"Nothing Here": nil,
		},
		seasons: map[string][]int{
			"42": {0, 1, 2, 3},
			"7":  {1, 2},
		},
		searchErr: map[string]error{
			"Flaky": services.Wrap(services.ErrUpstream, "fake", "search", "returned 503", nil),
		},
	}
}

func standardLibrary(t *testing.T, root string) {
	testsupport.MakeLibrary(t, root, map[string][]string{
		"Show.Name.2019.S01.1080p.WEB-DL.x264": {"Season 01", "Season 02", "Extras"},
		"Finished (2010)":                      {"Season 1", "Season 2"},
		"Nothing Here":                         {"Season 1"},
		"Flaky":                                {"Season 1"},
	})
}

func TestReconcileScenario(t *testing.T) {
	h := newHarness(t, standardCatalog())
	standardLibrary(t, h.root)

	folder := "Show.Name.2019.S01.1080p.WEB-DL.x264"
	record, err := h.engine(t).Reconcile(context.Background(), inventory.Show{Folder: folder, Path: filepath.Join(h.root, folder)}, "token")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if record.CatalogID != "42" || record.Title != "Show Name" || record.Confidence != 100 || record.Provenance != "auto" {
		t.Fatalf("unexpected record %+v", record)
	}
	if !slices.Equal(record.Seasons, []int{1, 2, 3}) || !slices.Equal(record.LocalSeasons, []int{1, 2}) {
		t.Fatalf("seasons=%v local=%v", record.Seasons, record.LocalSeasons)
	}
	if !slices.Equal(record.Missing, []int{3}) || len(record.Extra) != 0 {
		t.Fatalf("missing=%v extra=%v", record.Missing, record.Extra)
	}
	if record.Status != "Continuing" {
		t.Fatalf("status = %q", record.Status)
	}
}

func TestRunFullScan(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	standardLibrary(t, h.root)
	ctx := context.Background()

	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.logins != 1 {
		t.Fatalf("expected a single login, got %d", fake.logins)
	}
	wantOrder := []string{"Finished", "Flaky", "Nothing Here", "Show Name"}
	if !slices.Equal(fake.searches, wantOrder) {
		t.Fatalf("search order = %v, want %v", fake.searches, wantOrder)
	}
	if summary.Scanned != 4 || summary.Reconciled != 2 || summary.Complete != 1 || summary.Incomplete != 1 ||
		summary.Skipped != 1 || summary.Failed != 1 || summary.Reported != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ReportPath != h.report.Path() || summary.FailureLogPath != h.failures.Path() {
		t.Fatalf("unexpected paths in summary %+v", summary)
	}

	records, err := h.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	report, err := os.ReadFile(h.report.Path())
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	wantReport := "Show Title,Folder Name,TVDB ID,Missing Season #'s\n" +
		"Show Name,Show.Name.2019.S01.1080p.WEB-DL.x264,42,3\n"
	if string(report) != wantReport {
		t.Fatalf("report = %q, want %q", report, wantReport)
	}

	if err := h.failures.Close(); err != nil {
		t.Fatalf("close failure log: %v", err)
	}
	failures, err := os.ReadFile(h.failures.Path())
	if err != nil {
		t.Fatalf("read failure log: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(failures)), "\n"); len(lines) != 1 || !strings.Contains(lines[0], `"folder":"Flaky"`) {
		t.Fatalf("unexpected failure log %q", failures)
	}
}

func TestRunTwiceLeavesStateAndReportUnchanged(t *testing.T) {
	h := newHarness(t, standardCatalog())
	standardLibrary(t, h.root)
	ctx := context.Background()

	if _, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstRecords, err := h.store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	firstReport, err := os.ReadFile(h.report.Path())
	if err != nil {
		t.Fatal(err)
	}

	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Reported != 0 {
		t.Fatalf("second run reported %d rows, want 0", summary.Reported)
	}
	secondRecords, err := h.store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	secondReport, err := os.ReadFile(h.report.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(firstReport) != string(secondReport) {
		t.Fatalf("report changed:\n%s\n---\n%s", firstReport, secondReport)
	}
	if len(firstRecords) != len(secondRecords) {
		t.Fatalf("record count changed %d -> %d", len(firstRecords), len(secondRecords))
	}
	for i := range firstRecords {
		a, b := firstRecords[i], secondRecords[i]
		if a.CatalogID != b.CatalogID || a.Title != b.Title || a.Folder != b.Folder || a.Confidence != b.Confidence ||
			!slices.Equal(a.Seasons, b.Seasons) || !slices.Equal(a.LocalSeasons, b.LocalSeasons) ||
			!slices.Equal(a.Missing, b.Missing) || a.Status != b.Status || !a.CreatedAt.Equal(b.CreatedAt) {
			t.Fatalf("record changed:\n%+v\n%+v", a, b)
		}
	}
}

func TestRunReportsChangedMissingSet(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	standardLibrary(t, h.root)
	ctx := context.Background()

	if _, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	fake.seasons["42"] = []int{1, 2, 3, 4}

	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Reported != 1 {
		t.Fatalf("expected one new report row, got %d", summary.Reported)
	}
	report, err := os.ReadFile(h.report.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(report), "42,\"3, 4\"\n") {
		t.Fatalf("expected updated row at end of report, got %q", report)
	}
	if strings.Count(string(report), "Show Title") != 1 {
		t.Fatalf("header written more than once: %q", report)
	}
}

func TestRunSkipsSecondFolderWithSameCatalogID(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"Show Name": {{ID: "42", Name: "Show Name", Status: "Continuing"}},
		},
		seasons: map[string][]int{"42": {1, 2, 3}},
	}
	h := newHarness(t, fake)
	testsupport.MakeLibrary(t, h.root, map[string][]string{
		"Show Name":     {"Season 1"},
		"Show.Name.S02": {"Season 2"},
	})
	ctx := context.Background()

	var firstReport []byte
	for run := 1; run <= 3; run++ {
		summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if summary.Skipped != 1 || summary.Reconciled != 1 {
			t.Fatalf("run %d: unexpected summary %+v", run, summary)
		}
		skipped := summary.Outcomes[1]
		if skipped.Folder != "Show.Name.S02" || skipped.Result != reconcile.ResultSkipped ||
			skipped.CatalogID != "42" || !strings.Contains(skipped.Reason, `"Show Name"`) {
			t.Fatalf("run %d: unexpected duplicate outcome %+v", run, skipped)
		}
		wantReported := 0
		if run == 1 {
			wantReported = 1
		}
		if summary.Reported != wantReported {
			t.Fatalf("run %d: reported %d rows, want %d", run, summary.Reported, wantReported)
		}

		report, err := os.ReadFile(h.report.Path())
		if err != nil {
			t.Fatal(err)
		}
		if run == 1 {
			firstReport = report
			continue
		}
		if string(report) != string(firstReport) {
			t.Fatalf("run %d changed the report:\n%s\n---\n%s", run, firstReport, report)
		}
	}

	record, err := h.store.Get(ctx, "42")
	if err != nil || record == nil {
		t.Fatalf("Get = %v, %v", record, err)
	}
	if record.Folder != "Show Name" || !slices.Equal(record.Missing, []int{2, 3}) {
		t.Fatalf("record should belong to the first folder, got %+v", record)
	}
}

func TestRunRetriesReportAfterFailedAppend(t *testing.T) {
	h := newHarness(t, standardCatalog())
	flaky := &flakyReport{Report: h.report, failN: 1}
	h.reportOverride = flaky
	standardLibrary(t, h.root)
	ctx := context.Background()

	if _, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("first Run: expected ErrPersistence, got %v", err)
	}
	// the row was upserted before the append failed
	if record, err := h.store.Get(ctx, "42"); err != nil || record == nil || len(record.ReportedMissing) != 0 {
		t.Fatalf("expected unreported record after failed append, got %+v, %v", record, err)
	}

	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Reported != 1 {
		t.Fatalf("second run reported %d rows, want 1", summary.Reported)
	}
	report, err := os.ReadFile(h.report.Path())
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	wantReport := "Show Title,Folder Name,TVDB ID,Missing Season #'s\n" +
		"Show Name,Show.Name.2019.S01.1080p.WEB-DL.x264,42,3\n"
	if string(report) != wantReport {
		t.Fatalf("report = %q, want %q", report, wantReport)
	}

	if summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); err != nil || summary.Reported != 0 {
		t.Fatalf("third Run reported %d rows, err %v", summary.Reported, err)
	}
}

func TestRunReportsRegressionAfterComplete(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	standardLibrary(t, h.root)
	ctx := context.Background()

	if _, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	fake.seasons["42"] = []int{1, 2}
	if _, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if record, _ := h.store.Get(ctx, "42"); record == nil || len(record.ReportedMissing) != 0 {
		t.Fatalf("complete show should clear its reported set, got %+v", record)
	}
	fake.seasons["42"] = []int{1, 2, 3}
	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if summary.Reported != 1 {
		t.Fatalf("regressed show should be reported again, got %d", summary.Reported)
	}
}

func TestRunUpdateModeNotSupported(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	_, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeUpdate)
	if !errors.Is(err, reconcile.ErrModeNotSupported) {
		t.Fatalf("expected ErrModeNotSupported, got %v", err)
	}
	if fake.logins != 0 {
		t.Fatal("update mode should not contact the catalog")
	}
}

func TestRunAuthFailureAbortsBeforeShows(t *testing.T) {
	fake := standardCatalog()
	fake.loginErr = services.Wrap(services.ErrAuth, "fake", "login", "bad key", nil)
	h := newHarness(t, fake)
	standardLibrary(t, h.root)

	summary, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeFull)
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if len(fake.searches) != 0 || summary.Scanned != 0 {
		t.Fatalf("no show should be processed, searches=%v summary=%+v", fake.searches, summary)
	}
}

func TestRunExpiredTokenIsFatal(t *testing.T) {
	fake := standardCatalog()
	fake.searchErr["Flaky"] = services.Wrap(services.ErrAuth, "fake", "search", "unauthorized", nil)
	h := newHarness(t, fake)
	standardLibrary(t, h.root)

	summary, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeFull)
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if summary.Scanned != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	// "Finished" was persisted before the abort and stays valid
	record, err := h.store.Get(context.Background(), "7")
	if err != nil || record == nil {
		t.Fatalf("expected record persisted before abort, got %v, %v", record, err)
	}
}

func TestRunPersistenceFailureIsFatal(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	h.storeOverride = failingStore{err: services.Wrap(services.ErrPersistence, "fake", "upsert", "disk full", nil)}
	standardLibrary(t, h.root)

	_, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeFull)
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(fake.searches) != 1 {
		t.Fatalf("scan should stop at the first persistence failure, searches=%v", fake.searches)
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	fake := standardCatalog()
	fake.panicOn = "Finished"
	h := newHarness(t, fake)
	standardLibrary(t, h.root)

	summary, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeFull)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 2 || summary.Reconciled != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Outcomes[0].Folder != "Finished (2010)" || summary.Outcomes[0].Result != reconcile.ResultFailed {
		t.Fatalf("unexpected first outcome %+v", summary.Outcomes[0])
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := standardCatalog()
	h := newHarness(t, fake)
	standardLibrary(t, h.root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := h.engine(t).Run(ctx, h.root, reconcile.ModeFull)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Scanned != 0 || len(fake.searches) != 0 {
		t.Fatalf("cancelled scan processed shows: %+v", summary)
	}
}

func TestRunLowConfidenceHandling(t *testing.T) {
	fake := &fakeCatalog{
		candidates: map[string][]catalog.Candidate{
			"Mi Shoe": {{ID: "5", Name: "My Show", Status: "Ended"}},
		},
		seasons: map[string][]int{"5": {1}, "6": {1, 2}},
	}
	tests := []struct {
		name      string
		policy    matching.Disambiguator
		wantID    string
		skipped   int
		wantTitle string
	}{
		{"auto reject", matching.AutoReject, "", 1, ""},
		{"auto accept", matching.AutoAccept, "5", 0, "My Show"},
		{"substitute", matching.DisambiguatorFunc(func(context.Context, matching.Prompt) (matching.Answer, error) {
			return matching.SubstituteAnswer("6"), nil
		}), "6", 0, "Other Show"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &lookupCatalog{fakeCatalog: fake, names: map[string]string{"6": "Other Show"}}
			h := newHarness(t, client)
			h.resolver = matching.NewResolver(matching.DefaultThreshold, tt.policy, nil)
			testsupport.MakeLibrary(t, h.root, map[string][]string{"Mi Shoe": {"Season 1"}})

			summary, err := h.engine(t).Run(context.Background(), h.root, reconcile.ModeFull)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if summary.Skipped != tt.skipped {
				t.Fatalf("skipped = %d, want %d", summary.Skipped, tt.skipped)
			}
			if tt.wantID == "" {
				return
			}
			record, err := h.store.Get(context.Background(), tt.wantID)
			if err != nil || record == nil {
				t.Fatalf("Get %s = %v, %v", tt.wantID, record, err)
			}
			if record.Title != tt.wantTitle {
				t.Fatalf("title = %q, want %q", record.Title, tt.wantTitle)
			}
		})
	}
}

func TestReconcilePrefersSeriesStatus(t *testing.T) {
	fake := standardCatalog()
	client := &lookupCatalog{fakeCatalog: fake, status: map[string]string{"42": "Ended"}}
	h := newHarness(t, client)
	standardLibrary(t, h.root)

	folder := "Show.Name.2019.S01.1080p.WEB-DL.x264"
	record, err := h.engine(t).Reconcile(context.Background(), inventory.Show{Folder: folder, Path: filepath.Join(h.root, folder)}, "token")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if record.Status != "Ended" {
		t.Fatalf("status = %q, want refreshed Ended", record.Status)
	}
}

func TestReconcileUnreadableShowIsLocalIO(t *testing.T) {
	h := newHarness(t, standardCatalog())
	_, err := h.engine(t).Reconcile(context.Background(), inventory.Show{Folder: "Finished", Path: filepath.Join(h.root, "gone")}, "token")
	if !errors.Is(err, services.ErrLocalIO) {
		t.Fatalf("expected ErrLocalIO, got %v", err)
	}
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	if _, err := reconcile.NewEngine(reconcile.Options{}); err == nil {
		t.Fatal("expected error without dependencies")
	}
}
