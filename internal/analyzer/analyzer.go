// Package analyzer runs one report: it signs in, walks the attendance and
// approval grids, computes overtime and renders the result.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"github.com/penwyp/go-ssp-overtime/internal/data/cache"
	"github.com/penwyp/go-ssp-overtime/internal/data/dump"
	"github.com/penwyp/go-ssp-overtime/internal/data/extractor"
	"github.com/penwyp/go-ssp-overtime/internal/data/pager"
	"github.com/penwyp/go-ssp-overtime/internal/portal"
	"github.com/penwyp/go-ssp-overtime/internal/presentation/formatter"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// ErrNoRecords is returned when a run produced no report rows at all.
var ErrNoRecords = errors.New("no attendance records found")

type Config struct {
	BaseURL    string
	Username   string
	Password   string
	StatusPath string
	MaxPages   int
	Timeout    time.Duration
	Insecure   bool

	Policy overtime.Policy

	OutputFormat string
	XLSXFile     string
	OnlyOvertime bool
	NoStatus     bool
	Timezone     string

	CacheDir string
	// DumpDir receives every fetched grid page when set.
	DumpDir string
	// ReplayDir replaces the portal with pages dumped earlier.
	ReplayDir string
	Offline   bool
	// MaxAge bounds how old an offline snapshot may be; zero accepts any age.
	MaxAge time.Duration
	Reset  bool

	// Output receives every format except xlsx; nil means stdout.
	Output io.Writer
}

// Session is what a live run needs from the portal.
type Session interface {
	pager.Fetcher
	Login(ctx context.Context, username, password string) error
}

type Analyzer struct {
	config     *Config
	logger     util.LoggerInterface
	runID      string
	cache      cache.Cache
	calculator *overtime.Calculator
	time       *util.TimeProvider

	// dial opens the portal session; replaced in tests.
	dial func() (Session, error)
}

func New(config *Config, logger util.LoggerInterface) (*Analyzer, error) {
	if err := config.Policy.Validate(); err != nil {
		return nil, err
	}
	tp, err := util.NewTimeProvider(config.Timezone)
	if err != nil {
		return nil, err
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	runID := uuid.New().String()
	logger = util.OrNop(logger).With(util.F("run_id", runID))

	a := &Analyzer{
		config:     config,
		logger:     logger,
		runID:      runID,
		calculator: overtime.NewCalculator(config.Policy, logger),
		time:       tp,
	}
	a.dial = func() (Session, error) {
		return portal.New(portal.Config{
			BaseURL:  config.BaseURL,
			Timeout:  config.Timeout,
			Insecure: config.Insecure,
		}, logger)
	}

	if config.CacheDir != "" {
		fc, err := cache.NewFileCache(config.CacheDir, logger)
		if err != nil {
			logger.Warn("snapshot cache disabled", util.F("dir", config.CacheDir), util.F("error", err.Error()))
		} else {
			a.cache = fc
		}
	}
	return a, nil
}

// RunID tags every log line of this run.
func (a *Analyzer) RunID() string {
	return a.runID
}

// runContext carries the run id to components that log through
// LoggerInterface.WithContext.
func (a *Analyzer) runContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, util.RunIDKey, a.runID)
}

// Run collects the report and writes it in the configured format.
func (a *Analyzer) Run(ctx context.Context) error {
	result, err := a.Collect(ctx)
	if err != nil {
		return err
	}
	return a.Render(result.Report)
}

// Result is a finished report together with the data it was built from.
type Result struct {
	Report   *overtime.Report
	Snapshot *cache.Snapshot
	// FromCache is set when the snapshot was not fetched by this run.
	FromCache bool
}

// Collect gathers the snapshot (live, replayed or cached) and builds the
// report. Walk errors that leave some records behind become report
// warnings; ErrNoRecords is returned when nothing usable came back.
func (a *Analyzer) Collect(ctx context.Context) (*Result, error) {
	ctx = a.runContext(ctx)
	stats := newRunStats()
	a.logger.Info("starting overtime report", util.F("account", a.config.Username))

	if a.config.Reset {
		stats.phase("reset", func() {
			a.resetCache()
		})
	}

	var (
		snap      *cache.Snapshot
		fromCache bool
		err       error
	)
	stats.phase("fetch", func() {
		switch {
		case a.config.ReplayDir != "":
			snap, err = a.replaySnapshot(ctx)
		case a.config.Offline:
			snap, err = a.cachedSnapshot()
			fromCache = true
		default:
			snap, err = a.liveSnapshot(ctx)
		}
	})
	if err != nil {
		return nil, err
	}

	if !fromCache && a.config.ReplayDir == "" {
		stats.phase("save", func() {
			a.saveSnapshot(snap)
		})
	}

	var report *overtime.Report
	stats.phase("calculate", func() {
		report = a.buildReport(snap)
	})
	stats.log(a.logger, len(snap.Punches), len(report.Rows))

	if report.Summary.Days == 0 {
		if len(snap.Warnings) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoRecords, snap.Warnings[0])
		}
		return nil, ErrNoRecords
	}
	return &Result{Report: report, Snapshot: snap, FromCache: fromCache}, nil
}

func (a *Analyzer) liveSnapshot(ctx context.Context) (*cache.Snapshot, error) {
	session, err := a.dial()
	if err != nil {
		return nil, err
	}

	loginStart := time.Now()
	if err := session.Login(ctx, a.config.Username, a.config.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	a.logger.Debug("login finished", util.F("duration", time.Since(loginStart).String()))

	var recorder pager.PageRecorder
	if a.config.DumpDir != "" {
		store, err := dump.New(a.config.DumpDir, a.logger)
		if err != nil {
			a.logger.Warn("page dumps disabled", util.F("error", err.Error()))
		} else {
			for _, grid := range []string{extractor.AttendanceGrid.Name, extractor.StatusGrid.Name} {
				if err := store.Reset(grid); err != nil {
					a.logger.Warn("failed to clear old dumps", util.F("grid", grid), util.F("error", err.Error()))
				}
			}
			recorder = store
		}
	}

	src := walkSource{
		attendance: session,
		status:     session,
		recorder:   recorder,
		statusPath: a.statusPath(),
	}
	return a.walk(ctx, src)
}

func (a *Analyzer) replaySnapshot(ctx context.Context) (*cache.Snapshot, error) {
	store, err := dump.New(a.config.ReplayDir, a.logger)
	if err != nil {
		return nil, err
	}
	pages, err := store.Pages(extractor.AttendanceGrid.Name)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no %s pages in %s", extractor.AttendanceGrid.Name, store.Dir())
	}

	src := walkSource{attendance: store.Replay(extractor.AttendanceGrid.Name)}
	if statusPages, err := store.Pages(extractor.StatusGrid.Name); err == nil && len(statusPages) > 0 && !a.config.NoStatus {
		src.status = store.Replay(extractor.StatusGrid.Name)
		src.statusPath = "replay"
	}
	return a.walk(ctx, src)
}

// walkSource selects where each grid is fetched from. An empty statusPath
// skips the approval walk.
type walkSource struct {
	attendance pager.Fetcher
	status     pager.Fetcher
	recorder   pager.PageRecorder
	statusPath string
}

// walk runs the attendance walk then the approval walk on the same
// session, one after the other.
func (a *Analyzer) walk(ctx context.Context, src walkSource) (*cache.Snapshot, error) {
	snap := &cache.Snapshot{
		Account:   a.config.Username,
		BaseURL:   a.config.BaseURL,
		RunID:     a.runID,
		FetchedAt: a.time.Now(),
	}

	attendance := pager.New(src.attendance, extractor.AttendanceGrid, pager.Config{
		Path:     portal.AttendancePath,
		MaxPages: a.config.MaxPages,
		Recorder: src.recorder,
	}, a.logger)
	result, err := attendance.WalkAttendance(ctx)
	snap.Punches = result.Records
	snap.Pages = result.Pages
	if err != nil {
		if len(result.Records) == 0 {
			return nil, err
		}
		a.logger.Warn("attendance walk incomplete", util.F("error", err.Error()), util.F("records", len(result.Records)))
		snap.Warnings = append(snap.Warnings, err.Error())
	}

	if src.statusPath == "" || src.status == nil {
		a.logger.Debug("status walk skipped")
		return snap, nil
	}

	status := pager.New(src.status, extractor.StatusGrid, pager.Config{
		Path:     src.statusPath,
		MaxPages: a.config.MaxPages,
		Recorder: src.recorder,
	}, a.logger)
	statuses, err := status.WalkStatus(ctx)
	snap.Statuses = statuses.Records
	if err != nil {
		a.logger.Warn("status walk incomplete", util.F("error", err.Error()), util.F("records", len(statuses.Records)))
		snap.Warnings = append(snap.Warnings, err.Error())
	}
	return snap, nil
}

func (a *Analyzer) statusPath() string {
	if a.config.NoStatus {
		return ""
	}
	return a.config.StatusPath
}

func (a *Analyzer) cachedSnapshot() (*cache.Snapshot, error) {
	if a.cache == nil {
		return nil, fmt.Errorf("offline mode needs a cache directory")
	}
	res := a.cache.Get(a.config.Username, cache.Expectation{BaseURL: a.config.BaseURL, MaxAge: a.config.MaxAge})
	if !res.Found {
		return nil, fmt.Errorf("no cached snapshot for %q: %s", a.config.Username, res.MissReason)
	}
	a.logger.Info("using cached snapshot",
		util.F("fetched_at", res.Data.FetchedAt), util.F("punches", len(res.Data.Punches)))
	return res.Data, nil
}

func (a *Analyzer) saveSnapshot(snap *cache.Snapshot) {
	if a.cache == nil || len(snap.Punches) == 0 {
		return
	}
	if err := a.cache.Set(snap); err != nil {
		a.logger.Warn("failed to save snapshot", util.F("error", err.Error()))
		return
	}
	memory, files := a.cache.Stats()
	a.logger.Debug("snapshot cache", util.F("memory", memory), util.F("files", files))
}

func (a *Analyzer) resetCache() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Clear(); err != nil {
		a.logger.Warn("failed to clear cache", util.F("error", err.Error()))
		return
	}
	a.logger.Info("cache cleared")
}

func (a *Analyzer) buildReport(snap *cache.Snapshot) *overtime.Report {
	records := a.calculator.Calculate(snap.Punches)

	statuses := snap.Statuses
	if a.config.NoStatus {
		statuses = nil
	}
	report := overtime.NewReport(records, statuses, a.time.Now())
	report.Account = snap.Account
	report.Warnings = snap.Warnings
	if a.config.OnlyOvertime {
		report.Rows = overtime.OnlyOvertime(report.Rows)
	}
	return report
}

// Render writes the report in the configured format. xlsx goes to a file,
// everything else to the configured output.
func (a *Analyzer) Render(report *overtime.Report) error {
	f, err := formatter.New(a.config.OutputFormat)
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		a.logger.Debug("output finished", util.F("format", a.config.OutputFormat), util.F("duration", time.Since(start).String()))
	}()

	if _, ok := f.(*formatter.XLSXFormatter); !ok {
		return f.Format(a.config.Output, report)
	}

	path := a.config.XLSXFile
	if path == "" {
		path = filepath.Join("reports", "overtime_"+report.GeneratedAt.Format("20060102_150405")+".xlsx")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Format(file, report); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	a.logger.Info("report exported", util.F("path", path))
	fmt.Fprintf(a.config.Output, "Exported %d rows to %s\n", len(report.Rows), path)
	return nil
}
