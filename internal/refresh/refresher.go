package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/mfrank/internal/analysis"
	"github.com/wonny/mfrank/internal/classify"
	"github.com/wonny/mfrank/internal/contracts"
	"github.com/wonny/mfrank/internal/external/mfapi"
	"github.com/wonny/mfrank/pkg/logger"
	"github.com/wonny/mfrank/pkg/metrics"
	"github.com/wonny/mfrank/pkg/redis"
)

// UniverseLister returns the instruments for one run
type UniverseLister interface {
	List(ctx context.Context, limit int) []contracts.Scheme
}

// SeriesFetcher returns the price history for one instrument
type SeriesFetcher interface {
	FetchNAVHistory(ctx context.Context, code, name string, limit int) (contracts.PriceSeries, error)
}

// CacheInvalidator retires cached query results after a commit: Bump moves
// readers to a fresh generation, InvalidatePrefix drops the old entries
type CacheInvalidator interface {
	Bump(ctx context.Context, name string) (int64, error)
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Config controls how a run computes metrics
type Config struct {
	Lookback    int // observations kept per series
	Windows     analysis.Windows
	Workers     int // concurrent fetch+compute workers, 1 = sequential
	ConfigHash  string
	HistorySize int // run reports kept in memory
}

// DefaultConfig returns the standard refresh settings
func DefaultConfig() Config {
	return Config{
		Lookback:    mfapi.DefaultLookback,
		Windows:     analysis.DefaultWindows(),
		Workers:     1,
		HistorySize: 20,
	}
}

// Refresher runs the metrics-refresh pipeline
// ⭐ SSOT: InstrumentRecord 쓰기는 Refresher만 수행
type Refresher struct {
	lister  UniverseLister
	fetcher SeriesFetcher
	store   contracts.InstrumentStore
	cache   CacheInvalidator
	cfg     Config
	logger  *logger.Logger
	now     func() time.Time

	// runMu serializes whole runs; Trigger uses TryLock to reject overlap
	runMu sync.Mutex

	mu      sync.Mutex
	history []RunReport
	current string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new Refresher
func New(lister UniverseLister, fetcher SeriesFetcher, store contracts.InstrumentStore, cfg Config, log *logger.Logger) *Refresher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = mfapi.DefaultLookback
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		lister:  lister,
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		logger:  log.Module("refresh"),
		now:     time.Now,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// WithCache sets the cache invalidated after every commit
func (r *Refresher) WithCache(cache CacheInvalidator) *Refresher {
	r.cache = cache
	return r
}

// WithClock replaces time.Now (tests)
func (r *Refresher) WithClock(now func() time.Time) *Refresher {
	r.now = now
	return r
}

// Run executes one blocking refresh run
func (r *Refresher) Run(ctx context.Context, limit int) (*RunReport, error) {
	return r.RunFrom(ctx, SourceManual, limit)
}

// RunFrom executes one blocking refresh run labelled with its source.
// It waits for an in-flight run to finish first.
func (r *Refresher) RunFrom(ctx context.Context, source Source, limit int) (*RunReport, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.run(ctx, uuid.NewString(), source, limit)
}

// Trigger starts an on-demand run in the background and returns its ID
func (r *Refresher) Trigger(limit int) (string, error) {
	return r.TriggerFrom(SourceOnDemand, limit)
}

// TriggerFrom starts a background run; it never blocks.
// Returns ErrRefreshInProgress while another run is active.
func (r *Refresher) TriggerFrom(source Source, limit int) (string, error) {
	if r.baseCtx.Err() != nil {
		return "", fmt.Errorf("refresher closed: %w", r.baseCtx.Err())
	}
	if !r.runMu.TryLock() {
		return "", ErrRefreshInProgress
	}

	id := uuid.NewString()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.runMu.Unlock()
		if _, err := r.run(r.baseCtx, id, source, limit); err != nil {
			r.logger.WithError(err).WithField("run_id", id).Error("Background refresh failed")
		}
	}()
	return id, nil
}

// Close cancels background runs and waits for them to stop
func (r *Refresher) Close() {
	r.cancel()
	r.wg.Wait()
}

// Running returns the ID of the active run, if any
func (r *Refresher) Running() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != ""
}

// Runs returns recent run reports, newest first
func (r *Refresher) Runs() []RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunReport, len(r.history))
	copy(out, r.history)
	return out
}

// run is START → LIST_UNIVERSE → (FETCH → COMPUTE → RECONCILE)* → COMMIT → END.
// Caller holds runMu.
func (r *Refresher) run(ctx context.Context, id string, source Source, limit int) (*RunReport, error) {
	report := &RunReport{
		ID:         id,
		Source:     source,
		Limit:      limit,
		ConfigHash: r.cfg.ConfigHash,
		StartedAt:  r.now(),
		Failed:     make(map[Stage]int),
	}
	log := r.logger.WithFields(map[string]interface{}{
		"run_id": id,
		"source": source,
	})

	r.setCurrent(id)
	err := r.execute(ctx, report, log, limit)
	r.setCurrent("")

	if err != nil {
		report.Error = err.Error()
	}
	r.finish(report, log)
	return report, err
}

func (r *Refresher) execute(ctx context.Context, report *RunReport, log *logger.Logger, limit int) error {
	log.WithField("limit", limit).Info("Refresh started")

	universe := r.lister.List(ctx, limit)
	report.Universe = len(universe)
	if len(universe) == 0 {
		report.Outcome = OutcomeEmpty
		log.Warn("Universe is empty, nothing to refresh")
		return nil
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		report.Outcome = OutcomeFailed
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(context.Background()); err != nil {
				log.WithError(err).Warn("Rollback failed")
			}
		}
	}()

	for res := range r.computeAll(ctx, universe) {
		if res.err == nil {
			res.created, res.err = r.reconcile(ctx, tx, res)
		}
		if res.err != nil {
			report.addFailure(res.err)
			metrics.IncInstrument(string(res.err.Stage))
			log.WithError(res.err.Err).WithFields(map[string]interface{}{
				"code":  res.err.Code,
				"name":  res.err.Name,
				"stage": res.err.Stage,
			}).Warn("Instrument skipped")
			continue
		}

		if res.created {
			report.Created++
		} else {
			report.Updated++
		}
		metrics.IncInstrument("ok")
	}

	if err := ctx.Err(); err != nil {
		report.Outcome = OutcomeCanceled
		return fmt.Errorf("refresh canceled before commit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		report.Outcome = OutcomeFailed
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	report.Outcome = OutcomeCommitted

	r.invalidateCache(log)
	return nil
}

// result is the outcome of fetch+compute for one instrument
type result struct {
	scheme   contracts.Scheme
	metrics  contracts.Metrics
	category string
	created  bool
	err      *InstrumentError
}

// computeAll fans fetch+compute out to the worker pool. Results arrive in
// completion order; the caller reconciles them one at a time.
func (r *Refresher) computeAll(ctx context.Context, universe []contracts.Scheme) <-chan result {
	schemeCh := make(chan contracts.Scheme, len(universe))
	resultCh := make(chan result, len(universe))

	for _, s := range universe {
		schemeCh <- s
	}
	close(schemeCh)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range schemeCh {
				resultCh <- r.computeOne(ctx, s)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()
	return resultCh
}

func (r *Refresher) computeOne(ctx context.Context, s contracts.Scheme) (res result) {
	res.scheme = s
	fail := func(stage Stage, err error) result {
		res.err = &InstrumentError{Code: s.Code, Name: s.Name, Stage: stage, Err: err}
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			res = fail(StageCompute, fmt.Errorf("panic: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(StageCanceled, err)
	}

	series, err := r.fetcher.FetchNAVHistory(ctx, s.Code, s.Name, r.cfg.Lookback)
	switch {
	case err == nil:
	case errors.Is(err, mfapi.ErrSeriesUnavailable):
		return fail(StageUnavailable, err)
	case ctx.Err() != nil:
		return fail(StageCanceled, err)
	default:
		return fail(StageFetch, err)
	}

	res.metrics = analysis.Compute(series, r.cfg.Windows)
	res.category = classify.Classify(s.Name)
	return res
}

// reconcile overwrites or inserts the full record for one instrument
func (r *Refresher) reconcile(ctx context.Context, tx contracts.StoreTx, res result) (created bool, ierr *InstrumentError) {
	fail := func(err error) *InstrumentError {
		return &InstrumentError{Code: res.scheme.Code, Name: res.scheme.Name, Stage: StageReconcile, Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			created, ierr = false, fail(fmt.Errorf("panic: %v", p))
		}
	}()

	rec := contracts.InstrumentRecord{Code: res.scheme.Code}
	existing, err := tx.Get(ctx, res.scheme.Code)
	switch {
	case err == nil:
		rec = *existing
	case errors.Is(err, contracts.ErrNotFound):
		created = true
	default:
		return false, fail(fmt.Errorf("lookup: %w", err))
	}

	rec.Apply(res.scheme.Name, res.category, res.metrics, r.now())
	if err := tx.Put(ctx, rec); err != nil {
		return false, fail(err)
	}
	return created, nil
}

func (r *Refresher) invalidateCache(log *logger.Logger) {
	if r.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gen, err := r.cache.Bump(ctx, redis.RecommendationGeneration)
	if err != nil {
		log.WithError(err).Warn("Recommendation cache generation bump failed")
	}

	n, err := r.cache.InvalidatePrefix(ctx, redis.RecommendationPrefix)
	if err != nil {
		log.WithError(err).Warn("Recommendation cache invalidation failed")
		return
	}
	log.WithFields(map[string]interface{}{
		"keys":       n,
		"generation": gen,
	}).Debug("Recommendation cache invalidated")
}

func (r *Refresher) finish(report *RunReport, log *logger.Logger) {
	report.FinishedAt = r.now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)
	metrics.ObserveRefreshRun(string(report.Source), report.Outcome, report.Duration)

	r.mu.Lock()
	r.history = append([]RunReport{*report}, r.history...)
	if len(r.history) > r.cfg.HistorySize {
		r.history = r.history[:r.cfg.HistorySize]
	}
	r.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"outcome":  report.Outcome,
		"universe": report.Universe,
		"created":  report.Created,
		"updated":  report.Updated,
		"ok":       report.Succeeded(),
		"failed":   report.FailedTotal(),
		"duration": report.Duration.String(),
	}).Info("Refresh finished")
}

func (r *Refresher) setCurrent(id string) {
	r.mu.Lock()
	r.current = id
	r.mu.Unlock()
}
