package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	applogger "MarinePulse/pkg/logger"
)

// CycleResult summarizes one scheduler iteration.
type CycleResult string

const (
	CycleOK      CycleResult = "ok"      // every provider contributed
	CyclePartial CycleResult = "partial" // some providers failed, data still flowed
	CycleFailed  CycleResult = "failed"  // every provider of every polled kind failed
	CycleDropped CycleResult = "dropped" // trigger fired while previous cycle still running
)

// SchedulerConfig carries the cycle policy knobs.
type SchedulerConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Workers      int
	RetryBackoff time.Duration // base for the single jittered fetch retry
}

// Scheduler drives the polling pipeline: it fans fetches out over a bounded
// worker pool, then runs normalize, reconcile, evaluate and dispatch as one
// deterministic single-threaded pass over the cycle's records. Overlapping
// triggers are dropped, never queued, so reconciliation always sees one
// complete, consistent snapshot.
type Scheduler struct {
	cfg       SchedulerConfig
	providers []drepo.ProviderClient
	vault     drepo.CredentialVault
	norm      *Normalizer
	rec       *Reconciler
	store     drepo.StateStore
	eval      *Evaluator
	disp      *Dispatcher
	archive   drepo.Archive // optional
	ops       drepo.OpsAlerter
	metrics   drepo.Metrics
	logger    *applogger.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

func NewScheduler(
	cfg SchedulerConfig,
	providers []drepo.ProviderClient,
	vault drepo.CredentialVault,
	norm *Normalizer,
	rec *Reconciler,
	store drepo.StateStore,
	eval *Evaluator,
	disp *Dispatcher,
	archive drepo.Archive,
	ops drepo.OpsAlerter,
	metrics drepo.Metrics,
	lgr *applogger.Logger,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	return &Scheduler{
		cfg:       cfg,
		providers: providers,
		vault:     vault,
		norm:      norm,
		rec:       rec,
		store:     store,
		eval:      eval,
		disp:      disp,
		archive:   archive,
		ops:       ops,
		metrics:   metrics,
		logger:    lgr,
	}
}

// Start runs the polling loop until ctx is cancelled. The first cycle runs
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.trigger(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.trigger(ctx)
			}
		}
	}()
}

// StopWait waits for the loop to drain, up to timeout. It returns false
// when the in-flight cycle is still running at the deadline; the caller
// abandons it and proceeds with shutdown.
func (s *Scheduler) StopWait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// trigger enforces the single-flight rule: if the previous cycle is still
// running, this trigger is dropped and logged.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("cycle still running, dropping trigger")
		s.metrics.RecordCycle(string(CycleDropped), 0)
		return
	}
	defer s.inFlight.Store(false)
	s.RunCycle(ctx)
}

// cycleData is the cycle-scoped working set; it dies with the cycle.
type cycleData struct {
	raw map[models.DataKind][]models.RawRecord
	// per kind: how many providers were polled vs. contributed
	polled map[models.DataKind]int
	okBy   map[models.DataKind]int
	failed int
}

// RunCycle executes one full pass: Fetching -> Normalizing -> Reconciling ->
// Evaluating -> Dispatching. Provider failures are contained within the
// cycle; only a data kind losing all its providers is surfaced.
func (s *Scheduler) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()

	data := s.fetchAll(ctx)

	result := CycleOK
	if data.failed > 0 {
		result = CyclePartial
	}

	allDark := len(data.polled) > 0
	for kind, polled := range data.polled {
		if data.okBy[kind] > 0 {
			allDark = false
			continue
		}
		if polled > 0 {
			s.logger.Error("all providers failed for data kind",
				applogger.String("kind", string(kind)))
			s.ops.Alert(ctx, "all_providers_failed", string(kind), drepo.ErrAllProvidersFailed)
		}
	}
	if allDark {
		s.metrics.RecordCycle(string(CycleFailed), time.Since(start))
		s.logger.Error("cycle failed, no provider contributed")
		return CycleFailed
	}

	// Single-threaded deterministic pass from here on.
	vessels, ports, weather := s.normalize(data)

	recVessels := s.rec.ReconcileVessels(vessels)
	recPorts := s.rec.ReconcilePorts(ports)
	recWeather := s.rec.ReconcileWeather(weather)

	nowT := time.Now().UTC()

	canonical := make([]models.CanonicalVesselState, 0, len(recVessels))
	for _, p := range recVessels {
		canonical = append(canonical, models.CanonicalVesselState{Position: p, UpdatedAt: nowT})
	}

	var events []models.NotificationEvent
	portStates := make([]models.CanonicalPortState, 0, len(recPorts))
	for _, snap := range recPorts {
		prev, err := s.store.Port(snap.PortID)
		if err != nil {
			prev = nil
		}
		state, evs := s.eval.Evaluate(prev, snap, nowT)
		portStates = append(portStates, state)
		events = append(events, evs...)
		s.metrics.RecordCongestion(snap.PortID, state.Snapshot.Metric(s.eval.Metric()))
	}

	s.store.ApplyCycle(canonical, portStates)
	if len(recWeather) > 0 {
		s.store.SetWeather(recWeather)
	}

	if s.archive != nil && len(canonical) > 0 {
		if err := s.archive.StoreBatch(ctx, canonical); err != nil {
			s.logger.Warn("archive write failed", applogger.Error(err))
		}
	}

	for _, ev := range events {
		_ = s.disp.Dispatch(ctx, ev) // dispatcher handles retry and drop
	}

	dur := time.Since(start)
	s.metrics.RecordCycle(string(result), dur)
	s.logger.Info("cycle complete",
		applogger.String("result", string(result)),
		applogger.Int("vessels", len(canonical)),
		applogger.Int("ports", len(portStates)),
		applogger.Int("events", len(events)),
		applogger.Duration("duration", dur))
	return result
}

// fetchAll fans out over the providers with bounded concurrency. Each worker
// owns its provider's quota acquisition, timeout, and the single retry.
func (s *Scheduler) fetchAll(ctx context.Context) *cycleData {
	data := &cycleData{
		raw:    make(map[models.DataKind][]models.RawRecord),
		polled: make(map[models.DataKind]int),
		okBy:   make(map[models.DataKind]int),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Workers)

	for _, p := range s.providers {
		mu.Lock()
		data.polled[p.Kind()]++
		mu.Unlock()

		wg.Add(1)
		go func(p drepo.ProviderClient) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			records, err := s.fetchOne(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				data.failed++
				return
			}
			data.raw[p.Kind()] = append(data.raw[p.Kind()], records...)
			data.okBy[p.Kind()]++
		}(p)
	}

	wg.Wait()
	return data
}

// fetchOne polls a single provider: acquire quota, fetch with a bounded
// timeout, retry once with jittered backoff on timeout/rate-limit. An auth
// rejection invalidates the credential immediately and is surfaced to ops.
func (s *Scheduler) fetchOne(ctx context.Context, p drepo.ProviderClient) ([]models.RawRecord, error) {
	cred, err := s.vault.Acquire(p.Name())
	if err != nil {
		switch {
		case errors.Is(err, drepo.ErrQuotaExceeded):
			s.metrics.RecordQuotaExceeded(p.Name())
			s.logger.Warn("quota spent, skipping provider", applogger.String("provider", p.Name()))
		case errors.Is(err, drepo.ErrProviderDegraded):
			s.metrics.RecordProviderError(p.Name(), "degraded")
			s.logger.Warn("provider degraded, skipping", applogger.String("provider", p.Name()))
		default:
			s.metrics.RecordProviderError(p.Name(), "acquire")
			s.logger.Error("credential acquire failed", applogger.String("provider", p.Name()), applogger.Error(err))
		}
		return nil, err
	}

	if ctx.Err() != nil {
		// Cancelled after the quota charge but before the call; give the
		// token back so shutdown does not eat into the next window.
		s.vault.Refund(p.Name())
		return nil, ctx.Err()
	}

	records, err := s.fetchWithTimeout(ctx, p, cred)
	if err == nil {
		s.vault.Record(p.Name(), true, 1)
		s.metrics.RecordFetched(p.Name(), len(records))
		return records, nil
	}

	if errors.Is(err, drepo.ErrAuthRejected) {
		s.vault.Record(p.Name(), false, 1)
		s.vault.Invalidate(p.Name())
		s.metrics.RecordProviderError(p.Name(), "auth_rejected")
		s.logger.Error("provider rejected credentials", applogger.String("provider", p.Name()), applogger.Error(err))
		s.ops.Alert(ctx, "auth_rejected", p.Name(), err)
		return nil, err
	}

	if errors.Is(err, drepo.ErrTimeout) || errors.Is(err, drepo.ErrRateLimited) {
		// One retry with jitter, then give up on this provider for the cycle.
		select {
		case <-ctx.Done():
			s.vault.Record(p.Name(), false, 1)
			return nil, ctx.Err()
		case <-time.After(jitter(s.cfg.RetryBackoff)):
		}
		records, err = s.fetchWithTimeout(ctx, p, cred)
		if err == nil {
			s.vault.Record(p.Name(), true, 1)
			s.metrics.RecordFetched(p.Name(), len(records))
			return records, nil
		}
	}

	s.vault.Record(p.Name(), false, 1)
	s.metrics.RecordProviderError(p.Name(), errorKind(err))
	s.logger.Warn("provider fetch failed",
		applogger.String("provider", p.Name()),
		applogger.String("kind", errorKind(err)),
		applogger.Error(err))
	return nil, err
}

func (s *Scheduler) fetchWithTimeout(ctx context.Context, p drepo.ProviderClient, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return p.Fetch(fctx, cred)
}

// normalize maps the cycle's raw records into canonical ones, dropping
// unrepresentable records individually.
func (s *Scheduler) normalize(data *cycleData) ([]models.VesselPosition, []models.PortCongestionSnapshot, []models.WeatherObservation) {
	var (
		vessels []models.VesselPosition
		ports   []models.PortCongestionSnapshot
		weather []models.WeatherObservation
	)
	for _, records := range data.raw {
		for _, rec := range records {
			n, err := s.norm.Normalize(rec)
			if err != nil {
				s.logger.Debug("record dropped",
					applogger.String("provider", rec.Provider),
					applogger.Error(err))
				continue
			}
			switch {
			case n.Vessel != nil:
				vessels = append(vessels, *n.Vessel)
			case n.Port != nil:
				ports = append(ports, *n.Port)
			case n.Weather != nil:
				weather = append(weather, *n.Weather)
			}
		}
	}
	return vessels, ports, weather
}

func jitter(base time.Duration) time.Duration {
	return base + time.Duration(rand.Int63n(int64(base)))
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, drepo.ErrTimeout):
		return "timeout"
	case errors.Is(err, drepo.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, drepo.ErrAuthRejected):
		return "auth_rejected"
	default:
		return "other"
	}
}
