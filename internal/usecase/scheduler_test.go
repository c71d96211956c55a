package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	internalrepo "MarinePulse/internal/repository"
	"MarinePulse/internal/service/credvault"
)

func vesselPayload(mmsi string) models.RawRecord {
	return rawRecord("aishub", models.KindVesselPositions,
		`{"mmsi":"`+mmsi+`","latitude":1.25,"longitude":103.8,"speed_kmh":18.52,"heading":90,"accuracy":0.8,"timestamp":"2026-03-01T11:59:30Z"}`)
}

func congestionPayload(port string, waiting int) models.RawRecord {
	rec := rawRecord("portwatch", models.KindPortCongestion,
		`{"portid":"`+port+`","n_vessels_waiting":`+itoa(waiting)+`,"avg_waiting_hours":4,"date":"2026-03-01T11:55:00Z"}`)
	return rec
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

type schedulerHarness struct {
	sched   *Scheduler
	store   drepo.StateStore
	vault   *credvault.Vault
	metrics *fakeMetrics
	del     *fakeDelivery
	ops     *fakeOps
}

func newHarness(providers ...drepo.ProviderClient) *schedulerHarness {
	h := &schedulerHarness{
		vault:   credvault.New(),
		metrics: newFakeMetrics(),
		del:     &fakeDelivery{},
		ops:     &fakeOps{},
	}
	for _, p := range providers {
		h.vault.Register(p.Name(), "key-"+p.Name(), 100, time.Hour)
	}
	lgr := testLogger()
	h.store = internalrepo.NewMemoryStateStore()
	h.sched = NewScheduler(
		SchedulerConfig{
			Interval:     time.Minute,
			FetchTimeout: time.Second,
			Workers:      2,
			RetryBackoff: time.Millisecond,
		},
		providers,
		h.vault,
		NewNormalizer(h.metrics),
		NewReconciler([]string{"aisstream", "aishub", "portwatch"}),
		h.store,
		NewEvaluator(75, models.MetricVesselsWaiting),
		NewDispatcher(h.del, h.metrics, lgr, 2, time.Millisecond),
		nil,
		h.ops,
		h.metrics,
		lgr,
	)
	return h
}

func TestRunCycleAppliesStateAndDispatches(t *testing.T) {
	badVessel := rawRecord("aishub", models.KindVesselPositions,
		`{"mmsi":"999000999","latitude":999,"longitude":0,"speed_kmh":1,"heading":0,"accuracy":0.5,"timestamp":"2026-03-01T11:59:00Z"}`)
	ais := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		records: []models.RawRecord{vesselPayload("366999712"), badVessel}}
	pw := &fakeProvider{name: "portwatch", kind: models.KindPortCongestion,
		records: []models.RawRecord{congestionPayload("SGSIN", 80)}}
	h := newHarness(ais, pw)

	result := h.sched.RunCycle(context.Background())
	if result != CycleOK {
		t.Fatalf("expected ok cycle, got %s", result)
	}

	v, err := h.store.Vessel("366999712")
	if err != nil {
		t.Fatalf("vessel not stored: %v", err)
	}
	if v.Position.Provider != "aishub" {
		t.Fatalf("unexpected provider %s", v.Position.Provider)
	}

	p, err := h.store.Port("SGSIN")
	if err != nil {
		t.Fatalf("port not stored: %v", err)
	}
	if !p.Alerting {
		t.Fatalf("expected port alerting at 80 waiting")
	}

	if len(h.del.delivered) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.del.delivered))
	}
	if h.del.delivered[0].Kind != models.EventCongestionExceeded {
		t.Fatalf("unexpected event kind %s", h.del.delivered[0].Kind)
	}

	// The out-of-range record was dropped without sinking its siblings.
	if _, err := h.store.Vessel("999000999"); err == nil {
		t.Fatalf("malformed record must never reach the store")
	}
	if h.metrics.malformed["aishub"] != 1 {
		t.Fatalf("expected malformed record counted")
	}
}

func TestRunCycleSecondCrossingIsSilent(t *testing.T) {
	pw := &fakeProvider{name: "portwatch", kind: models.KindPortCongestion,
		records: []models.RawRecord{congestionPayload("SGSIN", 80)}}
	h := newHarness(pw)

	h.sched.RunCycle(context.Background())
	h.sched.RunCycle(context.Background())
	h.sched.RunCycle(context.Background())

	if len(h.del.delivered) != 1 {
		t.Fatalf("expected a single event across cycles above threshold, got %d", len(h.del.delivered))
	}
}

func TestRunCyclePartialFailure(t *testing.T) {
	ais := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		records: []models.RawRecord{vesselPayload("111000111")}}
	pw := &fakeProvider{name: "portwatch", kind: models.KindPortCongestion,
		records: []models.RawRecord{congestionPayload("SGSIN", 40)}}
	bad := &fakeProvider{name: "stormglass", kind: models.KindWeather,
		err: errors.New("upstream boom")}
	h := newHarness(ais, pw, bad)

	result := h.sched.RunCycle(context.Background())
	if result != CyclePartial {
		t.Fatalf("expected partial cycle, got %s", result)
	}

	if _, err := h.store.Vessel("111000111"); err != nil {
		t.Fatalf("surviving provider's data should be applied: %v", err)
	}
	if _, err := h.store.Port("SGSIN"); err != nil {
		t.Fatalf("surviving provider's data should be applied: %v", err)
	}

	// The kind that lost all its providers is an operational alert.
	if len(h.ops.alerts) != 1 || h.ops.alerts[0] != "all_providers_failed:weather" {
		t.Fatalf("unexpected ops alerts %v", h.ops.alerts)
	}
}

func TestRunCycleAllProvidersDark(t *testing.T) {
	bad := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		err: errors.New("upstream boom")}
	h := newHarness(bad)

	result := h.sched.RunCycle(context.Background())
	if result != CycleFailed {
		t.Fatalf("expected failed cycle, got %s", result)
	}
	if len(h.store.Vessels()) != 0 {
		t.Fatalf("expected no state applied")
	}
	if h.metrics.cycles[string(CycleFailed)] != 1 {
		t.Fatalf("expected failed cycle metric")
	}
}

func TestTriggerDroppedWhileInFlight(t *testing.T) {
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions}
	h := newHarness(p)

	h.sched.inFlight.Store(true)
	h.sched.trigger(context.Background())

	if h.metrics.cycles[string(CycleDropped)] != 1 {
		t.Fatalf("expected dropped trigger metric")
	}
	if p.calls != 0 {
		t.Fatalf("dropped trigger must not touch providers")
	}
}

func TestQuotaExhaustedProviderSkipped(t *testing.T) {
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		records: []models.RawRecord{vesselPayload("222000222")}}
	pw := &fakeProvider{name: "portwatch", kind: models.KindPortCongestion,
		records: []models.RawRecord{congestionPayload("SGSIN", 40)}}
	h := newHarness(p, pw)
	// Replace the registration with a one-call quota over a long window.
	h.vault.Register("aishub", "key-aishub", 1, 24*time.Hour)

	if result := h.sched.RunCycle(context.Background()); result != CycleOK {
		t.Fatalf("expected first cycle ok, got %s", result)
	}

	result := h.sched.RunCycle(context.Background())
	if result != CyclePartial {
		t.Fatalf("expected second cycle partial with quota spent, got %s", result)
	}
	if p.calls != 1 {
		t.Fatalf("exhausted provider must not be fetched, got %d calls", p.calls)
	}
	if pw.calls != 2 {
		t.Fatalf("other providers must be unaffected, got %d calls", pw.calls)
	}
	if h.metrics.quotaExceeded["aishub"] != 1 {
		t.Fatalf("expected quota exceeded metric")
	}
}

func TestFetchRetriesOnceOnTimeout(t *testing.T) {
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		err: drepo.ErrTimeout}
	h := newHarness(p)

	if result := h.sched.RunCycle(context.Background()); result != CycleFailed {
		t.Fatalf("expected failed cycle, got %s", result)
	}
	if p.calls != 2 {
		t.Fatalf("expected initial attempt plus one retry, got %d", p.calls)
	}
}

func TestFetchRefundsQuotaOnCancelledContext(t *testing.T) {
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		records: []models.RawRecord{vesselPayload("333000333")}}
	h := newHarness(p)
	h.vault.Register("aishub", "key-aishub", 1, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.sched.fetchOne(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("cancelled fetch must never reach the provider, got %d calls", p.calls)
	}
	// The single token goes back to the bucket.
	if _, err := h.vault.Acquire("aishub"); err != nil {
		t.Fatalf("expected refunded quota token, got %v", err)
	}
}

func TestStopWaitTimesOutOnStuckCycle(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		records: []models.RawRecord{vesselPayload("444000444")}, release: release}
	h := newHarness(p)

	ctx, cancel := context.WithCancel(context.Background())
	h.sched.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for p.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("provider fetch never started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	if h.sched.StopWait(20 * time.Millisecond) {
		t.Fatalf("expected StopWait to give up while the fetch is blocked")
	}

	close(release)
	if !h.sched.StopWait(2 * time.Second) {
		t.Fatalf("expected StopWait to drain once the fetch returned")
	}
}

func TestAuthRejectionInvalidatesCredential(t *testing.T) {
	p := &fakeProvider{name: "aishub", kind: models.KindVesselPositions,
		err: drepo.ErrAuthRejected}
	h := newHarness(p)

	h.sched.RunCycle(context.Background())

	if p.calls != 1 {
		t.Fatalf("auth rejection must not be retried, got %d calls", p.calls)
	}
	if len(h.ops.alerts) == 0 || h.ops.alerts[0] != "auth_rejected:aishub" {
		t.Fatalf("expected ops alert for rejected credentials, got %v", h.ops.alerts)
	}
	if _, err := h.vault.Acquire("aishub"); !errors.Is(err, drepo.ErrAuthRejected) {
		t.Fatalf("expected credential invalidated, got %v", err)
	}
}
