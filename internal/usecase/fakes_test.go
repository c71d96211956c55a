package usecase

import (
	"context"
	"sync"
	"time"

	"MarinePulse/internal/domain/models"
	applogger "MarinePulse/pkg/logger"
)

func testLogger() *applogger.Logger {
	l, _ := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	return l
}

// fakeMetrics counts recorder calls without touching Prometheus.
type fakeMetrics struct {
	mu            sync.Mutex
	fetched       map[string]int
	malformed     map[string]int
	providerErrs  map[string]int
	quotaExceeded map[string]int
	cycles        map[string]int
	notifications map[string]int
	congestion    map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		fetched:       make(map[string]int),
		malformed:     make(map[string]int),
		providerErrs:  make(map[string]int),
		quotaExceeded: make(map[string]int),
		cycles:        make(map[string]int),
		notifications: make(map[string]int),
		congestion:    make(map[string]float64),
	}
}

func (m *fakeMetrics) RecordFetched(provider string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched[provider] += count
}

func (m *fakeMetrics) RecordMalformed(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.malformed[provider]++
}

func (m *fakeMetrics) RecordProviderError(provider, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerErrs[provider+"/"+kind]++
}

func (m *fakeMetrics) RecordQuotaExceeded(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotaExceeded[provider]++
}

func (m *fakeMetrics) RecordCycle(result string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[result]++
}

func (m *fakeMetrics) RecordNotification(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[result]++
}

func (m *fakeMetrics) RecordCongestion(portID string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.congestion[portID] = value
}

// fakeDelivery fails the first failN deliveries, then succeeds.
type fakeDelivery struct {
	mu        sync.Mutex
	failN     int
	failErr   error
	delivered []models.NotificationEvent
	attempts  int
}

func (d *fakeDelivery) Name() string { return "fake" }

func (d *fakeDelivery) Deliver(ctx context.Context, ev models.NotificationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.attempts <= d.failN {
		return d.failErr
	}
	d.delivered = append(d.delivered, ev)
	return nil
}

// fakeProvider serves canned records or a canned error. A non-nil release
// channel makes Fetch block, ignoring its context, until the test closes it.
type fakeProvider struct {
	name    string
	kind    models.DataKind
	records []models.RawRecord
	err     error
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (p *fakeProvider) Name() string          { return p.name }
func (p *fakeProvider) Kind() models.DataKind { return p.kind }
func (p *fakeProvider) Close() error          { return nil }

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.records, nil
}

// fakeOps remembers operational alerts.
type fakeOps struct {
	mu     sync.Mutex
	alerts []string
}

func (o *fakeOps) Alert(ctx context.Context, kind string, providerID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alerts = append(o.alerts, kind+":"+providerID)
}
