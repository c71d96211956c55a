package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
)

func testEvent() models.NotificationEvent {
	return models.NewNotificationEvent(
		models.EventCongestionExceeded, "SGSIN", models.MetricVesselsWaiting, 80, 75)
}

func TestDispatchDeliversFirstTry(t *testing.T) {
	del := &fakeDelivery{}
	m := newFakeMetrics()
	d := NewDispatcher(del, m, testLogger(), 3, time.Millisecond)

	if err := d.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(del.delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(del.delivered))
	}
	if m.notifications["delivered"] != 1 {
		t.Fatalf("expected delivered metric")
	}
}

func TestDispatchRetriesThenDelivers(t *testing.T) {
	del := &fakeDelivery{failN: 2, failErr: errors.New("channel down")}
	m := newFakeMetrics()
	d := NewDispatcher(del, m, testLogger(), 3, time.Millisecond)

	if err := d.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if del.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", del.attempts)
	}
	if len(del.delivered) != 1 {
		t.Fatalf("expected one delivery after retries, got %d", len(del.delivered))
	}
}

func TestDispatchDropsAfterMaxAttempts(t *testing.T) {
	del := &fakeDelivery{failN: 100, failErr: errors.New("channel down")}
	m := newFakeMetrics()
	d := NewDispatcher(del, m, testLogger(), 3, time.Millisecond)

	err := d.Dispatch(context.Background(), testEvent())
	if !errors.Is(err, drepo.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if del.attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", del.attempts)
	}
	if len(del.delivered) != 0 {
		t.Fatalf("expected no delivery")
	}
	if m.notifications["undelivered"] != 1 {
		t.Fatalf("expected undelivered metric")
	}
}

func TestDispatchGivesUpOnCancelledContext(t *testing.T) {
	del := &fakeDelivery{failN: 100, failErr: errors.New("channel down")}
	m := newFakeMetrics()
	d := NewDispatcher(del, m, testLogger(), 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Dispatch(ctx, testEvent())
	if !errors.Is(err, drepo.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if del.attempts != 1 {
		t.Fatalf("expected single attempt under cancelled context, got %d", del.attempts)
	}
}
