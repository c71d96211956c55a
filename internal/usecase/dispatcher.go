package usecase

import (
	"context"
	"fmt"
	"time"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	applogger "MarinePulse/pkg/logger"
)

// Dispatcher hands notification events to the delivery collaborator at most
// once successfully. Delivery failures are retried with exponential backoff
// up to the attempt ceiling, then the event is logged as undelivered and
// dropped so a broken channel can never stall the pipeline.
type Dispatcher struct {
	delivery    drepo.Delivery
	metrics     drepo.Metrics
	logger      *applogger.Logger
	maxAttempts int
	backoffBase time.Duration
}

func NewDispatcher(delivery drepo.Delivery, metrics drepo.Metrics, lgr *applogger.Logger, maxAttempts int, backoffBase time.Duration) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Dispatcher{
		delivery:    delivery,
		metrics:     metrics,
		logger:      lgr,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Dispatch delivers one event. The returned error is informational; the
// caller is expected to move on either way.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.NotificationEvent) error {
	backoff := d.backoffBase
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		lastErr = d.delivery.Deliver(ctx, ev)
		if lastErr == nil {
			d.metrics.RecordNotification("delivered")
			d.logger.Info("notification delivered",
				applogger.String("event_id", ev.ID.String()),
				applogger.String("kind", string(ev.Kind)),
				applogger.String("subject", ev.SubjectID),
				applogger.String("channel", d.delivery.Name()))
			return nil
		}

		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				attempt = d.maxAttempts // give up, fall through to undelivered
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	d.metrics.RecordNotification("undelivered")
	d.logger.Error("notification undelivered, dropping",
		applogger.String("event_id", ev.ID.String()),
		applogger.String("kind", string(ev.Kind)),
		applogger.String("subject", ev.SubjectID),
		applogger.Int("attempts", d.maxAttempts),
		applogger.Error(lastErr))
	return fmt.Errorf("%w: %s after %d attempts: %v", drepo.ErrDeliveryFailed, ev.ID, d.maxAttempts, lastErr)
}
