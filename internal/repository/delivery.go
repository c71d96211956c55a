package repository

import (
	"context"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	pkgkafka "MarinePulse/pkg/kafka"
	applogger "MarinePulse/pkg/logger"
	"MarinePulse/pkg/queue"
)

// RedisQueueDelivery enqueues notification events onto the Redis delivery
// queue for the external delivery layer to consume.
type RedisQueueDelivery struct {
	q *queue.RedisQueue
}

func NewRedisQueueDelivery(q *queue.RedisQueue) *RedisQueueDelivery {
	return &RedisQueueDelivery{q: q}
}

func (d *RedisQueueDelivery) Name() string { return "redis" }

func (d *RedisQueueDelivery) Deliver(ctx context.Context, ev models.NotificationEvent) error {
	return d.q.PublishMessage(ctx, string(ev.Kind), ev)
}

// KafkaDelivery publishes notification events to a Kafka topic, keyed by
// subject so consumers see per-port ordering.
type KafkaDelivery struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaDelivery(producer *pkgkafka.Producer, topic string) *KafkaDelivery {
	return &KafkaDelivery{producer: producer, topic: topic}
}

func (d *KafkaDelivery) Name() string { return "kafka" }

func (d *KafkaDelivery) Deliver(ctx context.Context, ev models.NotificationEvent) error {
	return d.producer.Publish(ctx, d.topic, []byte(ev.SubjectID), ev)
}

// LogDelivery is the fallback channel: events land in the structured log
// only. Useful in development and as a safe default.
type LogDelivery struct {
	logger *applogger.Logger
}

func NewLogDelivery(lgr *applogger.Logger) *LogDelivery {
	return &LogDelivery{logger: lgr}
}

func (d *LogDelivery) Name() string { return "log" }

func (d *LogDelivery) Deliver(_ context.Context, ev models.NotificationEvent) error {
	d.logger.Info("notification",
		applogger.String("event_id", ev.ID.String()),
		applogger.String("kind", string(ev.Kind)),
		applogger.String("subject", ev.SubjectID),
		applogger.Any("observed", ev.Observed),
		applogger.Any("threshold", ev.Threshold))
	return nil
}

var (
	_ drepo.Delivery = (*RedisQueueDelivery)(nil)
	_ drepo.Delivery = (*KafkaDelivery)(nil)
	_ drepo.Delivery = (*LogDelivery)(nil)
)
