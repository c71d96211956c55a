package di

import (
	"context"
	"fmt"
	"time"

	"MarinePulse/internal/domain/models"
	"MarinePulse/internal/domain/repository"
	"MarinePulse/internal/handler/api"
	internalrepo "MarinePulse/internal/repository"
	"MarinePulse/internal/service/credvault"
	"MarinePulse/internal/service/providers"
	"MarinePulse/internal/usecase"
	pkgch "MarinePulse/pkg/clickhouse"
	"MarinePulse/pkg/config"
	pkgkafka "MarinePulse/pkg/kafka"
	applogger "MarinePulse/pkg/logger"
	"MarinePulse/pkg/metrics"
	"MarinePulse/pkg/queue"
	"MarinePulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideVault creates the credential vault. Provider quotas are registered
// by the provider registry, not here.
func ProvideVault() *credvault.Vault {
	return credvault.New()
}

// ProvideProviderClients builds one client per provider that has key
// material configured.
func ProvideProviderClients(cfg *config.Config, vault *credvault.Vault, lgr *applogger.Logger) []repository.ProviderClient {
	return providers.Build(cfg, vault, lgr)
}

// ProvideRedisClient creates a Redis client, or nil when Redis is not
// configured. Both the state mirror and the redis notification channel
// share this client.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideStateStore creates the canonical in-memory store, wrapped with a
// Redis mirror when one is configured.
func ProvideStateStore(cfg *config.Config, rdb *redis.Client, lgr *applogger.Logger) repository.StateStore {
	store := internalrepo.NewMemoryStateStore()
	if cfg.Redis.Mirror && rdb != nil {
		mirror := internalrepo.NewRedisStateMirror(rdb, "")
		return internalrepo.NewMirroredStateStore(store, mirror, lgr)
	}
	return store
}

// ProvideClickHouseClient creates a ClickHouse client with the position
// history schema, or nil when archiving is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".vessel_positions (ts DateTime64(3), mmsi String, latitude Float64, longitude Float64, speed_knots Float64, heading Float64, provider String, confidence Float64) ENGINE=MergeTree ORDER BY (mmsi, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the ClickHouse position archive, or nil when
// archiving is disabled.
func ProvideArchive(chClient *pkgch.Client, cfg *config.Config) repository.Archive {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseArchive(chClient.DB(), cfg.ClickHouse.Database+".vessel_positions")
}

// ProvideKafkaProducer creates a Kafka producer when the kafka notification
// channel is selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Notifier.Channel != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideDelivery picks the notification channel implementation.
func ProvideDelivery(cfg *config.Config, producer *pkgkafka.Producer, rdb *redis.Client, lgr *applogger.Logger) repository.Delivery {
	switch cfg.Notifier.Channel {
	case "kafka":
		return internalrepo.NewKafkaDelivery(producer, cfg.Kafka.Topic)
	case "redis":
		q := queue.NewRedisPublisher(lgr, rdb)
		return internalrepo.NewRedisQueueDelivery(q)
	default:
		return internalrepo.NewLogDelivery(lgr)
	}
}

// ProvideNormalizer creates the raw record normalizer.
func ProvideNormalizer(m repository.Metrics) *usecase.Normalizer {
	return usecase.NewNormalizer(m)
}

// ProvideReconciler creates the cross-provider reconciler.
func ProvideReconciler(cfg *config.Config) *usecase.Reconciler {
	return usecase.NewReconciler(cfg.Providers.Priority)
}

// ProvideEvaluator creates the congestion threshold evaluator.
func ProvideEvaluator(cfg *config.Config) *usecase.Evaluator {
	return usecase.NewEvaluator(cfg.Congestion.Threshold, models.CongestionMetric(cfg.Congestion.Metric))
}

// ProvideDispatcher creates the notification dispatcher.
func ProvideDispatcher(delivery repository.Delivery, m repository.Metrics, cfg *config.Config, lgr *applogger.Logger) *usecase.Dispatcher {
	return usecase.NewDispatcher(delivery, m, lgr, cfg.Notifier.MaxAttempts, cfg.Notifier.BackoffBase)
}

// ProvideOpsAlerter creates the operational alerter.
func ProvideOpsAlerter(lgr *applogger.Logger) repository.OpsAlerter {
	return internalrepo.NewLogOpsAlerter(lgr)
}

// ProvideScheduler wires the full polling pipeline.
func ProvideScheduler(
	cfg *config.Config,
	clients []repository.ProviderClient,
	vault *credvault.Vault,
	norm *usecase.Normalizer,
	rec *usecase.Reconciler,
	store repository.StateStore,
	eval *usecase.Evaluator,
	disp *usecase.Dispatcher,
	archive repository.Archive,
	ops repository.OpsAlerter,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Scheduler {
	return usecase.NewScheduler(
		usecase.SchedulerConfig{
			Interval:     cfg.Scheduler.PollInterval,
			FetchTimeout: cfg.Scheduler.FetchTimeout,
			Workers:      cfg.Scheduler.Workers,
			RetryBackoff: cfg.Scheduler.RetryBackoff,
		},
		clients, vault, norm, rec, store, eval, disp, archive, ops, m, lgr,
	)
}

// ProvideHTTPHandler creates the read-only state API handler.
func ProvideHTTPHandler(lgr *applogger.Logger, store repository.StateStore) *api.StateEchoHandler {
	return api.NewStateEchoHandler(lgr, store)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	sched *usecase.Scheduler,
	clients []repository.ProviderClient,
	handler *api.StateEchoHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	return server.New(cfg, lgr, sched, clients, handler, producer, chClient, rdb)
}
