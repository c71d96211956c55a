//go:build wireinject
// +build wireinject

package di

import (
	"MarinePulse/pkg/config"
	"MarinePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Credentials and provider clients
		ProvideVault,
		ProvideProviderClients,

		// Repositories
		ProvideStateStore,
		ProvideArchive,
		ProvideDelivery,
		ProvideOpsAlerter,

		// Use cases
		ProvideNormalizer,
		ProvideReconciler,
		ProvideEvaluator,
		ProvideDispatcher,
		ProvideScheduler,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
