//go:build wireinject
// +build wireinject

package di

import (
	"DispersionSignal/pkg/config"
	"DispersionSignal/pkg/server"

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
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,

		// Repositories
		ProvideObservationStorage,
		ProvideObservationPublisher,
		ProvideSignalPublisher,
		ProvideSignalStore,
		ProvideMarketStream,

		// Services
		ProvideCalculator,
		ProvideSourceRegistry,

		// Use cases
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideObservationsHandler,
		ProvideQueryUsecase,
		ProvideCalculateUsecase,
		ProvideSummarizeUsecase,
		ProvideScheduler,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
