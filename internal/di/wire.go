//go:build wireinject
// +build wireinject

package di

import (
	"RateCast/pkg/config"
	"RateCast/pkg/server"

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

		// Repositories
		ProvideEventStore,
		ProvideEventPublisher,
		ProvideCalendarSource,
		ProvideArtifactStore,
		ProvideRateStream,
		ProvideHistoryCache,

		// Ingestion use cases
		ProvideEventProcessor,
		ProvideEventCollector,
		ProvideKafkaRatesHandler,

		// Forecasting use cases
		ProvideForecastConfig,
		ProvideForecastOrchestrator,
		ProvideHistoryUseCase,
		ProvideDiagnosticsUseCase,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
