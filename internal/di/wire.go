//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideSeriesSource,
		ProvideKafkaProducer,

		// Use cases
		ProvideForecasterFactory,
		ProvidePredictionUseCase,
		ProvideScheduler,

		// Transport and application
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
