//go:build wireinject
// +build wireinject

package di

import (
	"PulseForge/pkg/config"
	"PulseForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories and upstream sources
		ProvideBarStore,
		ProvideObservationSource,
		ProvideQuoteSource,
		ProvideArchive,
		ProvideStreamHub,
		ProvideSinks,

		// Use cases
		ProvideUniverse,
		ProvideEngine,
		ProvideArtifactBuilder,
		ProvideCollector,
		ProvidePublisher,
		ProvidePipeline,

		// Application server
		ProvideScheduler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
