// Package di provides dependency injection configuration for the book club server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/di/providers"
	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/pipeline"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Pipeline layer
	do.Provide(injector, providers.ProvideRoster)
	do.Provide(injector, providers.ProvidePipeline)

	// Business services
	do.Provide(injector, providers.ProvideClubService)

	// Workers
	do.Provide(injector, providers.ProvideSourceWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	// Pipeline layer
	_ = do.MustInvoke[*domain.Roster](injector)
	_ = do.MustInvoke[*pipeline.Pipeline](injector)

	// Business services
	_ = do.MustInvoke[*service.ClubService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SourceWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Load the initial table so the API has data to serve
	providers.RunInitialRefresh(injector)

	return nil
}
