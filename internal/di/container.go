// Package di provides dependency injection configuration for genrewiki tools.
package di

import (
	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// Services are built lazily on first use.
func NewContainer(flags config.Overrides) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideGenreService)

	return injector
}
