// Package providers contains dependency injection providers for genrewiki.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/logger"
)

// ProvideConfig provides the application configuration. Command-line
// overrides are registered as a value before the container is used.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags, err := do.Invoke[config.Overrides](i)
	if err != nil {
		flags = config.Overrides{}
	}
	return config.LoadConfig(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"search_enabled", cfg.Search.Enabled,
	)

	return log, nil
}
