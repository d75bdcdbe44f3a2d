package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/logger"
	"github.com/genrewiki/genrewiki-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the genre database, creating the data directory and
// schema on first use.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath, log.WithComponent("store"), sqlite.WithBusyTimeout(cfg.Storage.BusyTimeout))
	if err != nil {
		return nil, err
	}

	log.Debug("Database opened", "path", dbPath)
	return &StoreHandle{Store: db}, nil
}
