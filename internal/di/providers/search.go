package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/logger"
	"github.com/genrewiki/genrewiki-server/internal/search"
	"github.com/genrewiki/genrewiki-server/internal/service"
)

// ErrSearchDisabled is returned when the index is requested while
// SEARCH_ENABLED is off.
var ErrSearchDisabled = errors.New("search index is disabled")

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.GenreIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve genre index stored next to the database.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		return nil, ErrSearchDisabled
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	index, err := search.NewGenreIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.WithComponent("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Debug("Search index opened", "documents", docCount)

	return &SearchIndexHandle{GenreIndex: index}, nil
}

// ProvideSearchService provides the search service. An index left empty by
// a mapping change is rebuilt from the store before the service is returned.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle, err := do.Invoke[*SearchIndexHandle](i)
	if err != nil {
		return nil, err
	}
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.GenreIndex, storeHandle.Store, log.WithComponent("search"))

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := svc.EnsureIndexed(ctx); err != nil {
		log.Warn("Initial search reindex failed", "error", err)
	}

	return svc, nil
}
