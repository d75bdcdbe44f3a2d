package providers

import (
	"github.com/samber/do/v2"

	"github.com/genrewiki/genrewiki-server/internal/config"
	"github.com/genrewiki/genrewiki-server/internal/logger"
	"github.com/genrewiki/genrewiki-server/internal/service"
)

// ProvideGenreService provides the genre command service. With search
// enabled, committed changes are indexed and queries go to the index.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewGenreService(storeHandle.Store, log.WithComponent("genres"))

	if cfg.Search.Enabled {
		searchService, err := do.Invoke[*service.SearchService](i)
		if err != nil {
			return nil, err
		}
		indexHandle := do.MustInvoke[*SearchIndexHandle](i)
		svc.SetIndexer(indexHandle.GenreIndex)
		svc.SetSearcher(searchService)
	}

	return svc, nil
}
