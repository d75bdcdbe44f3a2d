package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/genrewiki/genrewiki-server/internal/domain"
	"github.com/genrewiki/genrewiki-server/internal/store"
)

// GenreIndex wraps a Bleve index of genres.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type GenreIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

var _ store.GenreIndexer = (*GenreIndex)(nil)

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewGenreIndex creates or opens a genre index under opts.DataPath.
// An existing index that fails to open or was built with another mapping
// version is removed and recreated empty; callers repopulate it with
// ReindexAll.
func NewGenreIndex(opts Options) (*GenreIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &GenreIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *GenreIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexGenre adds or replaces one genre.
func (s *GenreIndex) IndexGenre(_ context.Context, g *domain.Genre) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := GenreToDocument(g)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteGenre removes one genre. Removing an unknown id is not an error.
func (s *GenreIndex) DeleteGenre(_ context.Context, genreID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(genreID)
}

// IndexGenres indexes genres in batches.
func (s *GenreIndex) IndexGenres(ctx context.Context, genres []*domain.Genre) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexGenres(ctx, genres)
}

func (s *GenreIndex) indexGenres(ctx context.Context, genres []*domain.Genre) error {
	const batchSize = 500

	for i := 0; i < len(genres); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(genres))

		batch := s.index.NewBatch()
		for _, g := range genres[i:end] {
			doc := GenreToDocument(g)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed genres.
func (s *GenreIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// ReindexAll drops the index and rebuilds it from genres.
//
// This takes the exclusive lock, so searches block until it finishes.
func (s *GenreIndex) ReindexAll(ctx context.Context, genres []*domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if err := s.indexGenres(ctx, genres); err != nil {
		return err
	}

	s.logger.Info("rebuilt search index", "path", s.path, "genres", len(genres))
	return nil
}
