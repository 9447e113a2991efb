package providers

import (
	"context"
	"sync"

	"github.com/samber/do/v2"

	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
	once sync.Once
	err  error
}

// Shutdown implements do.Shutdownable. Safe to call more than once.
func (h *SearchIndexHandle) Shutdown() error {
	h.once.Do(func() { h.err = h.Close() })
	return h.err
}

// ProvideSearchIndex provides the Bleve search index and wires it to the
// store so catalog writes keep it current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.Data.Path,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when
// its document count differs from the catalog.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookService := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	docCount, err := indexHandle.DocumentCount()
	if err != nil {
		log.Warn("Could not read search index size", "error", err)
		return
	}
	bookCount, err := storeHandle.CountBooks(ctx)
	if err != nil || uint64(bookCount) == docCount {
		return
	}

	log.Info("Search index out of step with catalog, triggering reindex",
		"book_count", bookCount,
		"documents", docCount,
	)

	go func() {
		n, err := bookService.ReindexAll(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		log.Info("Search reindex completed", "documents", n)
	}()
}
