package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/doxylink/internal/cache"
	"github.com/dshills/doxylink/internal/resolver"
	"github.com/dshills/doxylink/internal/storage"
)

// ErrIndexingInProgress is returned when IndexAll is called while another run is active
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer copies the symbol maps held by a cache into the catalog
type Indexer struct {
	storage storage.Storage
	cache   *cache.Manager
	logger  *log.Logger

	lock IndexLock
}

// Config contains configuration for an indexing run
type Config struct {
	Workers int  // Number of concurrent workers (default: runtime.NumCPU())
	Force   bool // Re-index tag files even when unchanged
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	TagFilesIndexed int
	TagFilesSkipped int
	TagFilesFailed  int
	TagFilesPruned  int
	SymbolsIndexed  int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Indexer instance
func New(store storage.Storage, mgr *cache.Manager, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Indexer{
		storage: store,
		cache:   mgr,
		logger:  logger,
	}
}

// IndexAll indexes every namespace and removes catalog entries for namespaces
// that are no longer configured. A tag file that cannot be loaded is counted
// as failed and does not stop the run.
func (idx *Indexer) IndexAll(ctx context.Context, namespaces []resolver.Namespace, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	var (
		indexed int32
		skipped int32
		failed  int32
		symbols int32
		mu      sync.Mutex // Protect stats.ErrorMessages
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, ns := range namespaces {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			n, wasSkipped, err := idx.indexNamespace(gctx, ns, config.Force)
			switch {
			case err != nil:
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", ns.Name, err))
				mu.Unlock()
				idx.logger.Printf("Failed to index %s: %v", ns.Name, err)
			case wasSkipped:
				atomic.AddInt32(&skipped, 1)
			default:
				atomic.AddInt32(&indexed, 1)
				atomic.AddInt32(&symbols, int32(n))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pruned, err := idx.prune(ctx, namespaces)
	if err != nil {
		return nil, fmt.Errorf("failed to prune catalog: %w", err)
	}

	stats.TagFilesIndexed = int(indexed)
	stats.TagFilesSkipped = int(skipped)
	stats.TagFilesFailed = int(failed)
	stats.TagFilesPruned = pruned
	stats.SymbolsIndexed = int(symbols)
	stats.Duration = time.Since(startTime)

	idx.logger.Printf("Indexed %d tag files (%d skipped, %d failed, %d symbols) in %v",
		stats.TagFilesIndexed, stats.TagFilesSkipped, stats.TagFilesFailed, stats.SymbolsIndexed, stats.Duration)
	return stats, nil
}

// indexNamespace stores one namespace's symbol map. It reports skipped when
// the catalog already holds the same tag file at the same modification time
// and resolver version.
func (idx *Indexer) indexNamespace(ctx context.Context, ns resolver.Namespace, force bool) (int, bool, error) {
	symbolMap, err := idx.cache.Get(ns.TagFile)
	if err != nil {
		return 0, false, err
	}
	entry, ok := idx.cache.Lookup(ns.TagFile)
	if !ok || entry.Map != symbolMap {
		// Invalidated between Get and Lookup; index what Get returned
		entry = cache.Entry{Map: symbolMap, Version: idx.cache.Version()}
	}

	path := filepath.Clean(ns.TagFile)
	if !force {
		existing, err := idx.storage.GetTagFile(ctx, ns.Name)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, false, err
		}
		if existing != nil && unchanged(existing, path, entry) {
			return 0, true, nil
		}
	}

	rows := symbolMap.Rows()
	records := make([]*storage.Symbol, len(rows))
	for i, row := range rows {
		records[i] = &storage.Symbol{
			Name:    row.Name,
			Kind:    row.Kind,
			File:    row.File,
			Arglist: row.Arglist,
		}
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tf := &storage.TagFile{
		Namespace:       ns.Name,
		Path:            path,
		ModTime:         entry.ModTime,
		ResolverVersion: entry.Version,
		SymbolCount:     len(records),
		IndexedAt:       time.Now(),
	}
	if err := tx.UpsertTagFile(ctx, tf); err != nil {
		return 0, false, err
	}
	if err := tx.ReplaceSymbols(ctx, tf.ID, records); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(records), false, nil
}

func unchanged(existing *storage.TagFile, path string, entry cache.Entry) bool {
	return existing.Path == path &&
		existing.ModTime.Equal(entry.ModTime) &&
		existing.ResolverVersion == entry.Version
}

// prune deletes catalog entries of namespaces not in the list
func (idx *Indexer) prune(ctx context.Context, namespaces []resolver.Namespace) (int, error) {
	keep := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		keep[ns.Name] = true
	}

	existing, err := idx.storage.ListTagFiles(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, tf := range existing {
		if keep[tf.Namespace] {
			continue
		}
		if err := idx.storage.DeleteTagFile(ctx, tf.Namespace); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
