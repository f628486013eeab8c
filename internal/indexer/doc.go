// Package indexer fills the symbol catalog from configured tag files.
//
// # Basic Usage
//
//	idx := indexer.New(store, cacheManager, logger)
//
//	stats, err := idx.IndexAll(ctx, cfg.Namespaces(), &indexer.Config{Force: false})
//	fmt.Printf("Indexed %d tag files in %v\n", stats.TagFilesIndexed, stats.Duration)
//
// # Incremental Indexing
//
// A namespace is skipped when the catalog already records the same tag file
// path, modification time and resolver version. Config.Force re-indexes
// everything. Namespaces that disappeared from the configuration are pruned
// at the end of each run.
//
// Symbols come from the cache manager, so indexing and link resolution share
// one parse per tag file. Overload sets are flattened to one row per overload.
//
// # Concurrency
//
// Namespaces are indexed in parallel, bounded by Config.Workers. Only one
// IndexAll call may run at a time per Indexer; a concurrent call fails with
// ErrIndexingInProgress rather than waiting.
package indexer
