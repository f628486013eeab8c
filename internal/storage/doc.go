// Package storage provides SQLite-based persistence for the symbol catalog.
//
// The catalog is a searchable, derived copy of every configured tag file. It
// is rebuilt by the indexer and is never consulted when resolving links; the
// in-memory cache stays the source of truth for resolution.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations, compared as semantic versions
//   - tagfiles: one row per namespace with the tag file's modification time
//     and the resolver version that indexed it
//   - symbols: flattened symbol maps, one row per function overload
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.doxylink/catalog.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	tf := &storage.TagFile{Namespace: "polyvox", Path: "PolyVox.tag", ResolverVersion: "1.2.0"}
//	if err := tx.UpsertTagFile(ctx, tf); err != nil {
//	    return err
//	}
//	if err := tx.ReplaceSymbols(ctx, tf.ID, symbols); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Searching
//
// SearchSymbols matches names case-insensitively. Exact names rank first,
// then names whose last components equal the query, then any containing
// match, shorter names first. Results are cached until the next write.
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler:
//
//	CGO_ENABLED=0 go build ./...
//
// The sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
