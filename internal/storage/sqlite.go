package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/doxylink/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

const searchCacheSize = 256

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB

	// searches caches SearchSymbols results; any write purges it
	searches *lru.Cache[string, []*Symbol]
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	searches, err := lru.New[string, []*Symbol](searchCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	return &SQLiteStorage{db: db, searches: searches}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
	dirty   bool
}

func (t *sqliteTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	if t.dirty {
		t.storage.searches.Purge()
	}
	return nil
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Tag file operations

// upsertTagFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertTagFileWithQuerier(ctx context.Context, q querier, tf *TagFile) error {
	query := `
		INSERT INTO tagfiles (namespace, path, mod_time, resolver_version, symbol_count, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace)
		DO UPDATE SET
			path = excluded.path,
			mod_time = excluded.mod_time,
			resolver_version = excluded.resolver_version,
			symbol_count = excluded.symbol_count,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	var indexedAt sql.NullTime
	if !tf.IndexedAt.IsZero() {
		indexedAt = sql.NullTime{Time: tf.IndexedAt, Valid: true}
	}

	err := q.QueryRowContext(ctx, query,
		tf.Namespace, tf.Path, tf.ModTime.UnixNano(), tf.ResolverVersion,
		tf.SymbolCount, indexedAt, now, now,
	).Scan(&tf.ID, &tf.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tag file: %w", err)
	}
	tf.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertTagFile(ctx context.Context, tf *TagFile) error {
	if err := s.upsertTagFileWithQuerier(ctx, s.querier(), tf); err != nil {
		return err
	}
	s.searches.Purge()
	return nil
}

const tagFileColumns = `id, namespace, path, mod_time, resolver_version, symbol_count, indexed_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTagFile(row scanner) (*TagFile, error) {
	var tf TagFile
	var modTime int64
	var indexedAt sql.NullTime
	err := row.Scan(
		&tf.ID, &tf.Namespace, &tf.Path, &modTime, &tf.ResolverVersion,
		&tf.SymbolCount, &indexedAt, &tf.CreatedAt, &tf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tf.ModTime = time.Unix(0, modTime)
	if indexedAt.Valid {
		tf.IndexedAt = indexedAt.Time
	}
	return &tf, nil
}

// getTagFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getTagFileWithQuerier(ctx context.Context, q querier, namespace string) (*TagFile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+tagFileColumns+` FROM tagfiles WHERE namespace = ?`, namespace)
	tf, err := scanTagFile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tf, nil
}

func (s *SQLiteStorage) GetTagFile(ctx context.Context, namespace string) (*TagFile, error) {
	return s.getTagFileWithQuerier(ctx, s.querier(), namespace)
}

// listTagFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listTagFilesWithQuerier(ctx context.Context, q querier) ([]*TagFile, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+tagFileColumns+` FROM tagfiles ORDER BY namespace`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tagFiles := make([]*TagFile, 0)
	for rows.Next() {
		tf, err := scanTagFile(rows)
		if err != nil {
			return nil, err
		}
		tagFiles = append(tagFiles, tf)
	}
	return tagFiles, rows.Err()
}

func (s *SQLiteStorage) ListTagFiles(ctx context.Context) ([]*TagFile, error) {
	return s.listTagFilesWithQuerier(ctx, s.querier())
}

// deleteTagFileWithQuerier removes a namespace; its symbols cascade
func (s *SQLiteStorage) deleteTagFileWithQuerier(ctx context.Context, q querier, namespace string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM tagfiles WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("failed to delete tag file: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteTagFile(ctx context.Context, namespace string) error {
	if err := s.deleteTagFileWithQuerier(ctx, s.querier(), namespace); err != nil {
		return err
	}
	s.searches.Purge()
	return nil
}

// Symbol operations

// replaceSymbolsWithQuerier swaps every symbol of a tag file for a new set
func (s *SQLiteStorage) replaceSymbolsWithQuerier(ctx context.Context, q querier, tagFileID int64, symbols []*Symbol) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM symbols WHERE tagfile_id = ?`, tagFileID); err != nil {
		return fmt.Errorf("failed to delete symbols: %w", err)
	}

	query := `
		INSERT INTO symbols (tagfile_id, name, kind, file, arglist)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tagfile_id, name, arglist)
		DO UPDATE SET kind = excluded.kind, file = excluded.file
		RETURNING id
	`
	for _, sym := range symbols {
		sym.TagFileID = tagFileID
		err := q.QueryRowContext(ctx, query,
			tagFileID, sym.Name, string(sym.Kind), sym.File, sym.Arglist,
		).Scan(&sym.ID)
		if err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.Signature(), err)
		}
	}
	return nil
}

// ReplaceSymbols runs in its own transaction when called outside one
func (s *SQLiteStorage) ReplaceSymbols(ctx context.Context, tagFileID int64, symbols []*Symbol) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := tx.ReplaceSymbols(ctx, tagFileID, symbols); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// searchSymbolsWithQuerier ranks exact names first, then names ending in
// "::query", then any name containing the query, shortest first
func (s *SQLiteStorage) searchSymbolsWithQuerier(ctx context.Context, q querier, query string, limit int) ([]*Symbol, error) {
	sqlQuery := `
		SELECT s.id, s.tagfile_id, t.namespace, s.name, s.kind, s.file, s.arglist
		FROM symbols s
		JOIN tagfiles t ON s.tagfile_id = t.id
		WHERE s.name LIKE ? ESCAPE '\'
		ORDER BY
			CASE
				WHEN lower(s.name) = lower(?) THEN 0
				WHEN s.name LIKE ? ESCAPE '\' THEN 1
				ELSE 2
			END,
			length(s.name), s.id
		LIMIT ?
	`
	escaped := escapeLike(query)
	rows, err := q.QueryContext(ctx, sqlQuery, "%"+escaped+"%", query, "%::"+escaped, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		var sym Symbol
		var kind string
		err := rows.Scan(&sym.ID, &sym.TagFileID, &sym.Namespace, &sym.Name, &kind, &sym.File, &sym.Arglist)
		if err != nil {
			return nil, err
		}
		sym.Kind = types.Kind(kind)
		symbols = append(symbols, &sym)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, query string, limit int) ([]*Symbol, error) {
	key := fmt.Sprintf("%d\x00%s", limit, query)
	if cached, ok := s.searches.Get(key); ok {
		return cached, nil
	}

	symbols, err := s.searchSymbolsWithQuerier(ctx, s.querier(), query, limit)
	if err != nil {
		return nil, err
	}
	s.searches.Add(key, symbols)
	return symbols, nil
}

func (s *SQLiteStorage) countSymbolsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountSymbols(ctx context.Context) (int, error) {
	return s.countSymbolsWithQuerier(ctx, s.querier())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Transaction implementations

func (t *sqliteTx) UpsertTagFile(ctx context.Context, tf *TagFile) error {
	t.dirty = true
	return t.storage.upsertTagFileWithQuerier(ctx, t.querier(), tf)
}

func (t *sqliteTx) GetTagFile(ctx context.Context, namespace string) (*TagFile, error) {
	return t.storage.getTagFileWithQuerier(ctx, t.querier(), namespace)
}

func (t *sqliteTx) ListTagFiles(ctx context.Context) ([]*TagFile, error) {
	return t.storage.listTagFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteTagFile(ctx context.Context, namespace string) error {
	t.dirty = true
	return t.storage.deleteTagFileWithQuerier(ctx, t.querier(), namespace)
}

func (t *sqliteTx) ReplaceSymbols(ctx context.Context, tagFileID int64, symbols []*Symbol) error {
	t.dirty = true
	return t.storage.replaceSymbolsWithQuerier(ctx, t.querier(), tagFileID, symbols)
}

// SearchSymbols inside a transaction bypasses the cache so uncommitted rows are visible
func (t *sqliteTx) SearchSymbols(ctx context.Context, query string, limit int) ([]*Symbol, error) {
	return t.storage.searchSymbolsWithQuerier(ctx, t.querier(), query, limit)
}

func (t *sqliteTx) CountSymbols(ctx context.Context) (int, error) {
	return t.storage.countSymbolsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
