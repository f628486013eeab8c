package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doxylink/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func seedTagFile(t *testing.T, s *SQLiteStorage, namespace string, symbols ...*Symbol) *TagFile {
	t.Helper()
	ctx := context.Background()
	tf := &TagFile{
		Namespace:       namespace,
		Path:            namespace + ".tag",
		ModTime:         time.Unix(1700000000, 123456789),
		ResolverVersion: "1.2.0",
		SymbolCount:     len(symbols),
		IndexedAt:       time.Now(),
	}
	require.NoError(t, s.UpsertTagFile(ctx, tf))
	require.NoError(t, s.ReplaceSymbols(ctx, tf.ID, symbols))
	return tf
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage.db)

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestNewSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	seedTagFile(t, first, "polyvox", &Symbol{Name: "PolyVox::Volume", Kind: types.KindClass, File: "v.html"})
	require.NoError(t, first.Close())

	// Migrations must not re-run on an up to date database
	second, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer second.Close()

	count, err := second.CountSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertTagFile(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	tf := seedTagFile(t, storage, "polyvox")
	assert.Greater(t, tf.ID, int64(0))

	got, err := storage.GetTagFile(ctx, "polyvox")
	require.NoError(t, err)
	assert.Equal(t, tf.ID, got.ID)
	assert.Equal(t, "polyvox.tag", got.Path)
	assert.True(t, tf.ModTime.Equal(got.ModTime))
	assert.Equal(t, "1.2.0", got.ResolverVersion)
	assert.False(t, got.IndexedAt.IsZero())

	// Same namespace updates in place
	update := &TagFile{Namespace: "polyvox", Path: "other.tag", ResolverVersion: "1.3.0", SymbolCount: 7}
	require.NoError(t, storage.UpsertTagFile(ctx, update))
	assert.Equal(t, tf.ID, update.ID)

	got, err = storage.GetTagFile(ctx, "polyvox")
	require.NoError(t, err)
	assert.Equal(t, "other.tag", got.Path)
	assert.Equal(t, 7, got.SymbolCount)
	assert.True(t, got.IndexedAt.IsZero())

	_, err = storage.GetTagFile(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDeleteTagFiles(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	seedTagFile(t, storage, "qt", &Symbol{Name: "QString", Kind: types.KindClass, File: "qstring.html"})
	seedTagFile(t, storage, "polyvox", &Symbol{Name: "PolyVox::Volume", Kind: types.KindClass, File: "v.html"})

	list, err := storage.ListTagFiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "polyvox", list[0].Namespace)
	assert.Equal(t, "qt", list[1].Namespace)

	require.NoError(t, storage.DeleteTagFile(ctx, "qt"))
	assert.ErrorIs(t, storage.DeleteTagFile(ctx, "qt"), ErrNotFound)

	// Symbols cascade with their tag file
	count, err := storage.CountSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplaceSymbols(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	tf := seedTagFile(t, storage, "polyvox",
		&Symbol{Name: "Foo::bar", Kind: types.KindFunction, File: "foo.html#1", Arglist: "(int)"},
		&Symbol{Name: "Foo::bar", Kind: types.KindFunction, File: "foo.html#2", Arglist: "(double)"},
	)

	count, err := storage.CountSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	replacement := []*Symbol{{Name: "Foo", Kind: types.KindClass, File: "foo.html"}}
	require.NoError(t, storage.ReplaceSymbols(ctx, tf.ID, replacement))
	assert.Greater(t, replacement[0].ID, int64(0))
	assert.Equal(t, tf.ID, replacement[0].TagFileID)

	count, err = storage.CountSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Unknown tag file violates the foreign key
	err = storage.ReplaceSymbols(ctx, 9999, []*Symbol{{Name: "X", Kind: types.KindClass, File: "x.html"}})
	assert.Error(t, err)
}

func TestSearchSymbols(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	seedTagFile(t, storage, "polyvox",
		&Symbol{Name: "PolyVox::VolumeSampler", Kind: types.KindClass, File: "sampler.html"},
		&Symbol{Name: "PolyVox::Volume", Kind: types.KindClass, File: "volume.html"},
		&Symbol{Name: "Volume", Kind: types.KindClass, File: "plain.html"},
		&Symbol{Name: "PolyVox::Volume::getVoxelAt", Kind: types.KindFunction, File: "volume.html#a1", Arglist: "(int, int, int) const"},
		&Symbol{Name: "Under_Score", Kind: types.KindClass, File: "u.html"},
	)

	results, err := storage.SearchSymbols(ctx, "volume", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "Volume", results[0].Name)
	assert.Equal(t, "PolyVox::Volume", results[1].Name)
	assert.Equal(t, "polyvox", results[1].Namespace)
	assert.Equal(t, types.KindClass, results[1].Kind)

	results, err = storage.SearchSymbols(ctx, "getVoxelAt", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "PolyVox::Volume::getVoxelAt(int, int, int) const", results[0].Signature())

	results, err = storage.SearchSymbols(ctx, "volume", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// LIKE wildcards in the query are literal
	results, err = storage.SearchSymbols(ctx, "d_r", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	results, err = storage.SearchSymbols(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSymbols_CachePurgedOnWrite(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	tf := seedTagFile(t, storage, "polyvox", &Symbol{Name: "Alpha", Kind: types.KindClass, File: "a.html"})

	results, err := storage.SearchSymbols(ctx, "Alpha", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, storage.ReplaceSymbols(ctx, tf.ID, nil))

	results, err = storage.SearchSymbols(ctx, "Alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	tf := &TagFile{Namespace: "tmp", Path: "tmp.tag", ResolverVersion: "1.2.0"}
	require.NoError(t, tx.UpsertTagFile(ctx, tf))
	require.NoError(t, tx.ReplaceSymbols(ctx, tf.ID, []*Symbol{{Name: "Tmp", Kind: types.KindClass, File: "t.html"}}))

	inTx, err := tx.SearchSymbols(ctx, "Tmp", 10)
	require.NoError(t, err)
	assert.Len(t, inTx, 1)

	count, err := tx.CountSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)

	require.NoError(t, tx.Rollback())

	_, err = storage.GetTagFile(ctx, "tmp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrations_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()
	ctx := context.Background()

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err := SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	require.NoError(t, RollbackMigration(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", version)

	assert.Error(t, RollbackMigration(ctx, storage.db))

	require.NoError(t, ApplyMigrations(ctx, storage.db))
	version, err = SchemaVersion(ctx, storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}
