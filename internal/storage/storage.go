package storage

import (
	"context"
	"time"

	"github.com/dshills/doxylink/pkg/types"
)

// Storage defines the interface for persisting and querying the symbol catalog
type Storage interface {
	// Tag file operations
	UpsertTagFile(ctx context.Context, tagFile *TagFile) error
	GetTagFile(ctx context.Context, namespace string) (*TagFile, error)
	ListTagFiles(ctx context.Context) ([]*TagFile, error)
	DeleteTagFile(ctx context.Context, namespace string) error

	// Symbol operations
	ReplaceSymbols(ctx context.Context, tagFileID int64, symbols []*Symbol) error
	SearchSymbols(ctx context.Context, query string, limit int) ([]*Symbol, error)
	CountSymbols(ctx context.Context) (int, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// TagFile records when a namespace's tag file was last indexed
type TagFile struct {
	ID              int64
	Namespace       string
	Path            string
	ModTime         time.Time
	ResolverVersion string
	SymbolCount     int
	IndexedAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Symbol is one catalog row. Overloaded functions have one row per overload.
type Symbol struct {
	ID        int64
	TagFileID int64
	Namespace string // filled in by queries
	Name      string
	Kind      types.Kind
	File      string
	Arglist   string
}

// Signature returns the qualified name followed by its argument list
func (s *Symbol) Signature() string {
	return s.Name + s.Arglist
}
