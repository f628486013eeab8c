package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/doxylink/internal/cache"
	"github.com/dshills/doxylink/internal/config"
	"github.com/dshills/doxylink/internal/indexer"
	"github.com/dshills/doxylink/internal/resolver"
	"github.com/dshills/doxylink/internal/storage"
	"github.com/dshills/doxylink/internal/watch"
)

const (
	// ServerName is the MCP server name
	ServerName = "doxylink"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	cache    *cache.Manager
	resolver *resolver.Resolver
	storage  storage.Storage
	indexer  *indexer.Indexer
	logger   *log.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		// Create directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mgr, err := cache.New(cache.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	res, err := resolver.New(mgr, cfg.ResolverOptions(), logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		cache:    mgr,
		resolver: res,
		storage:  store,
		indexer:  indexer.New(store, mgr, logger),
		logger:   logger,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve preloads the configured tag files and serves MCP on stdio until the
// client disconnects. With watching enabled, changed tag files are dropped
// from the cache and rebuilt on their next use.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()

	if err := s.resolver.Preload(ctx); err != nil {
		return err
	}

	if s.cfg.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.watchTagFiles(watchCtx)
	}

	return server.ServeStdio(s.mcp)
}

// Close releases the catalog
func (s *Server) Close() error {
	return s.storage.Close()
}

func (s *Server) watchTagFiles(ctx context.Context) {
	paths := make([]string, 0, len(s.cfg.TagFiles))
	for _, ns := range s.resolver.Namespaces() {
		paths = append(paths, ns.TagFile)
	}

	err := watch.Watch(ctx, paths, watch.DefaultDebounce, s.invalidate, s.logger)
	if err != nil {
		s.logger.Printf("Tag file watcher stopped: %v", err)
	}
}

func (s *Server) invalidate(changed []string) {
	for _, path := range changed {
		s.logger.Printf("Tag file %s changed, invalidating", path)
		s.cache.Invalidate(path)
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(resolveSymbolTool(), s.handleResolveSymbol)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(indexTagFilesTool(), s.handleIndexTagFiles)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}
