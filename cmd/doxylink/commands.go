package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/doxylink/internal/cache"
	"github.com/dshills/doxylink/internal/indexer"
	"github.com/dshills/doxylink/internal/mcp"
	"github.com/dshills/doxylink/internal/resolver"
	"github.com/dshills/doxylink/internal/storage"
)

// errUnresolved is returned by resolve when no link could be produced
var errUnresolved = errors.New("symbol not resolved")

// newResolveCmd creates the "resolve" command.
func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <namespace> <text>",
		Short: "Resolve one symbol and print its link",
		Long:  "Resolve looks up text such as 'PolyVox::Volume::getVoxelAt(int, int, int) const' or 'title <Symbol>' in the namespace's tag file and prints the title and URL.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			mgr, err := cache.New(cache.WithLogger(a.logger))
			if err != nil {
				return err
			}
			res, err := resolver.New(mgr, cfg.ResolverOptions(), a.logger)
			if err != nil {
				return err
			}

			docPath, _ := cmd.Flags().GetString("doc")
			link := res.Resolve(resolver.Request{Namespace: args[0], Text: args[1], DocPath: docPath})
			for _, w := range link.Warnings {
				a.logger.Printf("WARNING: %s", w)
			}
			if !link.Resolved {
				return fmt.Errorf("%w: %s", errUnresolved, link.Title)
			}

			fmt.Printf("%s\t%s\t%s\n", link.Title, link.Kind, link.URL)
			return nil
		},
	}

	cmd.Flags().String("doc", "", "Path of the referencing document, for relative links")

	return cmd
}

// newServeCmd creates the "serve" command.
func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver to MCP clients on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			a.logger.Printf("doxylink MCP server v%s starting...", version)
			a.logger.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

			server, err := mcp.NewServer(cfg, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			// Set up graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				a.logger.Println("MCP server ready, listening on stdio...")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				a.logger.Printf("Received signal %v, shutting down gracefully...", sig)
				cancel()
			case err := <-errChan:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			a.logger.Println("Server stopped")
			return nil
		},
	}

	cmd.Flags().Bool("watch", false, "Rebuild symbol maps when tag files change")
	_ = a.viper.BindPFlag("watch", cmd.Flags().Lookup("watch"))

	return cmd
}

// newIndexCmd creates the "index" command.
func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index configured tag files into the symbol catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
			store, err := storage.NewSQLiteStorage(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			mgr, err := cache.New(cache.WithLogger(a.logger))
			if err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool("force")
			workers, _ := cmd.Flags().GetInt("workers")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			stats, err := indexer.New(store, mgr, a.logger).IndexAll(ctx, cfg.Namespaces(), &indexer.Config{
				Workers: workers,
				Force:   force,
			})
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}

			fmt.Printf("Indexed %d tag files (%d skipped, %d failed, %d pruned), %d symbols in %v\n",
				stats.TagFilesIndexed, stats.TagFilesSkipped, stats.TagFilesFailed, stats.TagFilesPruned,
				stats.SymbolsIndexed, stats.Duration)
			for _, msg := range stats.ErrorMessages {
				a.logger.Printf("WARNING: %s", msg)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Re-index tag files even when unchanged")
	cmd.Flags().Int("workers", 0, "Concurrent tag files (default: number of CPUs)")

	return cmd
}
