// Command doxylink resolves C++ symbols against Doxygen tag files and serves
// the resolver to MCP clients.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/doxylink/internal/cache"
	"github.com/dshills/doxylink/internal/config"
	"github.com/dshills/doxylink/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Log to stderr (stdout reserved for MCP protocol and command output)
	logger := log.New(os.Stderr, "doxylink: ", log.LstdFlags)

	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           "doxylink",
		Short:         "Resolve C++ symbols against Doxygen tag files",
		Long:          "doxylink looks up C++ symbols and function calls in Doxygen tag files and turns them into documentation links.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./.doxylink.yaml)")
	rootCmd.PersistentFlags().String("db-path", config.DefaultDBPath, "Symbol catalog database")
	rootCmd.PersistentFlags().String("source-dir", ".", "Documentation source root for relative links")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress log output")

	// Bind flags to viper.
	_ = v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))
	_ = v.BindPFlag("source_dir", rootCmd.PersistentFlags().Lookup("source-dir"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			logger.SetOutput(io.Discard)
		}
	}

	app := &app{viper: v, logger: logger}

	// Add commands.
	rootCmd.AddCommand(newResolveCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newIndexCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs
type app struct {
	viper  *viper.Viper
	logger *log.Logger
}

// loadConfig reads and validates configuration for a command
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.viper, configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print doxylink version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("doxylink\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", storage.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
			fmt.Printf("Cache Schema: %s\n", cache.SchemaVersion)
			fmt.Printf("Catalog Schema: %s\n", storage.CurrentSchemaVersion)
		},
	}
}
