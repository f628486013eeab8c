// Package config loads doxylink settings from an optional YAML file and
// DOXYLINK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/dshills/doxylink/internal/resolver"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DOXYLINK_DB_PATH
	EnvPrefix = "DOXYLINK"

	// DefaultDBPath is the default location of the symbol catalog
	DefaultDBPath = "~/.doxylink/catalog.db"

	configName = ".doxylink"
)

// ErrNoTagFiles is returned by Validate when no namespace is configured
var ErrNoTagFiles = errors.New("no tag files configured")

// TagFile is one namespace entry of the tagfiles table
type TagFile struct {
	TagFile string `mapstructure:"tagfile"`
	Root    string `mapstructure:"root"`
}

// Config is the complete configuration
type Config struct {
	TagFiles               map[string]TagFile `mapstructure:"tagfiles"`
	AddFunctionParentheses bool               `mapstructure:"add_function_parentheses"`
	SourceDir              string             `mapstructure:"source_dir"`
	DBPath                 string             `mapstructure:"db_path"`
	Watch                  bool               `mapstructure:"watch"`
}

// NewViper returns a viper instance with doxylink defaults and environment
// bindings. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("add_function_parentheses", true)
	v.SetDefault("source_dir", ".")
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("watch", false)

	// Env vars: DOXYLINK_DB_PATH, DOXYLINK_SOURCE_DIR, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. An explicit configFile must exist; otherwise
// .doxylink.yaml is looked up in the working directory and is optional.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	dbPath, err := expandHome(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = dbPath

	// Tag file paths are relative to the config file, like the rest of a docs tree
	if used := v.ConfigFileUsed(); used != "" {
		base := filepath.Dir(used)
		for name, tf := range cfg.TagFiles {
			if tf.TagFile != "" && !filepath.IsAbs(tf.TagFile) {
				tf.TagFile = filepath.Join(base, tf.TagFile)
				cfg.TagFiles[name] = tf
			}
		}
	}
	return &cfg, nil
}

// Validate checks that every namespace has a tag file
func (c *Config) Validate() error {
	if len(c.TagFiles) == 0 {
		return ErrNoTagFiles
	}
	for _, name := range c.names() {
		if strings.TrimSpace(c.TagFiles[name].TagFile) == "" {
			return fmt.Errorf("namespace %q has no tag file", name)
		}
	}
	return nil
}

func (c *Config) names() []string {
	names := make([]string, 0, len(c.TagFiles))
	for name := range c.TagFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces returns the configured namespaces sorted by name
func (c *Config) Namespaces() []resolver.Namespace {
	out := make([]resolver.Namespace, 0, len(c.TagFiles))
	for _, name := range c.names() {
		tf := c.TagFiles[name]
		out = append(out, resolver.Namespace{Name: name, TagFile: tf.TagFile, Root: tf.Root})
	}
	return out
}

// ResolverOptions converts the configuration into resolver options
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		Namespaces:             c.Namespaces(),
		AddFunctionParentheses: c.AddFunctionParentheses,
		SourceDir:              c.SourceDir,
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
