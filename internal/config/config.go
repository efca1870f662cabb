// Package config loads rulesmith settings from config files, flags and the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/rulesmith/internal/common"
)

// Default values for every configuration key.
const (
	DefaultDatabasePath = "$HOME/.local/share/rulesmith/rules.db"
	DefaultServerAddr   = ":8000"
	DefaultExportDir    = "exported_rules"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config is the typed application configuration.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Lifecycle LifecycleConfig
	Export    ExportConfig
	Logging   LoggingConfig
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr                 string
	CORSOrigins          []string
	CORSMethods          []string
	CORSHeaders          []string
	CORSAllowCredentials bool
}

// LifecycleConfig tunes scope governance.
type LifecycleConfig struct {
	// ConflictExemptTypes lists rule types that may coexist at overlapping scopes.
	ConflictExemptTypes []string
}

// ExportConfig controls where exports are written.
type ExportConfig struct {
	Dir string
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.cors_methods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	v.SetDefault("server.cors_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("server.cors_allow_credentials", true)
	v.SetDefault("lifecycle.conflict_exempt_types", []string{"enhancement"})
	v.SetDefault("export.dir", DefaultExportDir)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// Load reads the typed configuration out of v and validates it.
// Paths have ~ and environment variables expanded.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Server: ServerConfig{
			Addr:                 v.GetString("server.addr"),
			CORSOrigins:          stringList(v, "server.cors_origins"),
			CORSMethods:          stringList(v, "server.cors_methods"),
			CORSHeaders:          stringList(v, "server.cors_headers"),
			CORSAllowCredentials: v.GetBool("server.cors_allow_credentials"),
		},
		Lifecycle: LifecycleConfig{
			ConflictExemptTypes: stringList(v, "lifecycle.conflict_exempt_types"),
		},
		Export: ExportConfig{
			Dir: ExpandPath(v.GetString("export.dir")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path must not be empty", common.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr must not be empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// stringList reads a list key that may be given either as a YAML list or as
// a comma separated string (the form environment variables take).
func stringList(v *viper.Viper, key string) []string {
	values := []string{}
	for _, entry := range v.GetStringSlice(key) {
		for _, item := range strings.Split(entry, ",") {
			if item = strings.TrimSpace(item); item != "" {
				values = append(values, item)
			}
		}
	}
	return values
}
