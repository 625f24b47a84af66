// Package config loads protocolos settings from a .env file, an optional
// protocolos.yaml and the environment, in increasing order of precedence.
// The environment variable names of earlier deployments (DB_TYPE,
// SQLITE_DB_PATH, MONGO_URL, DB_NAME, ADMIN_USER, ADMIN_PASSWORD) are
// honoured alongside PROTOCOLOS_-prefixed names.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/paths"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Config keys.
const (
	KeyEngine        = "engine"
	KeySQLitePath    = "sqlite_path"
	KeyMongoURL      = "mongo_url"
	KeyDatabase      = "database"
	KeyLogLevel      = "log_level"
	KeyAdminUser     = "admin_user"
	KeyAdminPassword = "admin_password"
)

// Defaults.
const (
	DefaultEngine    = types.EngineSQLite
	DefaultMongoURL  = "mongodb://localhost:27017/"
	DefaultDatabase  = "protocolos_db"
	DefaultLogLevel  = "info"
	DefaultAdminUser = "admin"
)

// legacyEnv maps each key to the environment variable earlier deployments
// used for it.
var legacyEnv = map[string]string{
	KeyEngine:        "DB_TYPE",
	KeySQLitePath:    "SQLITE_DB_PATH",
	KeyMongoURL:      "MONGO_URL",
	KeyDatabase:      "DB_NAME",
	KeyLogLevel:      "LOG_LEVEL",
	KeyAdminUser:     "ADMIN_USER",
	KeyAdminPassword: "ADMIN_PASSWORD",
}

// Config holds resolved settings.
type Config struct {
	Engine        string `mapstructure:"engine" yaml:"engine"`
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path,omitempty"`
	MongoURL      string `mapstructure:"mongo_url" yaml:"mongo_url"`
	Database      string `mapstructure:"database" yaml:"database"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	AdminUser     string `mapstructure:"admin_user" yaml:"admin_user"`
	AdminPassword string `mapstructure:"admin_password" yaml:"-"`
}

// Load reads settings. A .env file in the working directory or in configDir
// is loaded first without overriding variables already set; a missing
// protocolos.yaml is not an error.
func Load(configDir string) (*Config, error) {
	for _, p := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return nil, fmt.Errorf("loading %s: %w", p, err)
			}
		}
	}

	v := viper.New()
	v.SetDefault(KeyEngine, DefaultEngine)
	v.SetDefault(KeySQLitePath, "")
	v.SetDefault(KeyMongoURL, DefaultMongoURL)
	v.SetDefault(KeyDatabase, DefaultDatabase)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyAdminUser, DefaultAdminUser)
	v.SetDefault(KeyAdminPassword, "")
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, "PROTOCOLOS_"+strings.ToUpper(key), legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetConfigName(strings.TrimSuffix(paths.ConfigFileName, filepath.Ext(paths.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	return &cfg, nil
}

// Store returns the storage configuration for the selected engine. The
// SQLite path falls back to the platform data directory.
func (c *Config) Store() (types.Config, error) {
	switch c.Engine {
	case types.EngineMongoDB:
		return types.Config{Engine: c.Engine, Target: c.MongoURL, Database: c.Database}, nil
	case types.EngineSQLite:
		path, err := paths.ResolveDatabasePath(c.SQLitePath)
		if err != nil {
			return types.Config{}, fmt.Errorf("resolving database path: %w", err)
		}
		return types.Config{Engine: c.Engine, Target: path}, nil
	}
	return types.Config{}, fmt.Errorf("%w: %q", types.ErrEngineUnknown, c.Engine)
}

// WriteDefault writes c to protocolos.yaml in configDir unless the file
// exists. The admin password is never written. Returns the file path.
func WriteDefault(configDir string, c *Config) (string, error) {
	path := filepath.Join(configDir, paths.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# protocolos configuration\n# Environment variables override these values.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
