package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"ledger-recon/core/database"
	"ledger-recon/core/logger"
	"ledger-recon/core/reconcile"
	"ledger-recon/core/scheduler"
	"ledger-recon/core/server"
	"ledger-recon/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional config file looked up next to the .env file,
// without extension (ledger-recon.yaml, ledger-recon.json, ...).
const FileName = "ledger-recon"

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage used for feeds and reports.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the ledger database connection.
	Database database.Config `mapstructure:"database"`
	// Reconcile holds the default run options.
	Reconcile reconcile.Config `mapstructure:"reconcile"`
	// Schedule holds the recurring trigger settings.
	Schedule scheduler.Config `mapstructure:"schedule"`
}

// LoadConfig loads configuration from path. Precedence, highest first:
// environment variables, the .env file, the optional config file, struct tag defaults.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is fine (e.g. production)
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")

	v.SetConfigName(FileName)
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// SERVER_PORT -> server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the reconcile section. Other sections are checked by the
// component that uses them, when it is enabled.
func (c *Config) Validate() error {
	if err := c.Reconcile.Options().WithDefaults().Validate(); err != nil {
		return err
	}
	if c.Reconcile.Delimiter == "" {
		return &reconcile.ConfigurationError{Option: "delimiter", Message: "must not be empty"}
	}
	if c.Reconcile.MinFields < 2 {
		return &reconcile.ConfigurationError{Option: "min_fields", Message: fmt.Sprintf("must cover the transaction id column, got %d", c.Reconcile.MinFields)}
	}
	return nil
}

// registerDefaults walks the struct tree and registers every `mapstructure`
// key with its `default` tag. Registering empty defaults too makes
// AutomaticEnv see the key.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for _, field := range reflect.VisibleFields(t) {
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
