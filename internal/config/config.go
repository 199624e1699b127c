package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "CANVAS"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "canvas.db"
	defaultLogLevel     = "info"

	// PersistenceDriverSQLite selects the durable sqlite-backed note archive.
	PersistenceDriverSQLite = "sqlite"
	// PersistenceDriverMemory selects the process-local fallback archive.
	PersistenceDriverMemory = "memory"
)

// AppConfig captures runtime configuration for the canvas API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	PersistenceDriver string
	LogLevel          string
	AllowedOrigins    []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("persistence.driver", PersistenceDriverSQLite)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		PersistenceDriver: strings.ToLower(strings.TrimSpace(configViper.GetString("persistence.driver"))),
		LogLevel:          configViper.GetString("log.level"),
		AllowedOrigins:    configViper.GetStringSlice("cors.allowed_origins"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	switch c.PersistenceDriver {
	case PersistenceDriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the sqlite persistence driver")
		}
	case PersistenceDriverMemory:
	default:
		return fmt.Errorf("persistence.driver must be %q or %q", PersistenceDriverSQLite, PersistenceDriverMemory)
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	return nil
}
