package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Rules    RulesConfig
	Ledger   LedgerConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// RulesConfig locates the rule document.
type RulesConfig struct {
	Path string
}

// LedgerConfig holds ledger-wide settings. The system is single-currency;
// Currency is stamped on every row.
type LedgerConfig struct {
	Currency string
	Timezone string
}

// Load reads configuration from file and env. Env var overrides use prefix SPESE_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "spese")
	v.SetDefault("database.path", filepath.Join(dataDir, "spese.db"))
	v.SetDefault("rules.path", filepath.Join(dataDir, "rules.yaml"))
	v.SetDefault("ledger.currency", "EUR")
	v.SetDefault("ledger.timezone", "Europe/Rome")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SPESE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "spese"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SPESE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory
// if needed.
func Save(cfg Config) error {
	path := os.Getenv("SPESE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "spese", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("rules.path", cfg.Rules.Path)
	v.Set("ledger.currency", cfg.Ledger.Currency)
	v.Set("ledger.timezone", cfg.Ledger.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
