package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all engine configuration: store location, retention and
// write-safety policy, and the optional sync service hook.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Safety SafetyConfig `mapstructure:"safety"`
	Sync   SyncConfig   `mapstructure:"sync"`
}

// StoreConfig locates the on-disk store and its retention window.
type StoreConfig struct {
	Root          string `mapstructure:"root"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// SafetyConfig holds write-safety settings. MaxArrayLength is handed to the
// manager; StrictWrites is loaded but not consulted by the manager.
type SafetyConfig struct {
	StrictWrites   bool `mapstructure:"strict_writes"`
	MaxArrayLength int  `mapstructure:"max_array_length"`
}

// SyncConfig controls the optional pluggable sync-service hook (§6.2).
type SyncConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Command string `mapstructure:"command"`
}

// LoadConfigWithFile loads configuration from a specific file if provided;
// otherwise it uses taskengine.yaml in the working directory when present,
// and the global config file (GlobalConfigPath) when not.
func LoadConfigWithFile(workDir, configFile string) (*Config, error) {
	if configFile != "" {
		return LoadConfigFromPath(configFile)
	}

	localPath := filepath.Join(workDir, "taskengine.yaml")
	if _, err := os.Stat(localPath); err == nil {
		return LoadConfig(workDir)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	globalPath, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadConfigFromPath(globalPath)
}

// LoadConfig loads configuration from taskengine.yaml in the given
// directory. If no config file exists, sensible defaults are returned.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("taskengine")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromPath loads configuration from a specific file path.
func LoadConfigFromPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			if err := v.Unmarshal(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults sets all default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.root", DefaultStoreRoot)
	v.SetDefault("store.retention_days", DefaultRetentionDays)

	v.SetDefault("safety.strict_writes", DefaultStrictWrites)
	v.SetDefault("safety.max_array_length", DefaultMaxArrayLength)

	v.SetDefault("sync.enabled", DefaultSyncEnabled)
	v.SetDefault("sync.command", "")
}
