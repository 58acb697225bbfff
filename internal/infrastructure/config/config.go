package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOGRELAY_BATCHSIZE.
const EnvPrefix = "LOGRELAY"

// configKeys are the recognized keys; anything else in a file is ignored.
var configKeys = []string{
	"apiEndpoint",
	"batchSize",
	"flushInterval",
	"maxQueueSize",
	"logLevel",
	"retryAttempts",
	"retryDelayMs",
	"enabled",
}

// LoadConfig reads overrides from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (logrelay.json)
// 3. Defaults, applied later by NewManager (lowest priority)
func LoadConfig(configPath string) (*Overrides, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("logrelay")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".logrelay"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range configKeys {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// Config file is optional when searching default paths
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return overridesFromViper(v), nil
}

// overridesFromViper copies every key the sources actually set.
func overridesFromViper(v *viper.Viper) *Overrides {
	o := &Overrides{}
	if v.IsSet("apiEndpoint") {
		o.APIEndpoint = Ptr(v.GetString("apiEndpoint"))
	}
	if v.IsSet("batchSize") {
		o.BatchSize = Ptr(v.GetInt("batchSize"))
	}
	if v.IsSet("flushInterval") {
		o.FlushInterval = Ptr(v.GetInt("flushInterval"))
	}
	if v.IsSet("maxQueueSize") {
		o.MaxQueueSize = Ptr(v.GetInt("maxQueueSize"))
	}
	if v.IsSet("logLevel") {
		o.LogLevel = Ptr(v.GetString("logLevel"))
	}
	if v.IsSet("retryAttempts") {
		o.RetryAttempts = Ptr(v.GetInt("retryAttempts"))
	}
	if v.IsSet("retryDelayMs") {
		o.RetryDelayMs = Ptr(v.GetInt("retryDelayMs"))
	}
	if v.IsSet("enabled") {
		o.Enabled = Ptr(v.GetBool("enabled"))
	}
	return o
}

// LoadManager loads overrides and builds a validated Manager from them
func LoadManager(configPath string) (*Manager, error) {
	overrides, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	m, err := NewManager(overrides)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MustLoadManager loads configuration and panics on error (for use in main.go)
func MustLoadManager(configPath string) *Manager {
	m, err := LoadManager(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return m
}
