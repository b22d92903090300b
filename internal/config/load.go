package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Dir returns the default config directory, ~/.config/btmanager
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "btmanager"), nil
}

// Load reads the config file at path, or looks for config.yaml in the
// current directory and ~/.config/btmanager when path is empty.
// It returns the parsed config and the file that was used.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	log.Debug().Str("path", path).Msg("loading config file")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("no config file found in current directory or ~/.config/btmanager: %w", err)
		}
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config file: %w", err)
	}

	used := v.ConfigFileUsed()
	if cfg.LockFile == "" {
		cfg.LockFile = filepath.Join(filepath.Dir(used), "btmanager.lock")
	}

	if err := Validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	for _, name := range cfg.Downloaders {
		if !cfg.HasDownloader(name) {
			log.Warn().Str("downloader", name).Msg("downloader is not defined, it will be skipped")
		}
	}

	return &cfg, used, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", false)
	v.SetDefault("tagName", DefaultTagName)
	v.SetDefault("startImmediately", false)
	v.SetDefault("ratioLimit", 0)
	v.SetDefault("uploadSpeedLimitKBs", 0)
	v.SetDefault("schedule", DefaultSchedule)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.RatioLimit < 0 {
		return fmt.Errorf("ratioLimit must not be negative: %v", cfg.RatioLimit)
	}

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	seen := make(map[string]string)
	check := func(kind, name string) error {
		key := strings.ToLower(name)
		if other, ok := seen[key]; ok {
			return fmt.Errorf("downloader %q is defined under both %s and %s", name, other, kind)
		}
		seen[key] = kind
		return nil
	}
	for name := range cfg.QBitClients {
		if err := check("qbittorrent", name); err != nil {
			return err
		}
	}
	for name := range cfg.DelugeClients {
		if err := check("deluge", name); err != nil {
			return err
		}
	}
	for name := range cfg.TransmissionClients {
		if err := check("transmission", name); err != nil {
			return err
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
