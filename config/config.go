// Package config loads and validates the salesboard YAML configuration.
//
// The salesperson-to-channel mapping lives here rather than in code so that
// channel taxonomy changes do not require a release: channels are read from
// the `channels:` map with `default_channel` catching unmapped names.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// defaultDeliveryTolerance is the absolute currency difference within which a
// pre-sale order is considered fully delivered.
const defaultDeliveryTolerance = 5.0

// Config represents the entire application configuration.
type Config struct {
	DataDir           string            `yaml:"data_dir"`
	SnapshotDBPath    string            `yaml:"snapshot_db_path"`
	Web               WebConfig         `yaml:"web"`
	MonthlyTarget     float64           `yaml:"monthly_target"`
	DeliveryTolerance float64           `yaml:"delivery_tolerance"`
	DefaultChannel    string            `yaml:"default_channel"`
	Channels          map[string]string `yaml:"channels"`
	ActiveSalespeople []string          `yaml:"active_salespeople"`
}

// WebConfig holds settings specific to the web server.
type WebConfig struct {
	ListenAddress   string `yaml:"listen_address"`
	DevelopmentMode bool   `yaml:"development_mode"`
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(configFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
func validateAndPrepare(c *Config) error {
	// General
	if c.DataDir == "" {
		return errors.New("data_dir is missing")
	}
	s, err := os.Stat(c.DataDir)
	if err != nil {
		return fmt.Errorf("data_dir %q cannot be read: %w", c.DataDir, err)
	}
	if !s.IsDir() {
		return fmt.Errorf("data_dir %q is not a directory", c.DataDir)
	}
	if c.SnapshotDBPath == "" {
		return errors.New("snapshot_db_path is missing")
	}

	// Web
	if c.Web.ListenAddress == "" {
		return errors.New("web.listen_address is missing")
	}

	// Business settings.
	if c.MonthlyTarget < 0 {
		return errors.New("monthly_target may not be negative")
	}
	if c.DeliveryTolerance < 0 {
		return errors.New("delivery_tolerance may not be negative")
	}
	if c.DeliveryTolerance == 0 {
		c.DeliveryTolerance = defaultDeliveryTolerance
	}

	// Channel taxonomy.
	if len(c.Channels) < 1 {
		return errors.New("at least one channels mapping entry should be supplied")
	}
	if c.DefaultChannel == "" {
		return errors.New("default_channel is missing")
	}
	for name, channel := range c.Channels {
		if strings.TrimSpace(name) == "" {
			return errors.New("channels contains an empty salesperson name")
		}
		if strings.TrimSpace(channel) == "" {
			return fmt.Errorf("channels entry for %q has an empty channel", name)
		}
	}

	// Active salespeople restrict coverage denominators; empty entries would
	// silently match nobody.
	for _, name := range c.ActiveSalespeople {
		if strings.TrimSpace(name) == "" {
			return errors.New("active_salespeople contains an empty name")
		}
	}
	return nil
}
