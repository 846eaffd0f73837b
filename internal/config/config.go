// Package config loads marketd configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relicmarket/marketplace-go/core/util"
)

// Duration decodes humane YAML forms like "15s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration for a marketd instance.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Feed        FeedConfig        `yaml:"feed"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen          string   `yaml:"listen"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// MarketplaceConfig holds ledger deployment settings.
type MarketplaceConfig struct {
	Admin string `yaml:"admin"` // admin wallet, 0x hex
	Salt  string `yaml:"salt"`  // deployment salt, freeform; hashed to 32 bytes
}

// FeedConfig holds websocket event feed settings.
type FeedConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(15 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Marketplace.Salt == "" {
		c.Marketplace.Salt = "marketd"
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = 256
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.Marketplace.Admin == "" {
		return fmt.Errorf("marketplace.admin is required")
	}
	if _, err := util.NewEthereumAddressFromString(c.Marketplace.Admin); err != nil {
		return fmt.Errorf("marketplace.admin: %v", err)
	}
	if c.Feed.BufferSize < 0 {
		return fmt.Errorf("feed.buffer_size must be non-negative, got %d", c.Feed.BufferSize)
	}
	return nil
}

// AdminAddress returns the parsed admin wallet. Call after Validate.
func (c *Config) AdminAddress() util.EthereumAddress {
	return util.MustNewEthereumAddressFromString(c.Marketplace.Admin)
}
