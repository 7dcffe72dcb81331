package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// This is the global app config for the ledger node.
type AppConfig struct {
	// How many leading '0' characters form a valid hash.
	DIFFICULTY int `yaml:"DIFFICULTY" toml:"DIFFICULTY"`
	// Upper bound for a single call to a peer. Must be positive.
	PEER_TIMEOUT time.Duration `yaml:"PEER_TIMEOUT" toml:"PEER_TIMEOUT"`
	// Run a consensus pass this often in the background. 0 disables it.
	CONSENSUS_INTERVAL time.Duration `yaml:"CONSENSUS_INTERVAL" toml:"CONSENSUS_INTERVAL"`
	// Abandon the running search and mine again on top of the new tail when a block
	// from a peer or a resync moves the tail.
	REMINE_ON_TAIL_CHANGE bool `yaml:"REMINE_ON_TAIL_CHANGE" toml:"REMINE_ON_TAIL_CHANGE"`
	// Address the prometheus handler listens on, e.g. ":9100". Empty disables it.
	METRICS_ADDR string `yaml:"METRICS_ADDR" toml:"METRICS_ADDR"`
	// Peers this node registers with on startup.
	BOOTSTRAP_PEERS []string `yaml:"BOOTSTRAP_PEERS" toml:"BOOTSTRAP_PEERS"`
}

// Default returns the config used when no file is given.
func Default() AppConfig {
	return AppConfig{
		DIFFICULTY:            4,
		PEER_TIMEOUT:          30 * time.Second,
		CONSENSUS_INTERVAL:    0,
		REMINE_ON_TAIL_CHANGE: true,
	}
}

func (c AppConfig) Validate() error {
	if c.DIFFICULTY < 0 || c.DIFFICULTY > 64 {
		return fmt.Errorf("DIFFICULTY must be within [0, 64], got %d", c.DIFFICULTY)
	}
	if c.PEER_TIMEOUT <= 0 {
		return errors.New("PEER_TIMEOUT must be positive")
	}
	if c.CONSENSUS_INTERVAL < 0 {
		return errors.New("CONSENSUS_INTERVAL must not be negative")
	}
	return nil
}

// Load reads the config at path on top of Default. Files ending in .toml are parsed as
// TOML, everything else as YAML.
func Load(path string) (AppConfig, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := Parse(data, filepath.Ext(path), &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Parse decodes data into c according to the file extension ext.
func Parse(data []byte, ext string, c *AppConfig) error {
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
	}
	return nil
}
