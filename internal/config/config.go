// Package config is the repository's config.toml: author identity,
// loaded and saved through BurntSushi/toml the way the
// teacher repo does for every other on-disk setting.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/trailmark/dvcs/internal/util"
)

// Config represents the .dvcs/config.toml file.
type Config struct {
	User UserConfig `toml:"user"`
}

// UserConfig contains author information for commits and stash saves.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// DefaultConfig returns a new config with default values.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads the config file from the repository.
func Load(repoRoot string) (*Config, error) {
	configPath := util.ConfigPath(repoRoot)

	cfg := &Config{}
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file to the repository.
func (c *Config) Save(repoRoot string) error {
	configPath := util.ConfigPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// AuthorName returns the configured commit author name, falling back to
// the DVCS_AUTHOR_NAME environment variable.
func (c *Config) AuthorName() string {
	if c.User.Name != "" {
		return c.User.Name
	}
	return os.Getenv("DVCS_AUTHOR_NAME")
}

// AuthorEmail returns the configured commit author email, falling back to
// the DVCS_AUTHOR_EMAIL environment variable.
func (c *Config) AuthorEmail() string {
	if c.User.Email != "" {
		return c.User.Email
	}
	return os.Getenv("DVCS_AUTHOR_EMAIL")
}
