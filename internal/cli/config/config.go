package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	dirName    = "reelshare"
	fileName   = "config.json"
	dirPerms   = 0700
	filePerms  = 0600
	DefaultURL = "http://localhost:8080"

	// PathEnv overrides the config file location.
	PathEnv   = "REELSHARE_CONFIG"
	ServerEnv = "REELSHARE_SERVER"
	TokenEnv  = "REELSHARE_TOKEN"

	// refreshLeeway renews tokens slightly before they lapse.
	refreshLeeway = 30 * time.Second
)

// Config holds persisted CLI configuration.
type Config struct {
	ServerURL    string    `json:"server_url"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Email        string    `json:"email,omitempty"`
}

// Path returns the full path to the config file.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the config from disk. A missing file yields the defaults.
func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return &Config{ServerURL: DefaultURL}, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{ServerURL: DefaultURL}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultURL
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, filePerms)
}

// Clear removes the config file.
func Clear() error {
	p, err := Path()
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) HasToken() bool {
	return c.Token != ""
}

// ApplyEnv lets REELSHARE_SERVER and REELSHARE_TOKEN override the file for
// one invocation. An injected token is never refreshed.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(ServerEnv); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(TokenEnv); v != "" {
		c.Token = v
		c.RefreshToken = ""
		c.ExpiresAt = time.Time{}
	}
}

// NeedsRefresh reports whether the access token has lapsed, or is about
// to, and a refresh token is on hand to renew it.
func (c *Config) NeedsRefresh(now time.Time) bool {
	if c.RefreshToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(refreshLeeway).Before(c.ExpiresAt)
}
