package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTVDB(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTVDB() error {
	if c.TVDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/showaudit/config.toml"
		}
		return fmt.Errorf("tvdb.api_key is required. Set TVDB_API_KEY env var or edit %s (create with 'showaudit config init')", defaultPath)
	}
	parsed, err := url.Parse(c.TVDB.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tvdb.base_url must be an absolute URL, got %q", c.TVDB.BaseURL)
	}
	if c.TVDB.RequestTimeoutSeconds <= 0 {
		return errors.New("tvdb.request_timeout_seconds must be positive")
	}
	if c.TVDB.SearchLimit <= 0 {
		return errors.New("tvdb.search_limit must be positive")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ConfidenceThreshold < 0 || c.Matching.ConfidenceThreshold > 100 {
		return errors.New("matching.confidence_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
