package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'mototrack config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Parse TOML
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths in config
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads config or exits with error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.BikesFile, err = expandPath(c.BikesFile)
	if err != nil {
		return err
	}

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	c.Cache.Path, err = expandPath(c.Cache.Path)
	if err != nil {
		return err
	}

	c.Report.HTMLPath, err = expandPath(c.Report.HTMLPath)
	if err != nil {
		return err
	}

	c.Report.ExcelPath, err = expandPath(c.Report.ExcelPath)
	if err != nil {
		return err
	}

	c.Logging.File, err = expandPath(c.Logging.File)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.BikesFile == "" {
		errs = append(errs, errors.New("bikes_file is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	// Source validation
	known := make(map[string]bool, len(KnownSources))
	for _, s := range KnownSources {
		known[s] = true
	}
	if len(c.Sources.Enabled) == 0 {
		errs = append(errs, errors.New("sources.enabled must name at least one source"))
	}
	for _, s := range c.Sources.Enabled {
		if !known[s] {
			errs = append(errs, fmt.Errorf("unknown source %q in sources.enabled (known: %s)", s, strings.Join(KnownSources, ", ")))
		}
	}

	// Every enabled source needs a match threshold in (0, 1]
	for _, s := range c.Sources.Enabled {
		t, ok := c.Thresholds[s]
		if !ok {
			errs = append(errs, fmt.Errorf("thresholds.%s is required for enabled source", s))
			continue
		}
		if t <= 0 || t > 1 {
			errs = append(errs, fmt.Errorf("thresholds.%s must be in (0.0, 1.0], got %v", s, t))
		}
	}

	// HTTP validation
	if c.HTTP.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("http.timeout_seconds must be at least 1"))
	}
	if c.HTTP.SleepMinSeconds < 0 || c.HTTP.SleepMaxSeconds < c.HTTP.SleepMinSeconds {
		errs = append(errs, errors.New("http sleep range must satisfy 0 <= sleep_min_seconds <= sleep_max_seconds"))
	}

	if c.Cache.MaxAgeHours < 1 {
		errs = append(errs, errors.New("cache.max_age_hours must be at least 1"))
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for database, cache and reports
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Cache.Path),
		filepath.Dir(c.Report.HTMLPath),
		filepath.Dir(c.Report.ExcelPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LoadBikes reads the tracked model list from the configured bikes file.
// One "Brand Model" term per line; empty lines and # comments are skipped.
func (c *Config) LoadBikes() ([]string, error) {
	data, err := os.ReadFile(c.BikesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read bikes file %s: %w", c.BikesFile, err)
	}

	var bikes []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bikes = append(bikes, line)
	}
	return bikes, nil
}

// ValidateSearchTerm checks that a search term has the "Brand Model" shape
// the matcher relies on: at least two whitespace-separated tokens.
func ValidateSearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return errors.New("search term is empty")
	}
	if len(strings.Fields(term)) < 2 {
		return fmt.Errorf("invalid search term %q (expected \"Brand Model\", e.g. \"Honda CB500X\")", term)
	}
	return nil
}
