// Package config loads fsearch configuration from defaults, the user config
// file, the project config file and FSEARCH_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
	"github.com/Aman-CERP/fsearch/internal/logging"
)

// Backend names accepted by search.backend.
const (
	BackendAuto   = "auto"
	BackendNative = "native"
	BackendGrep   = "grep"
)

// Project config file names, in order of preference.
var projectConfigNames = []string{".fsearch.yaml", ".fsearch.yml"}

// Config represents the complete fsearch configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Grep    GrepConfig    `yaml:"grep" json:"grep"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds the default query options.
type SearchConfig struct {
	IgnoreCase     bool `yaml:"ignore_case" json:"ignore_case"`
	MatchWholeWord bool `yaml:"match_whole_word" json:"match_whole_word"`
	// Limit caps matching lines per query. 0 means unbounded.
	Limit int `yaml:"limit" json:"limit"`
	// Exclude globs are appended across config layers.
	Exclude []string `yaml:"exclude" json:"exclude"`
	// Backend is auto, native or grep.
	Backend string `yaml:"backend" json:"backend"`
}

// EngineConfig tunes the in-process search engine. Zero values use the
// engine defaults.
type EngineConfig struct {
	Workers      int `yaml:"workers" json:"workers"`
	CacheSize    int `yaml:"cache_size" json:"cache_size"`
	MaxLineBytes int `yaml:"max_line_bytes" json:"max_line_bytes"`
}

// GrepConfig configures the external grep backend.
type GrepConfig struct {
	// Command overrides the platform utility (grep or findstr).
	Command string `yaml:"command" json:"command"`
}

// LoggingConfig configures the debug log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	logCfg := logging.DefaultConfig()
	return &Config{
		Version: 1,
		Search: SearchConfig{
			IgnoreCase: true,
			Exclude:    []string{},
			Backend:    BackendAuto,
		},
		Grep: GrepConfig{},
		Logging: LoggingConfig{
			Level:     logCfg.Level,
			File:      logCfg.FilePath,
			MaxSizeMB: logCfg.MaxSizeMB,
			MaxFiles:  logCfg.MaxFiles,
		},
	}
}

// LoggingSetup converts the logging section for logging.Setup.
func (c *Config) LoggingSetup() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		FilePath:  c.Logging.File,
		MaxSizeMB: c.Logging.MaxSizeMB,
		MaxFiles:  c.Logging.MaxFiles,
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory layout:
//   - $XDG_CONFIG_HOME/fsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/fsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "fsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "fsearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, or "" if there
// is none. .yaml takes precedence over .yml.
func ProjectConfigPath(dir string) string {
	for _, name := range projectConfigNames {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/fsearch/config.yaml)
//  3. Project config (.fsearch.yaml in dir)
//  4. Environment variables (FSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with a single explicit file and the
// environment. The file must exist.
func LoadFile(path string) (*Config, error) {
	if !fileExists(path) {
		return nil, fserrors.New(fserrors.ErrCodeConfigNotFound,
			fmt.Sprintf("config file %s not found", path), nil).
			WithDetail("path", path)
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUserConfig loads defaults overlaid with the user config file only.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML overlays the fields present in path onto c. Unknown keys and
// type mismatches are rejected. Exclude globs are appended.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		code := fserrors.ErrCodeConfigInvalid
		if errors.Is(err, os.ErrPermission) {
			code = fserrors.ErrCodeConfigPermission
		}
		return fserrors.New(code, fmt.Sprintf("failed to read config file %s", path), err).
			WithDetail("path", path)
	}

	parsed := *c
	parsed.Search.Exclude = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return fserrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	parsed.Search.Exclude = append(append([]string{}, c.Search.Exclude...), parsed.Search.Exclude...)
	*c = parsed
	return nil
}

// applyEnvOverrides applies FSEARCH_* environment variable overrides.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v, ok := envBool("FSEARCH_IGNORE_CASE"); ok {
		c.Search.IgnoreCase = v
	}
	if v, ok := envBool("FSEARCH_MATCH_WHOLE_WORD"); ok {
		c.Search.MatchWholeWord = v
	}
	if v, ok := envInt("FSEARCH_LIMIT"); ok && v >= 0 {
		c.Search.Limit = v
	}
	if v := os.Getenv("FSEARCH_EXCLUDE"); v != "" {
		for _, glob := range strings.Split(v, ",") {
			if glob = strings.TrimSpace(glob); glob != "" {
				c.Search.Exclude = append(c.Search.Exclude, glob)
			}
		}
	}
	if v := os.Getenv("FSEARCH_BACKEND"); v != "" {
		c.Search.Backend = strings.ToLower(v)
	}
	if v, ok := envInt("FSEARCH_WORKERS"); ok && v > 0 {
		c.Engine.Workers = v
	}
	if v := os.Getenv("FSEARCH_GREP_COMMAND"); v != "" {
		c.Grep.Command = v
	}
	if v := os.Getenv("FSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FSEARCH_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// project config file. Without either it returns startDir.
func FindProjectRoot(startDir string) (string, error) {
	if startDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		startDir = cwd
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !dirExists(dir) {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}

	start := dir
	for {
		if dirExists(filepath.Join(dir, ".git")) || ProjectConfigPath(dir) != "" {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.Limit < 0 {
		return invalid("search.limit must be non-negative, got %d", c.Search.Limit)
	}
	switch strings.ToLower(c.Search.Backend) {
	case BackendAuto, BackendNative, BackendGrep:
	default:
		return invalid("search.backend must be 'auto', 'native' or 'grep', got %s", c.Search.Backend)
	}
	for _, glob := range c.Search.Exclude {
		if !doublestar.ValidatePattern(strings.TrimPrefix(glob, "./")) {
			return invalid("search.exclude has an invalid glob %q", glob)
		}
	}

	if c.Engine.Workers < 0 {
		return invalid("engine.workers must be non-negative, got %d", c.Engine.Workers)
	}
	if c.Engine.CacheSize < 0 {
		return invalid("engine.cache_size must be non-negative, got %d", c.Engine.CacheSize)
	}
	if c.Engine.MaxLineBytes < 0 {
		return invalid("engine.max_line_bytes must be non-negative, got %d", c.Engine.MaxLineBytes)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return invalid("logging.max_size_mb and logging.max_files must be non-negative")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fserrors.ConfigError("invalid configuration: "+fmt.Sprintf(format, args...), nil)
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
