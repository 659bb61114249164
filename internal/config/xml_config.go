// Package config provides XML-based configuration of the gcviewer backend.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gcviewer/backend/internal/prefs"
)

// FileName is the config file looked up next to the executable.
const FileName = "gcviewer.config.xml"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"GCViewer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// User preference file
	Preferences PreferencesConfig `xml:"Preferences"`

	// Dataset summary catalog
	Catalog CatalogConfig `xml:"Catalog"`

	// Live-follow file watching
	Watch WatchConfig `xml:"Watch"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// PreferencesConfig locates the properties file. An empty File selects
// $HOME/.gcviewer.properties.
type PreferencesConfig struct {
	File string `xml:"File"`
}

// CatalogConfig contains DuckDB settings. An empty Path keeps the catalog
// in memory.
type CatalogConfig struct {
	Path        string `xml:"Path"`
	Threads     int    `xml:"Threads"`
	MemoryLimit string `xml:"MemoryLimit"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	Enabled    bool `xml:"Enabled"`
	DebounceMs int  `xml:"DebounceMilliseconds"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "127.0.0.1",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			IdleTimeout:  120,
			BodyLimit:    "8M",
		},
		Catalog: CatalogConfig{
			Path:        "./data/catalog.duckdb",
			Threads:     2,
			MemoryLimit: "256MB",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file. A missing file is created
// with the defaults, and elements missing from an existing file keep their
// default value.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// unmarshal over the defaults so omitted elements keep them
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- GCViewer backend configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if file := os.Getenv("GCVIEWER_PREFS"); file != "" {
		c.Preferences.File = file
	}

	if path, ok := os.LookupEnv("GCVIEWER_CATALOG"); ok {
		c.Catalog.Path = path
	}

	if level := os.Getenv("GCVIEWER_LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Catalog.Path != "" && !filepath.IsAbs(c.Catalog.Path) {
		c.Catalog.Path = filepath.Join(configDir, c.Catalog.Path)
	}
	if c.Preferences.File != "" && !filepath.IsAbs(c.Preferences.File) {
		c.Preferences.File = filepath.Join(configDir, c.Preferences.File)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetPreferencesFile returns the properties file to load and save.
func (c *AppConfig) GetPreferencesFile() (string, error) {
	if c.Preferences.File != "" {
		return c.Preferences.File, nil
	}
	return prefs.DefaultPath()
}

// GetAllowOrigins splits the comma separated origin list.
func (c *AppConfig) GetAllowOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// GetWatchDebounce returns the watcher debounce interval.
func (c *AppConfig) GetWatchDebounce() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return 0
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// CatalogPragmas returns the DuckDB pragmas for the catalog settings.
func (c *AppConfig) CatalogPragmas() []string {
	var pragmas []string
	if c.Catalog.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", c.Catalog.MemoryLimit))
	}
	if c.Catalog.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", c.Catalog.Threads))
	}
	return append(pragmas, "PRAGMA enable_progress_bar=false")
}

// EnsureDirectories creates the directories the configured files live in.
func (c *AppConfig) EnsureDirectories() error {
	var dirs []string
	if c.Catalog.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Catalog.Path))
	}
	if c.Preferences.File != "" {
		dirs = append(dirs, filepath.Dir(c.Preferences.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
