// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all veralog configuration.
type Config struct {
	Version int `yaml:"version"`

	Compute     ComputeConfig     `yaml:"compute"`
	Integration IntegrationConfig `yaml:"integration"`
	Parser      ParserConfig      `yaml:"parser"`
	Bewilder    BewilderConfig    `yaml:"bewilder"`
	Mining      MiningConfig      `yaml:"mining"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ComputeConfig controls realization-set computation.
type ComputeConfig struct {
	Workers     int  `yaml:"workers"`     // 0 = GOMAXPROCS
	Probability bool `yaml:"probability"` // compute probabilities, not just variants
}

// IntegrationConfig tunes the numerical integration of timestamp
// uncertainty.
type IntegrationConfig struct {
	AbsTol     float64 `yaml:"abs_tol"`
	RelTol     float64 `yaml:"rel_tol"`
	MaxIter    int     `yaml:"max_iter"`
	DiracDelta float64 `yaml:"dirac_delta"` // half-width for certain timestamps, seconds
}

// ParserConfig controls XES parsing.
type ParserConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// BewilderConfig controls synthetic uncertainty injection.
type BewilderConfig struct {
	Seed            int64   `yaml:"seed"`
	ActivityP       float64 `yaml:"activity_p"`
	TimestampP      float64 `yaml:"timestamp_p"`
	IndeterminateP  float64 `yaml:"indeterminate_p"`
	ExtraActivities int     `yaml:"extra_activities"`
}

// MiningConfig controls pattern mining.
type MiningConfig struct {
	Algorithm  string  `yaml:"algorithm"` // apriori | winepi
	Matcher    string  `yaml:"matcher"`   // serial | parallel
	Width      int64   `yaml:"width"`
	Step       int64   `yaml:"step"`
	MinSupport float64 `yaml:"min_support"`
	MaxSupport float64 `yaml:"max_support"`
	Weighted   bool    `yaml:"weighted"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Compute: ComputeConfig{
			Workers:     0, // auto
			Probability: true,
		},
		Integration: IntegrationConfig{
			AbsTol:     1e-3,
			RelTol:     1e-3,
			MaxIter:    5,
			DiracDelta: 1e-4,
		},
		Parser: ParserConfig{
			BufferSize: 64 * 1024,
		},
		Bewilder: BewilderConfig{
			Seed:            1,
			ActivityP:       0.1,
			TimestampP:      0.1,
			IndeterminateP:  0.1,
			ExtraActivities: 1,
		},
		Mining: MiningConfig{
			Algorithm:  "apriori",
			Matcher:    "serial",
			Width:      3,
			Step:       1,
			MinSupport: 0.0,
			MaxSupport: 1.0,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()

	// Load from paths in order (later overrides earlier)
	paths := m.getConfigPaths()
	for _, path := range paths {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but surface errors for existing files
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	m.loadEnv()

	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/veralog/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".veralog", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".veralog.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	// Merge non-zero values
	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	// Compute
	if src.Compute.Workers != 0 {
		m.config.Compute.Workers = src.Compute.Workers
	}
	if src.Compute.Probability {
		m.config.Compute.Probability = true
	}

	// Integration
	if src.Integration.AbsTol != 0 {
		m.config.Integration.AbsTol = src.Integration.AbsTol
	}
	if src.Integration.RelTol != 0 {
		m.config.Integration.RelTol = src.Integration.RelTol
	}
	if src.Integration.MaxIter != 0 {
		m.config.Integration.MaxIter = src.Integration.MaxIter
	}
	if src.Integration.DiracDelta != 0 {
		m.config.Integration.DiracDelta = src.Integration.DiracDelta
	}

	// Parser
	if src.Parser.BufferSize != 0 {
		m.config.Parser.BufferSize = src.Parser.BufferSize
	}

	// Bewilder
	if src.Bewilder.Seed != 0 {
		m.config.Bewilder.Seed = src.Bewilder.Seed
	}
	if src.Bewilder.ActivityP != 0 {
		m.config.Bewilder.ActivityP = src.Bewilder.ActivityP
	}
	if src.Bewilder.TimestampP != 0 {
		m.config.Bewilder.TimestampP = src.Bewilder.TimestampP
	}
	if src.Bewilder.IndeterminateP != 0 {
		m.config.Bewilder.IndeterminateP = src.Bewilder.IndeterminateP
	}
	if src.Bewilder.ExtraActivities != 0 {
		m.config.Bewilder.ExtraActivities = src.Bewilder.ExtraActivities
	}

	// Mining
	if src.Mining.Algorithm != "" {
		m.config.Mining.Algorithm = src.Mining.Algorithm
	}
	if src.Mining.Matcher != "" {
		m.config.Mining.Matcher = src.Mining.Matcher
	}
	if src.Mining.Width != 0 {
		m.config.Mining.Width = src.Mining.Width
	}
	if src.Mining.Step != 0 {
		m.config.Mining.Step = src.Mining.Step
	}
	if src.Mining.MinSupport != 0 {
		m.config.Mining.MinSupport = src.Mining.MinSupport
	}
	if src.Mining.MaxSupport != 0 {
		m.config.Mining.MaxSupport = src.Mining.MaxSupport
	}
	if src.Mining.Weighted {
		m.config.Mining.Weighted = true
	}

	// Telemetry
	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	// VERALOG_WORKERS
	if v := os.Getenv("VERALOG_WORKERS"); v != "" {
		var workers int
		if _, err := fmt.Sscanf(v, "%d", &workers); err == nil {
			m.config.Compute.Workers = workers
		}
	}

	// VERALOG_SEED
	if v := os.Getenv("VERALOG_SEED"); v != "" {
		var seed int64
		if _, err := fmt.Sscanf(v, "%d", &seed); err == nil {
			m.config.Bewilder.Seed = seed
		}
	}

	// VERALOG_TELEMETRY_ENDPOINT
	if v := os.Getenv("VERALOG_TELEMETRY_ENDPOINT"); v != "" {
		m.config.Telemetry.Endpoint = v
		m.config.Telemetry.Enabled = true
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".veralog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
