package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	History HistoryConfig `json:"history"`
	Network NetworkConfig `json:"network"`
	Mount   MountConfig   `json:"mount"`
	Store   StoreConfig   `json:"store"`
}

// HistoryConfig holds per-panel history limits
type HistoryConfig struct {
	MaxEntries       int `json:"maxEntries"`       // Back/forward entries kept per panel
	MenuLimit        int `json:"menuLimit"`        // Entries shown in back/forward dropdowns
	FilterMaxEntries int `json:"filterMaxEntries"` // Panel filter queries kept
	SearchMaxEntries int `json:"searchMaxEntries"` // Find-files queries kept per field
}

// NetworkConfig holds service discovery settings
type NetworkConfig struct {
	ServiceTypes   []string `json:"serviceTypes"`   // DNS-SD service types to browse
	Domain         string   `json:"domain"`         // Browse domain, normally "local."
	ResolveTimeout Duration `json:"resolveTimeout"` // Per-service resolve bound
	ScanWindow     Duration `json:"scanWindow"`     // Auto-stop after this long
	ShareTimeout   Duration `json:"shareTimeout"`   // Share listing command bound
}

// MountConfig holds share mounting settings
type MountConfig struct {
	Root           string   `json:"root"`           // Directory mount points are created in
	ProcessTimeout Duration `json:"processTimeout"` // Mount utility is killed after this
	PollInterval   Duration `json:"pollInterval"`   // Child process poll interval
	FallbackDelay  Duration `json:"fallbackDelay"`  // Wait before re-checking volumes
	VolumePoll     Duration `json:"volumePoll"`     // Interval for PollForNewMount
	AuthWait       Duration `json:"authWait"`       // How long to wait for a mount after the system connect dialog
}

// StoreConfig holds preference store settings
type StoreConfig struct {
	Path string `json:"path"` // sqlite database file
}

// Duration is a time.Duration that reads and writes as "10s" in JSON
type Duration time.Duration

// D returns the value as a time.Duration
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Plain numbers are milliseconds
		var ms int64
		if err2 := json.Unmarshal(b, &ms); err2 != nil {
			return fmt.Errorf("duration must be a string like \"5s\": %w", err)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
		path:   ConfigPath(),
	}
}

// NewManagerAt creates a manager bound to an explicit file path
func NewManagerAt(path string) *Manager {
	return &Manager{
		config: DefaultConfig(),
		path:   path,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			MaxEntries:       100,
			MenuLimit:        10,
			FilterMaxEntries: 16,
			SearchMaxEntries: 32,
		},
		Network: NetworkConfig{
			ServiceTypes: []string{
				"_smb._tcp",
				"_afpovertcp._tcp",
				"_device-info._tcp",
			},
			Domain:         "local.",
			ResolveTimeout: Duration(5 * time.Second),
			ScanWindow:     Duration(10 * time.Second),
			ShareTimeout:   Duration(6 * time.Second),
		},
		Mount: MountConfig{
			Root:           DefaultMountRoot(),
			ProcessTimeout: Duration(10 * time.Second),
			PollInterval:   Duration(100 * time.Millisecond),
			FallbackDelay:  Duration(800 * time.Millisecond),
			VolumePoll:     Duration(time.Second),
			AuthWait:       Duration(2 * time.Minute),
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
	}
}

// DefaultMountRoot returns /Volumes on macOS and ~/.local/share/duonav/mounts elsewhere
func DefaultMountRoot() string {
	if runtime.GOOS == "darwin" {
		return "/Volumes"
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "duonav", "mounts")
}

// DefaultStorePath returns the preference database path under the user config dir
func DefaultStorePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "duonav", "prefs.db")
}

// ConfigPath returns the config file path: ~/.config/duonav/config.json
// This is consistent across all platforms
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "duonav", "config.json")
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Start from defaults so missing keys keep sane values
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}
	cfg.sanitize()

	log.Printf("Config: loaded from %s", m.path)
	m.config = cfg
	return nil
}

// sanitize replaces zero or negative values with defaults
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = def.History.MaxEntries
	}
	if c.History.MenuLimit <= 0 {
		c.History.MenuLimit = def.History.MenuLimit
	}
	if c.History.FilterMaxEntries <= 0 {
		c.History.FilterMaxEntries = def.History.FilterMaxEntries
	}
	if c.History.SearchMaxEntries <= 0 {
		c.History.SearchMaxEntries = def.History.SearchMaxEntries
	}
	if len(c.Network.ServiceTypes) == 0 {
		c.Network.ServiceTypes = def.Network.ServiceTypes
	}
	if c.Network.Domain == "" {
		c.Network.Domain = def.Network.Domain
	}
	if c.Network.ResolveTimeout <= 0 {
		c.Network.ResolveTimeout = def.Network.ResolveTimeout
	}
	if c.Network.ScanWindow <= 0 {
		c.Network.ScanWindow = def.Network.ScanWindow
	}
	if c.Network.ShareTimeout <= 0 {
		c.Network.ShareTimeout = def.Network.ShareTimeout
	}
	if c.Mount.Root == "" {
		c.Mount.Root = def.Mount.Root
	}
	if c.Mount.ProcessTimeout <= 0 {
		c.Mount.ProcessTimeout = def.Mount.ProcessTimeout
	}
	if c.Mount.PollInterval <= 0 {
		c.Mount.PollInterval = def.Mount.PollInterval
	}
	if c.Mount.FallbackDelay < 0 {
		c.Mount.FallbackDelay = def.Mount.FallbackDelay
	}
	if c.Mount.VolumePoll <= 0 {
		c.Mount.VolumePoll = def.Mount.VolumePoll
	}
	if c.Mount.AuthWait <= 0 {
		c.Mount.AuthWait = def.Mount.AuthWait
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetMountRoot updates the mount root directory and saves
func (m *Manager) SetMountRoot(root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Mount.Root = root
	return m.saveUnlocked()
}

// SetServiceTypes replaces the browsed service types and saves
func (m *Manager) SetServiceTypes(types []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Network.ServiceTypes = append([]string(nil), types...)
	return m.saveUnlocked()
}

// Generate backs up the manager's config file and replaces it with defaults.
// Returns the backup path if a backup was created, or empty string if no existing config
func (m *Manager) Generate() (backupPath string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	configPath := m.path

	if _, err := os.Stat(configPath); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}

		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}

	m.config = DefaultConfig()
	m.parseErr = nil
	return backupPath, nil
}
