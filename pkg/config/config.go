package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clipctl/pkg/clipboard"
	"clipctl/pkg/dom"
	"clipctl/pkg/errors"
	"clipctl/pkg/payload"
	"clipctl/pkg/query"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMode            = "rich"
	DefaultGrammar         = "multi"
	DefaultAttributePrefix = "clipboard"
	DefaultActionName      = "clipboard"
	DefaultEndEvent        = clipboard.EventClipboarded
	DefaultDispatchTarget  = "document"
	DefaultActionTimeout   = 5 * time.Second
)

// Profile represents a named set of clipboard settings
type Profile struct {
	Name      string          `yaml:"name"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Default   bool            `yaml:"default,omitempty"`
}

// Config holds the complete configuration including profiles
type Config struct {
	Clipboard     ClipboardConfig `yaml:"clipboard"`
	Journal       JournalConfig   `yaml:"journal"`
	Profiles      []Profile       `yaml:"profiles,omitempty"`
	ActiveProfile string          `yaml:"active_profile,omitempty"`
}

type ClipboardConfig struct {
	Mode            string        `yaml:"mode,omitempty"`
	Grammar         string        `yaml:"grammar,omitempty"`
	AttributePrefix string        `yaml:"attribute_prefix,omitempty"`
	ActionName      string        `yaml:"action_name,omitempty"`
	EndEvent        string        `yaml:"end_event,omitempty"`
	DispatchTarget  string        `yaml:"dispatch_target,omitempty"`
	ActionTimeout   time.Duration `yaml:"action_timeout,omitempty"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file or environment
// variable says otherwise.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads the configuration, optionally with a specific profile
func Load(profileName ...string) (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath, profileName...)
}

// LoadWithProfile loads configuration with a specific profile
func LoadWithProfile(profileName string) (*Config, error) {
	return Load(profileName)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "clipctl", "config.yaml"), nil
}

// DefaultJournalPath returns the journal database path under the user cache
// directory.
func DefaultJournalPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "clipctl", "journal.db"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveToPath(configPath, cfg)
}

func saveToPath(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// GetProfile returns a profile by name
func (c *Config) GetProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile '%s' not found", name)
}

// SetProfile sets the active profile
func (c *Config) SetProfile(name string) error {
	if name == "" {
		c.ActiveProfile = ""
		return nil
	}

	if _, err := c.GetProfile(name); err != nil {
		return err
	}

	c.ActiveProfile = name
	return nil
}

// AddProfile adds a new profile
func (c *Config) AddProfile(profile Profile) error {
	if _, err := c.GetProfile(profile.Name); err == nil {
		return fmt.Errorf("profile '%s' already exists", profile.Name)
	}

	c.Profiles = append(c.Profiles, profile)
	return nil
}

// RemoveProfile removes a profile
func (c *Config) RemoveProfile(name string) error {
	if c.ActiveProfile == name {
		return fmt.Errorf("cannot remove active profile '%s'", name)
	}

	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile '%s' not found", name)
}

// ListProfiles returns a list of profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// IsProfileActive returns true if the given profile is active
func (c *Config) IsProfileActive(name string) bool {
	return c.ActiveProfile == name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string, profileName ...string) (*Config, error) {
	cfg := &Config{}

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	// Apply profile if specified or if there's an active profile
	targetProfile := ""
	if len(profileName) > 0 && profileName[0] != "" {
		targetProfile = profileName[0]
	} else if cfg.ActiveProfile != "" {
		targetProfile = cfg.ActiveProfile
	}

	if targetProfile != "" {
		profile, err := cfg.GetProfile(targetProfile)
		if err != nil {
			return nil, errors.NewWithSuggestion(errors.ExitCodeConfig, err.Error(),
				"Run 'clipctl config profiles list' to see the configured profiles")
		}
		applyProfileConfig(cfg, profile)
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyProfileConfig(cfg *Config, profile *Profile) {
	p := profile.Clipboard
	if p.Mode != "" {
		cfg.Clipboard.Mode = p.Mode
	}
	if p.Grammar != "" {
		cfg.Clipboard.Grammar = p.Grammar
	}
	if p.AttributePrefix != "" {
		cfg.Clipboard.AttributePrefix = p.AttributePrefix
	}
	if p.ActionName != "" {
		cfg.Clipboard.ActionName = p.ActionName
	}
	if p.EndEvent != "" {
		cfg.Clipboard.EndEvent = p.EndEvent
	}
	if p.DispatchTarget != "" {
		cfg.Clipboard.DispatchTarget = p.DispatchTarget
	}
	if p.ActionTimeout != 0 {
		cfg.Clipboard.ActionTimeout = p.ActionTimeout
	}
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - we'll use env vars and defaults
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides fills settings the file left empty from the
// environment. CLIPCTL_PROFILE always wins over the file's active profile.
func applyEnvironmentOverrides(cfg *Config) {
	c := &cfg.Clipboard
	if c.Mode == "" {
		c.Mode = getEnv("CLIPCTL_MODE", "")
	}
	if c.Grammar == "" {
		c.Grammar = getEnv("CLIPCTL_GRAMMAR", "")
	}
	if c.AttributePrefix == "" {
		c.AttributePrefix = getEnv("CLIPCTL_ATTRIBUTE_PREFIX", "")
	}
	if c.DispatchTarget == "" {
		c.DispatchTarget = getEnv("CLIPCTL_DISPATCH_TARGET", "")
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = getEnvDuration("CLIPCTL_ACTION_TIMEOUT", 0)
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = getEnv("CLIPCTL_JOURNAL_PATH", "")
	}
	if !cfg.Journal.Enabled {
		cfg.Journal.Enabled = getEnvBool("CLIPCTL_JOURNAL", false)
	}

	// Profile can be overridden via environment
	if profileEnv := os.Getenv("CLIPCTL_PROFILE"); profileEnv != "" {
		cfg.ActiveProfile = profileEnv
	}
}

func applyDefaults(cfg *Config) {
	c := &cfg.Clipboard
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Grammar == "" {
		c.Grammar = DefaultGrammar
	}
	if c.AttributePrefix == "" {
		c.AttributePrefix = DefaultAttributePrefix
	}
	if c.ActionName == "" {
		c.ActionName = DefaultActionName
	}
	if c.EndEvent == "" {
		c.EndEvent = DefaultEndEvent
	}
	if c.DispatchTarget == "" {
		c.DispatchTarget = DefaultDispatchTarget
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = DefaultActionTimeout
	}
	if cfg.Journal.Path == "" {
		if path, err := DefaultJournalPath(); err == nil {
			cfg.Journal.Path = path
		}
	}
}

// validateConfig rejects values the clipboard pipeline cannot run with
func validateConfig(cfg *Config) error {
	c := cfg.Clipboard
	if _, err := payload.ParseMode(c.Mode); err != nil {
		return errors.ConfigError(err.Error() + ". Set clipboard.mode in the config file or CLIPCTL_MODE")
	}
	variant, err := query.ParseVariant(c.Grammar)
	if err != nil {
		return errors.ConfigError(err.Error() + ". Set clipboard.grammar in the config file or CLIPCTL_GRAMMAR")
	}
	if _, err := clipboard.ParseDispatchTarget(c.DispatchTarget); err != nil {
		return errors.ConfigError(err.Error() + ". Set clipboard.dispatch_target in the config file or CLIPCTL_DISPATCH_TARGET")
	}
	grammar := query.Grammar{Prefix: c.AttributePrefix, Variant: variant}
	if err := dom.ValidSelector(grammar.Selector()); err != nil {
		return errors.ConfigError(fmt.Sprintf("attribute prefix %q does not form valid attribute names", c.AttributePrefix))
	}
	if c.ActionTimeout < 0 {
		return errors.ConfigError("action timeout must be positive")
	}
	return nil
}
