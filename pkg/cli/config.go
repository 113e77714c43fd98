package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configPathEnv overrides the location of the profile file.
const configPathEnv = "GCQ_CONFIG"

// UserConfig represents ~/.gcq/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile" json:"current_profile"`
	Profiles       map[string]Profile `yaml:"profiles" json:"profiles"`
}

// Profile holds per-profile defaults. Every field is optional; empty fields
// fall through to the environment and built-in defaults.
type Profile struct {
	Project         string `yaml:"project,omitempty" json:"project,omitempty"`
	CredentialsFile string `yaml:"credentials-file,omitempty" json:"credentials_file,omitempty"`
	Output          string `yaml:"output,omitempty" json:"output,omitempty"`
	LogLevel        string `yaml:"log-level,omitempty" json:"log_level,omitempty"`
}

func newUserConfig() *UserConfig {
	return &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
}

// ActiveProfile returns the profile named by override, or the current
// profile when override is empty. A missing current profile yields an empty
// Profile; a missing override is an error.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	if override == "" {
		return c.Profiles[c.CurrentProfile], nil
	}
	p, ok := c.Profiles[override]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found in %s", override, ConfigPath())
	}
	return p, nil
}

// ConfigPath returns $GCQ_CONFIG, or ~/.gcq/config.yaml.
func ConfigPath() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gcq", "config.yaml")
	}
	return filepath.Join(home, ".gcq", "config.yaml")
}

// LoadUserConfig reads the profile file.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := newUserConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", ConfigPath(), err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

// loadUserConfigOrEmpty treats a missing profile file as an empty one.
func loadUserConfigOrEmpty() (*UserConfig, error) {
	cfg, err := LoadUserConfig()
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(ConfigPath()); os.IsNotExist(statErr) {
		return newUserConfig(), nil
	}
	return nil, err
}

// SaveUserConfig writes the profile file, creating its directory.
func SaveUserConfig(cfg *UserConfig) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
