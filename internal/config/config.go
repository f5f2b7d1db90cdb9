package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const currentVersion = 1

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "deepseek/deepseek-chat-v3-0324:free"
	DefaultTheme   = "light"
)

type Profile struct {
	BaseURL           string   `json:"base_url"`
	APIKey            string   `json:"api_key"`
	Model             string   `json:"model,omitempty"`
	Models            []string `json:"models,omitempty"`
	RequestsPerMinute int      `json:"requests_per_minute,omitempty"`
	TimeoutSeconds    int      `json:"timeout_seconds,omitempty"`
}

// Timeout returns the per-request timeout, zero when unset.
func (p *Profile) Timeout() time.Duration {
	if p == nil || p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type Preferences struct {
	UILanguage     string `json:"ui_language,omitempty"`
	Theme          string `json:"theme,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

type History struct {
	LastModelInput string   `json:"last_model_input,omitempty"`
	ModelInputs    []string `json:"model_inputs,omitempty"`
}

type RootConfig struct {
	Version        int                 `json:"version"`
	DefaultProfile string              `json:"default_profile"`
	Profiles       map[string]*Profile `json:"profiles"`
	Preferences    Preferences         `json:"preferences"`
	History        History             `json:"history,omitempty"`
}

func defaultProfile() *Profile {
	return &Profile{BaseURL: DefaultBaseURL, Model: DefaultModel}
}

func defaultConfig() *RootConfig {
	return &RootConfig{
		Version:        currentVersion,
		DefaultProfile: "default",
		Profiles: map[string]*Profile{
			"default": defaultProfile(),
		},
		Preferences: Preferences{UILanguage: "en", Theme: DefaultTheme},
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".correctme"), nil
}

func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func Load() (*RootConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = defaultConfig()
		if migrated, merr := tryMigrateLegacySettings(cfg); merr == nil && migrated {
			_ = Save(cfg)
		}
	}
	return cfg, nil
}

// LoadFile reads the config at path. A missing file yields (nil, nil).
func LoadFile(path string) (*RootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg RootConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	normalize(&cfg)
	return &cfg, nil
}

func normalize(cfg *RootConfig) {
	if cfg.Version == 0 {
		cfg.Version = currentVersion
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = "default"
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]*Profile{}
	}
	if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
		cfg.Profiles[cfg.DefaultProfile] = defaultProfile()
	}
	for name, p := range cfg.Profiles {
		if p == nil {
			delete(cfg.Profiles, name)
			continue
		}
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.Model = strings.TrimSpace(p.Model)
		if p.RequestsPerMinute < 0 {
			p.RequestsPerMinute = 0
		}
		if p.TimeoutSeconds < 0 {
			p.TimeoutSeconds = 0
		}
	}
	if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
		cfg.Profiles[cfg.DefaultProfile] = defaultProfile()
	}
	if cfg.Preferences.UILanguage == "" {
		cfg.Preferences.UILanguage = "en"
	}
	if cfg.Preferences.Theme != "dark" {
		cfg.Preferences.Theme = DefaultTheme
	}
}

func Save(cfg *RootConfig) error {
	normalize(cfg)
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeWithBackup(path, data)
}

func (c *RootConfig) ProfileByName(name string) (*Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	p := c.Profiles[name]
	if p == nil {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return p, nil
}

// Active returns the default profile, creating it when missing.
func (c *RootConfig) Active() *Profile {
	if c.Profiles == nil {
		c.Profiles = map[string]*Profile{}
	}
	p := c.Profiles[c.DefaultProfile]
	if p == nil {
		p = defaultProfile()
		c.Profiles[c.DefaultProfile] = p
	}
	return p
}

func (c *RootConfig) UpsertModelHistory(model string) {
	model = strings.TrimSpace(model)
	if model == "" {
		return
	}
	c.History.LastModelInput = model
	out := []string{model}
	for _, m := range c.History.ModelInputs {
		if m != model {
			out = append(out, m)
		}
		if len(out) >= 20 {
			break
		}
	}
	c.History.ModelInputs = out
}

func (c *RootConfig) SetDefaultProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return errors.New("profile does not exist")
	}
	c.DefaultProfile = name
	return nil
}
