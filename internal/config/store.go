package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Keys understood by Store.
const (
	KeyAPIKey            = "apikey"
	KeySelectedModel     = "selected_model"
	KeyLang              = "lang"
	KeyTheme             = "theme"
	KeyTargetLanguage    = "target_language"
	KeyBaseURL           = "base_url"
	KeyRequestsPerMinute = "requests_per_minute"
	KeyTimeoutSeconds    = "timeout_seconds"
)

var ErrUnknownKey = errors.New("unknown setting")

type field struct {
	get func(*RootConfig) string
	set func(*RootConfig, string) error
}

var fields = map[string]field{
	KeyAPIKey: {
		get: func(c *RootConfig) string { return c.Active().APIKey },
		set: func(c *RootConfig, v string) error { c.Active().APIKey = v; return nil },
	},
	KeySelectedModel: {
		get: func(c *RootConfig) string { return c.Active().Model },
		set: func(c *RootConfig, v string) error {
			c.Active().Model = v
			c.UpsertModelHistory(v)
			return nil
		},
	},
	KeyLang: {
		get: func(c *RootConfig) string { return c.Preferences.UILanguage },
		set: func(c *RootConfig, v string) error { c.Preferences.UILanguage = v; return nil },
	},
	KeyTheme: {
		get: func(c *RootConfig) string { return c.Preferences.Theme },
		set: func(c *RootConfig, v string) error {
			if v != "" && v != "light" && v != "dark" {
				return fmt.Errorf("theme must be light or dark, got %q", v)
			}
			c.Preferences.Theme = v
			return nil
		},
	},
	KeyTargetLanguage: {
		get: func(c *RootConfig) string { return c.Preferences.TargetLanguage },
		set: func(c *RootConfig, v string) error { c.Preferences.TargetLanguage = v; return nil },
	},
	KeyBaseURL: {
		get: func(c *RootConfig) string { return c.Active().BaseURL },
		set: func(c *RootConfig, v string) error { c.Active().BaseURL = v; return nil },
	},
	KeyRequestsPerMinute: {
		get: func(c *RootConfig) string { return intString(c.Active().RequestsPerMinute) },
		set: func(c *RootConfig, v string) error {
			n, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			c.Active().RequestsPerMinute = n
			return nil
		},
	},
	KeyTimeoutSeconds: {
		get: func(c *RootConfig) string { return intString(c.Active().TimeoutSeconds) },
		set: func(c *RootConfig, v string) error {
			n, err := parseNonNegative(v)
			if err != nil {
				return err
			}
			c.Active().TimeoutSeconds = n
			return nil
		},
	},
}

func intString(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseNonNegative(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected a non-negative integer, got %q", v)
	}
	return n, nil
}

// Keys lists the setting names, sorted.
func Keys() []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Store is a key/value view over the config. Every mutation is saved.
type Store struct {
	mu   sync.Mutex
	cfg  *RootConfig
	save func(*RootConfig) error
}

func NewStore(cfg *RootConfig) *Store {
	normalize(cfg)
	return &Store{cfg: cfg, save: Save}
}

// OpenStore loads the config file into a Store.
func OpenStore() (*Store, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return NewStore(cfg), nil
}

// Config returns the underlying config. Callers that mutate it directly must
// call Save themselves.
func (s *Store) Config() *RootConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Replace swaps the underlying config, e.g. after the file changed on disk.
func (s *Store) Replace(cfg *RootConfig) {
	normalize(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Get returns the value of key; ok is false when it is unset.
func (s *Store) Get(key string) (string, bool, error) {
	f, ok := fields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := f.get(s.cfg)
	return v, v != "", nil
}

func (s *Store) Set(key, value string) error {
	f, ok := fields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := f.set(s.cfg, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return s.save(s.cfg)
}

func (s *Store) Remove(key string) error {
	return s.Set(key, "")
}
