package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// legacySettings is the flat key/value file earlier releases kept next to
// the config, one entry per stored setting.
type legacySettings map[string]string

const (
	legacyKeyAPIKey = "correctme_apikey"
	legacyKeyModel  = "correctme_selected_model"
	legacyKeyLang   = "correctme_lang"
	legacyKeyTheme  = "correctme_theme"
)

func legacySettingsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

func tryMigrateLegacySettings(cfg *RootConfig) (bool, error) {
	path, err := legacySettingsPath()
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var old legacySettings
	if err := json.Unmarshal(data, &old); err != nil {
		return false, nil
	}
	if len(old) == 0 {
		return false, nil
	}
	def := cfg.Active()
	changed := false
	if v := strings.TrimSpace(old[legacyKeyAPIKey]); v != "" {
		def.APIKey = v
		changed = true
	}
	if v := strings.TrimSpace(old[legacyKeyModel]); v != "" {
		def.Model = v
		cfg.UpsertModelHistory(v)
		changed = true
	}
	if v := strings.TrimSpace(old[legacyKeyLang]); v != "" {
		cfg.Preferences.UILanguage = v
		changed = true
	}
	if v := strings.TrimSpace(old[legacyKeyTheme]); v == "dark" || v == "light" {
		cfg.Preferences.Theme = v
		changed = true
	}
	return changed, nil
}
