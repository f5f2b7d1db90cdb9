package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"correctme/internal/config"
)

func (m *settingsModel) switchProfile(next int) {
	if next < 0 || next >= len(m.profileNames) {
		return
	}
	// Keep unsaved edits when moving between profiles.
	_ = m.applyFieldsToProfile(m.currentProfileName())
	m.selected = next
	m.loadSelectedProfileFields()
}

func (m *settingsModel) refreshNames() {
	m.profileNames = m.profileNames[:0]
	for name := range m.cfg.Profiles {
		m.profileNames = append(m.profileNames, name)
	}
	sort.Strings(m.profileNames)
	if len(m.profileNames) == 0 {
		m.cfg.Profiles["default"] = &config.Profile{BaseURL: config.DefaultBaseURL, Model: config.DefaultModel}
		m.profileNames = append(m.profileNames, "default")
	}
}

func (m *settingsModel) selectByName(name string) {
	for i, n := range m.profileNames {
		if n == name {
			m.selected = i
			return
		}
	}
	m.selected = 0
}

func (m *settingsModel) currentProfileName() string {
	if len(m.profileNames) == 0 {
		return ""
	}
	if m.selected >= len(m.profileNames) {
		m.selected = len(m.profileNames) - 1
	}
	return m.profileNames[m.selected]
}

func (m *settingsModel) loadSelectedProfileFields() {
	name := m.currentProfileName()
	p := m.cfg.Profiles[name]
	if p == nil {
		p = &config.Profile{BaseURL: config.DefaultBaseURL}
		m.cfg.Profiles[name] = p
	}
	m.fields = []settingsField{
		fieldName:     {label: "Profile Name", value: name},
		fieldProvider: {label: "Provider", value: detectProviderType(p.BaseURL), readOnly: true},
		fieldBaseURL:  {label: "Base URL", value: p.BaseURL},
		fieldAPIKey:   {label: "API Key", value: p.APIKey, masked: true},
		fieldModel:    {label: "Model", value: p.Model},
		fieldRPM:      {label: "Requests/min", value: itoaOrEmpty(p.RequestsPerMinute)},
		fieldTimeout:  {label: "Timeout (s)", value: itoaOrEmpty(p.TimeoutSeconds)},
	}
	for i := range m.fields {
		m.fields[i].cursor = len([]rune(m.fields[i].value))
	}
	if m.focusField >= len(m.fields) {
		m.focusField = len(m.fields) - 1
	}
}

func detectProviderType(baseURL string) string {
	base := strings.ToLower(strings.TrimSpace(baseURL))
	switch {
	case base == "" || strings.Contains(base, "openrouter.ai"):
		return "OpenRouter"
	case strings.Contains(base, "localhost:11434") || strings.Contains(base, "127.0.0.1:11434"):
		return "Ollama"
	case strings.Contains(base, "api.openai.com"):
		return "OpenAI"
	default:
		return "OpenAI Compatible"
	}
}

func profileTemplate(opt providerOption) *config.Profile {
	p := &config.Profile{BaseURL: opt.baseURL}
	if opt.baseURL == config.DefaultBaseURL {
		p.Model = config.DefaultModel
	}
	return p
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(" ", "-", "(", "", ")", "", "/", "-", "_", "-")
	s = strings.Trim(replacer.Replace(s), "-")
	if s == "" {
		s = "profile"
	}
	return s
}

func (m *settingsModel) uniqueProfileName(base string) string {
	if _, ok := m.cfg.Profiles[base]; !ok {
		return base
	}
	for i := 2; i < 1000; i++ {
		name := fmt.Sprintf("%s-%d", base, i)
		if _, ok := m.cfg.Profiles[name]; !ok {
			return name
		}
	}
	return fmt.Sprintf("%s-%d", base, len(m.cfg.Profiles)+1)
}

// profileFromFields builds a detached profile from the edited fields.
func (m *settingsModel) profileFromFields() (*config.Profile, error) {
	rpm, err := parseCount(m.fields[fieldRPM])
	if err != nil {
		return nil, err
	}
	timeout, err := parseCount(m.fields[fieldTimeout])
	if err != nil {
		return nil, err
	}
	p := &config.Profile{
		BaseURL:           strings.TrimRight(strings.TrimSpace(m.fields[fieldBaseURL].value), "/"),
		APIKey:            strings.TrimSpace(m.fields[fieldAPIKey].value),
		Model:             strings.TrimSpace(m.fields[fieldModel].value),
		RequestsPerMinute: rpm,
		TimeoutSeconds:    timeout,
	}
	if cur := m.cfg.Profiles[m.currentProfileName()]; cur != nil {
		p.Models = cur.Models
	}
	return p, nil
}

func parseCount(f settingsField) (int, error) {
	v := strings.TrimSpace(f.value)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", f.label)
	}
	return n, nil
}

func itoaOrEmpty(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// MaskSecret hides all but the first and last four runes of s.
func MaskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-8) + string(r[len(r)-4:])
}
