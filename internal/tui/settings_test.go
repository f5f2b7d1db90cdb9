package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"correctme/internal/config"
	"correctme/internal/llm"
)

func testConfig() *config.RootConfig {
	return &config.RootConfig{
		Version:        1,
		DefaultProfile: "default",
		Profiles: map[string]*config.Profile{
			"default": {BaseURL: config.DefaultBaseURL, APIKey: "sk-or-123456789", Model: config.DefaultModel},
		},
		Preferences: config.Preferences{UILanguage: "en", Theme: "light"},
	}
}

type savedConfigs struct {
	calls []*config.RootConfig
	err   error
}

func (s *savedConfigs) save(cfg *config.RootConfig) error {
	s.calls = append(s.calls, cfg)
	return s.err
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func sendKeys(m tea.Model, keys ...tea.KeyMsg) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		_, last = m.Update(k)
	}
	return last
}

func TestSettings_SaveAppliesEditedFields(t *testing.T) {
	saved := &savedConfigs{}
	cfg := testConfig()
	m := newSettingsModel(cfg, SettingsOptions{Save: saved.save})

	m.focusArea = focusFields
	m.focusField = fieldRPM
	sendKeys(m, keyRunes("3"), keyRunes("0"))
	m.focusField = fieldTimeout
	sendKeys(m, keyRunes("4"), keyRunes("5"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("save did not report the saved config")
	}
	if _, ok := cmd().(settingsSavedMsg); !ok {
		t.Fatalf("unexpected message after save")
	}
	if len(saved.calls) != 1 {
		t.Fatalf("expected one save, got %d", len(saved.calls))
	}
	got := cfg.Profiles["default"]
	want := &config.Profile{
		BaseURL:           config.DefaultBaseURL,
		APIKey:            "sk-or-123456789",
		Model:             config.DefaultModel,
		RequestsPerMinute: 30,
		TimeoutSeconds:    45,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
	if m.dirty {
		t.Fatalf("dirty flag not cleared after save")
	}
	if cfg.History.LastModelInput != config.DefaultModel {
		t.Fatalf("model history not updated: %+v", cfg.History)
	}
}

func TestSettings_InvalidNumberBlocksSave(t *testing.T) {
	saved := &savedConfigs{}
	m := newSettingsModel(testConfig(), SettingsOptions{Save: saved.save})
	m.focusArea = focusFields
	m.focusField = fieldTimeout
	sendKeys(m, keyRunes("abc"))

	if cmd := m.save(); cmd != nil {
		t.Fatalf("save should fail")
	}
	if len(saved.calls) != 0 {
		t.Fatalf("config saved despite invalid field")
	}
	if !strings.Contains(m.status, "Timeout (s) must be a non-negative number") {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestSettings_RenameKeepsDefaultProfile(t *testing.T) {
	saved := &savedConfigs{}
	cfg := testConfig()
	m := newSettingsModel(cfg, SettingsOptions{Save: saved.save})
	m.fields[fieldName].value = "work"
	m.save()

	if cfg.DefaultProfile != "work" {
		t.Fatalf("default profile not renamed: %q", cfg.DefaultProfile)
	}
	if _, ok := cfg.Profiles["default"]; ok {
		t.Fatalf("old profile name still present")
	}
	if diff := cmp.Diff([]string{"work"}, m.profileNames); diff != "" {
		t.Fatalf("profile names mismatch (-want +got):\n%s", diff)
	}
}

func TestSettings_AddProfileFromProviderModal(t *testing.T) {
	cfg := testConfig()
	m := newSettingsModel(cfg, SettingsOptions{Save: (&savedConfigs{}).save})
	m.runAction(actAdd)
	if m.modal != modalProvider {
		t.Fatalf("provider modal not open")
	}
	sendKeys(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	p := cfg.Profiles["ollama-local"]
	if p == nil {
		t.Fatalf("profile not created: %v", m.profileNames)
	}
	if p.BaseURL != "http://localhost:11434/v1" {
		t.Fatalf("unexpected base url: %q", p.BaseURL)
	}
	if m.currentProfileName() != "ollama-local" || m.fields[fieldProvider].value != "Ollama" {
		t.Fatalf("new profile not selected: %q %q", m.currentProfileName(), m.fields[fieldProvider].value)
	}
	if !m.dirty {
		t.Fatalf("new profile should mark the dashboard dirty")
	}
}

func TestSettings_CannotDeleteLastProfile(t *testing.T) {
	m := newSettingsModel(testConfig(), SettingsOptions{})
	m.runAction(actDel)
	if m.status != "Cannot delete the last profile." {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestSettings_ModelPickerFiltersAndPicks(t *testing.T) {
	var requested string
	list := func(_ context.Context, baseURL string) ([]llm.Model, error) {
		requested = baseURL
		return []llm.Model{
			{ID: "openai/gpt-4o", Name: "OpenAI: GPT-4o"},
			{ID: "deepseek/deepseek-chat-v3-0324:free", Name: "DeepSeek: DeepSeek V3 (free)"},
			{ID: "mistralai/mistral-7b-instruct:free", Name: "Mistral: Mistral 7B Instruct (free)"},
		}, nil
	}
	m := newSettingsModel(testConfig(), SettingsOptions{ListModels: list})

	cmd := m.runAction(actModels)
	if cmd == nil || !m.modelsLoading {
		t.Fatalf("model listing not started")
	}
	m.Update(cmd())
	if requested != config.DefaultBaseURL {
		t.Fatalf("listed models from %q", requested)
	}

	sendKeys(m, keyRunes("mistral"), keyRunes(" free"))
	visible := m.visibleModels()
	if len(visible) != 1 || visible[0].ID != "mistralai/mistral-7b-instruct:free" {
		t.Fatalf("unexpected filter result: %+v", visible)
	}
	sendKeys(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.modal != modalNone {
		t.Fatalf("modal still open after pick")
	}
	if got := m.fields[fieldModel].value; got != "mistralai/mistral-7b-instruct:free" {
		t.Fatalf("model field not updated: %q", got)
	}

	if cmd := m.runAction(actModels); cmd != nil {
		t.Fatalf("listing for the same base url should be cached")
	}
}

func TestSettings_ModelListingError(t *testing.T) {
	list := func(context.Context, string) ([]llm.Model, error) {
		return nil, errors.New("boom")
	}
	m := newSettingsModel(testConfig(), SettingsOptions{ListModels: list})
	m.Update(m.runAction(actModels)())
	if m.modelsErr == nil || !strings.Contains(m.status, "boom") {
		t.Fatalf("listing error not surfaced: %q", m.status)
	}
}

func TestSettings_TestConnectionUsesEditedProfile(t *testing.T) {
	var probed *config.Profile
	test := func(_ context.Context, p *config.Profile) TestResult {
		probed = p
		return TestResult{Success: true, Message: "OK (model: x)", Latency: 42 * time.Millisecond}
	}
	m := newSettingsModel(testConfig(), SettingsOptions{Test: test})
	m.fields[fieldAPIKey].value = "sk-edited"

	cmd := m.runAction(actTest)
	m.Update(cmd())

	if probed == nil || probed.APIKey != "sk-edited" {
		t.Fatalf("test did not use edited fields: %+v", probed)
	}
	if m.status != "✓ Test passed: OK (model: x) (42ms)" {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestSettings_EscClosesEmbeddedDashboard(t *testing.T) {
	m := newSettingsModel(testConfig(), SettingsOptions{Embedded: true})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("esc returned no command")
	}
	if _, ok := cmd().(settingsClosedMsg); !ok {
		t.Fatalf("embedded dashboard should report closing")
	}
}

func TestSettings_ViewMasksAPIKey(t *testing.T) {
	m := newSettingsModel(testConfig(), SettingsOptions{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	if strings.Contains(view, "sk-or-123456789") {
		t.Fatalf("api key rendered in clear text")
	}
	if !strings.Contains(view, "sk-o*******6789") {
		t.Fatalf("masked api key missing from view")
	}
}

func TestDetectProviderType(t *testing.T) {
	cases := map[string]string{
		"":                              "OpenRouter",
		"https://openrouter.ai/api/v1":  "OpenRouter",
		"http://localhost:11434/v1":     "Ollama",
		"https://api.openai.com/v1":     "OpenAI",
		"https://llm.internal.example/": "OpenAI Compatible",
	}
	for in, want := range cases {
		if got := detectProviderType(in); got != want {
			t.Fatalf("detectProviderType(%q) = %q, want %q", in, got, want)
		}
	}
}
