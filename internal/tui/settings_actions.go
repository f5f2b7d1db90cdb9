package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"correctme/internal/llm"
)

func (m *settingsModel) runAction(action int) tea.Cmd {
	switch action {
	case actAdd:
		m.openProviderModal()
	case actDel:
		m.deleteSelectedProfile()
	case actModels:
		return m.openModelsModal()
	case actTest:
		return m.testConnection()
	case actSave:
		return m.save()
	}
	return nil
}

func (m *settingsModel) openProviderModal() {
	m.modal = modalProvider
	m.modalCursor = 0
}

func (m *settingsModel) createProfileFromModal() {
	opt := providerOptions[m.modalCursor]
	_ = m.applyFieldsToProfile(m.currentProfileName())
	name := m.uniqueProfileName(slug(opt.name))
	m.cfg.Profiles[name] = profileTemplate(opt)
	m.refreshNames()
	m.selectByName(name)
	m.loadSelectedProfileFields()
	m.modal = modalNone
	m.dirty = true
	m.status = fmt.Sprintf("Created '%s'. Edit fields and Save.", name)
}

func (m *settingsModel) deleteSelectedProfile() {
	if len(m.profileNames) <= 1 {
		m.status = "Cannot delete the last profile."
		return
	}
	name := m.currentProfileName()
	delete(m.cfg.Profiles, name)
	m.refreshNames()
	if m.cfg.DefaultProfile == name {
		m.cfg.DefaultProfile = m.profileNames[0]
	}
	if m.selected >= len(m.profileNames) {
		m.selected = len(m.profileNames) - 1
	}
	m.loadSelectedProfileFields()
	m.dirty = true
	m.status = fmt.Sprintf("Deleted '%s'.", name)
}

func (m *settingsModel) save() tea.Cmd {
	oldName := m.currentProfileName()
	if err := m.applyFieldsToProfile(oldName); err != nil {
		m.status = "Error: " + err.Error()
		return nil
	}

	newName := strings.TrimSpace(m.fields[fieldName].value)
	if newName == "" {
		m.status = "Profile Name cannot be empty."
		return nil
	}
	if newName != oldName {
		if _, exists := m.cfg.Profiles[newName]; exists {
			m.status = "Profile name already exists."
			return nil
		}
		m.cfg.Profiles[newName] = m.cfg.Profiles[oldName]
		delete(m.cfg.Profiles, oldName)
		if m.cfg.DefaultProfile == oldName {
			m.cfg.DefaultProfile = newName
		}
	}
	m.cfg.UpsertModelHistory(m.cfg.Profiles[newName].Model)

	if err := m.opts.Save(m.cfg); err != nil {
		m.status = "Save failed: " + err.Error()
		return nil
	}

	m.refreshNames()
	m.selectByName(newName)
	m.loadSelectedProfileFields()
	m.dirty = false
	m.status = "Configuration saved successfully."
	cfg := m.cfg
	return func() tea.Msg { return settingsSavedMsg{cfg: cfg} }
}

func (m *settingsModel) applyFieldsToProfile(name string) error {
	if m.cfg.Profiles[name] == nil {
		return fmt.Errorf("profile not found")
	}
	p, err := m.profileFromFields()
	if err != nil {
		return err
	}
	m.cfg.Profiles[name] = p
	m.fields[fieldProvider].value = detectProviderType(p.BaseURL)
	return nil
}

func (m *settingsModel) testConnection() tea.Cmd {
	p, err := m.profileFromFields()
	if err != nil {
		m.status = "Error: " + err.Error()
		return nil
	}
	m.status = "Testing connection..."
	test := m.opts.Test
	return func() tea.Msg {
		return testResultMsg{result: test(context.Background(), p)}
	}
}

func (m *settingsModel) handleTestResult(msg testResultMsg) {
	r := msg.result
	if r.Success {
		m.status = fmt.Sprintf("✓ Test passed: %s (%dms)", r.Message, r.Latency.Milliseconds())
	} else {
		m.status = fmt.Sprintf("✗ Test failed: %s", r.Message)
	}
}

func (m *settingsModel) openModelsModal() tea.Cmd {
	baseURL := strings.TrimSpace(m.fields[fieldBaseURL].value)
	m.modal = modalModels
	m.modalCursor = 0
	m.modelsQuery = ""
	if m.modelsFor == baseURL && m.models != nil {
		return nil
	}
	m.models = nil
	m.modelsErr = nil
	m.modelsLoading = true
	m.modelsFor = baseURL
	list := m.opts.ListModels
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelListTimeout)
		defer cancel()
		models, err := list(ctx, baseURL)
		return modelsLoadedMsg{baseURL: baseURL, models: models, err: err}
	}
}

func (m *settingsModel) handleModelsLoaded(msg modelsLoadedMsg) {
	if msg.baseURL != m.modelsFor {
		return
	}
	m.modelsLoading = false
	m.modelsErr = msg.err
	m.models = msg.models
	if msg.err != nil {
		m.models = nil
		m.status = "Loading models failed: " + msg.err.Error()
	}
}

func (m *settingsModel) visibleModels() []llm.Model {
	return llm.FilterModels(m.models, m.modelsQuery)
}

func (m *settingsModel) pickModel(model llm.Model) {
	f := &m.fields[fieldModel]
	f.value = model.ID
	f.cursor = len([]rune(f.value))
	m.modal = modalNone
	m.dirty = true
	m.status = fmt.Sprintf("Model set to %s. Save to persist.", model.ID)
}

// setDefault marks the selected profile as the one the workbench uses.
func (m *settingsModel) setDefault() {
	if err := m.cfg.SetDefaultProfile(m.currentProfileName()); err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.dirty = true
	m.status = "Set '" + m.cfg.DefaultProfile + "' as default. Save to persist."
}
