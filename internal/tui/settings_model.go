package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"correctme/internal/config"
	"correctme/internal/llm"
)

const (
	focusProfiles = iota
	focusFields
	focusActions
)

const (
	actAdd = iota
	actDel
	actModels
	actTest
	actSave
)

// Field rows of the right pane, in render order.
const (
	fieldName = iota
	fieldProvider
	fieldBaseURL
	fieldAPIKey
	fieldModel
	fieldRPM
	fieldTimeout
)

const (
	modalNone = iota
	modalProvider
	modalModels
)

const modelListTimeout = 20 * time.Second

type settingsField struct {
	label    string
	value    string
	cursor   int
	masked   bool
	readOnly bool
}

type providerOption struct {
	name    string
	baseURL string
}

var providerOptions = []providerOption{
	{name: "OpenRouter", baseURL: config.DefaultBaseURL},
	{name: "OpenAI", baseURL: "https://api.openai.com/v1"},
	{name: "Ollama (Local)", baseURL: "http://localhost:11434/v1"},
	{name: "OpenAI Compatible", baseURL: ""},
}

// ModelLister fetches the models offered at baseURL.
type ModelLister func(ctx context.Context, baseURL string) ([]llm.Model, error)

// ConnectionTester probes a profile.
type ConnectionTester func(ctx context.Context, p *config.Profile) TestResult

// SettingsOptions configures the settings dashboard.
type SettingsOptions struct {
	Theme      string
	ListModels ModelLister
	Test       ConnectionTester
	Save       func(*config.RootConfig) error

	// Embedded dashboards report esc with settingsClosedMsg instead of
	// quitting the program.
	Embedded bool
}

func defaultListModels(ctx context.Context, baseURL string) ([]llm.Model, error) {
	return llm.NewClient(baseURL, llm.WithTimeout(modelListTimeout)).ListModels(ctx)
}

type (
	testResultMsg struct {
		result TestResult
	}
	modelsLoadedMsg struct {
		baseURL string
		models  []llm.Model
		err     error
	}
	settingsSavedMsg struct {
		cfg *config.RootConfig
	}
	settingsClosedMsg struct{}
)

type settingsModel struct {
	cfg   *config.RootConfig
	opts  SettingsOptions
	style styles

	width  int
	height int

	profileNames []string
	selected     int

	fields      []settingsField
	focusArea   int
	focusField  int
	actionIndex int

	status string
	dirty  bool

	modal       int
	modalCursor int

	models        []llm.Model
	modelsFor     string
	modelsQuery   string
	modelsLoading bool
	modelsErr     error

	leftContentX     int
	leftContentY     int
	rightContentX    int
	rightContentY    int
	leftButtonsRelY  int
	rightButtonsRelY int
	leftButtonSpans  [][2]int
	rightButtonSpans [][2]int
	fieldStartRelY   []int
	fieldEndRelY     []int
	modalX           int
	modalY           int
	modalW           int
	modalH           int
	modalOptionsRelY int
}

// ManageSettingsDashboard runs the full-screen profile and model editor.
func ManageSettingsDashboard(cfg *config.RootConfig, opts SettingsOptions) error {
	m := newSettingsModel(cfg, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func newSettingsModel(cfg *config.RootConfig, opts SettingsOptions) *settingsModel {
	if opts.ListModels == nil {
		opts.ListModels = defaultListModels
	}
	if opts.Test == nil {
		opts.Test = TestConnection
	}
	if opts.Save == nil {
		opts.Save = config.Save
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]*config.Profile{}
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = "default"
	}
	if cfg.Profiles[cfg.DefaultProfile] == nil {
		cfg.Active()
	}
	m := &settingsModel{
		cfg:         cfg,
		opts:        opts,
		style:       newStyles(PaletteFor(opts.Theme)),
		focusArea:   focusProfiles,
		actionIndex: actSave,
		status:      "Ready. Press [Tab] to navigate, [Enter] to select.",
	}
	m.refreshNames()
	m.selectByName(cfg.DefaultProfile)
	m.loadSelectedProfileFields()
	return m
}

func (m *settingsModel) Init() tea.Cmd { return nil }

func (m *settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case testResultMsg:
		m.handleTestResult(msg)
		return m, nil

	case modelsLoadedMsg:
		m.handleModelsLoaded(msg)
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if m.modal != modalNone {
			return m, m.handleModalMouse(msg)
		}
		return m, m.handleMainMouse(msg)

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m, m.handleModalKey(msg)
		}
		if cmd, handled := m.handleMainKey(msg); handled {
			return m, cmd
		}
		m.handleFieldEdit(msg)
		return m, nil
	}
	return m, nil
}

func (m *settingsModel) close() tea.Cmd {
	if m.opts.Embedded {
		return func() tea.Msg { return settingsClosedMsg{} }
	}
	return tea.Quit
}
