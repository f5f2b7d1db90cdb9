package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"correctme/internal/config"
	"correctme/internal/diff"
	"correctme/internal/i18n"
	"correctme/internal/workflow"
)

const (
	tabCorrect = iota
	tabTranslate
)

const (
	inputHeight    = 6
	minPaneHeight  = 3
	defaultWidth   = 100
	defaultHeight  = 36
	inputCharLimit = 20000
)

// WorkbenchOptions wires the interactive workbench.
type WorkbenchOptions struct {
	Session   *workflow.Session
	Transport workflow.Transport
	Store     *config.Store

	// ConfigPath is watched for external edits when set.
	ConfigPath string
	// OnConfig applies a saved or reloaded config to Session and Transport.
	OnConfig func(*config.RootConfig)

	Settings SettingsOptions
	Logger   *slog.Logger
}

// Messages posted by the running workflow through teaView.
type (
	statusMsg struct {
		text    string
		isError bool
	}
	outputResetMsg  struct{}
	outputAppendMsg struct{ fragment string }
	outputSetMsg    struct{ text string }
	diffMsg         struct{ markup string }
	openSettingsMsg struct{}
	workflowDoneMsg struct{ err error }

	configChangedMsg struct {
		cfg *config.RootConfig
		err error
	}
)

// teaView forwards workflow progress into the program's message loop.
type teaView struct {
	send func(tea.Msg)
}

func (v teaView) post(msg tea.Msg) {
	if v.send != nil {
		v.send(msg)
	}
}

func (v teaView) SetStatus(message string, isError bool) { v.post(statusMsg{message, isError}) }
func (v teaView) ResetOutput()                          { v.post(outputResetMsg{}) }
func (v teaView) AppendOutput(fragment string)          { v.post(outputAppendMsg{fragment}) }
func (v teaView) SetOutput(text string)                 { v.post(outputSetMsg{text}) }
func (v teaView) SetDiff(markup string)                 { v.post(diffMsg{markup}) }
func (v teaView) OpenSettings()                         { v.post(openSettingsMsg{}) }

type workbenchModel struct {
	ctx    context.Context
	opts   WorkbenchOptions
	send   func(tea.Msg)
	logger *slog.Logger

	loc   *i18n.Catalog
	theme string
	style styles

	tab      int
	input    textarea.Model
	output   viewport.Model
	diffView viewport.Model
	spinner  spinner.Model

	outputText *strings.Builder
	diffText   string

	status    string
	statusErr bool
	running   bool

	target     int
	picking    bool
	pickCursor int

	settings *settingsModel

	width  int
	height int
}

// RunWorkbench runs the correction and translation workbench until the user
// quits or ctx is done.
func RunWorkbench(ctx context.Context, opts WorkbenchOptions) error {
	m := newWorkbenchModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	m.send = p.Send

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.ConfigPath != "" {
		err := config.Watch(watchCtx, opts.ConfigPath, func(cfg *config.RootConfig, err error) {
			p.Send(configChangedMsg{cfg: cfg, err: err})
		})
		if err != nil {
			m.logger.Warn("config watch disabled", "path", opts.ConfigPath, "error", err)
		}
	}

	_, err := p.Run()
	return err
}

func newWorkbenchModel(ctx context.Context, opts WorkbenchOptions) *workbenchModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textarea.New()
	input.ShowLineNumbers = false
	input.CharLimit = inputCharLimit
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &workbenchModel{
		ctx:        ctx,
		opts:       opts,
		logger:     logger,
		input:      input,
		output:     viewport.New(defaultWidth, minPaneHeight),
		diffView:   viewport.New(defaultWidth, minPaneHeight),
		spinner:    sp,
		outputText: &strings.Builder{},
		target:     targetIndex(workflow.DefaultTarget()),
		width:      defaultWidth,
		height:     defaultHeight,
	}
	m.applyConfig(opts.Store.Config(), false)
	m.status = m.loc.Get("statusReady")
	m.layout()
	return m
}

func targetIndex(t workflow.TranslationTarget) int {
	for i, c := range workflow.TranslationTargets {
		if c.APIName == t.APIName {
			return i
		}
	}
	return 0
}

// applyConfig refreshes locale, theme and target from cfg. notify also hands
// cfg to OnConfig so the session follows the new profile.
func (m *workbenchModel) applyConfig(cfg *config.RootConfig, notify bool) {
	m.loc = i18n.MustLoad(cfg.Preferences.UILanguage)
	m.theme = cfg.Preferences.Theme
	m.style = newStyles(PaletteFor(m.theme))
	if t, ok := workflow.FindTarget(cfg.Preferences.TargetLanguage, m.loc); ok {
		m.target = targetIndex(t)
	}
	m.updatePlaceholder()
	if notify && m.opts.OnConfig != nil {
		m.opts.OnConfig(cfg)
	}
}

func (m *workbenchModel) updatePlaceholder() {
	if m.tab == tabTranslate {
		m.input.Placeholder = m.loc.Get("translatePlaceholder")
	} else {
		m.input.Placeholder = m.loc.Get("inputPlaceholder")
	}
}

func (m *workbenchModel) orchestrator() *workflow.Orchestrator {
	return workflow.New(m.opts.Session, m.opts.Transport,
		workflow.WithDiffer(diff.NewANSI(m.theme == "dark")),
		workflow.WithLogger(m.logger),
	)
}

func (m *workbenchModel) Init() tea.Cmd { return textarea.Blink }

func (m *workbenchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.settings != nil {
			m.settings.Update(msg)
		}
		return m, nil

	case statusMsg:
		m.status, m.statusErr = msg.text, msg.isError
		return m, nil
	case outputResetMsg:
		m.outputText.Reset()
		m.output.SetContent("")
		return m, nil
	case outputAppendMsg:
		m.outputText.WriteString(msg.fragment)
		m.output.SetContent(m.outputText.String())
		m.output.GotoBottom()
		return m, nil
	case outputSetMsg:
		m.outputText.Reset()
		m.outputText.WriteString(msg.text)
		m.output.SetContent(msg.text)
		m.output.GotoTop()
		return m, nil
	case diffMsg:
		m.diffText = msg.markup
		m.diffView.SetContent(msg.markup)
		m.diffView.GotoTop()
		return m, nil
	case workflowDoneMsg:
		m.running = false
		return m, nil
	case openSettingsMsg:
		return m, m.openSettings()

	case configChangedMsg:
		if msg.err != nil {
			m.logger.Warn("config reload failed", "error", msg.err)
			return m, nil
		}
		m.opts.Store.Replace(msg.cfg)
		m.applyConfig(msg.cfg, true)
		return m, nil

	case settingsSavedMsg:
		m.opts.Store.Replace(msg.cfg)
		m.applyConfig(msg.cfg, true)
		return m, nil
	case settingsClosedMsg:
		m.settings = nil
		return m, textarea.Blink

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.settings != nil {
		_, cmd := m.settings.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		if m.picking {
			return m, m.handlePickerKey(k)
		}
		if cmd, handled := m.handleKey(k); handled {
			return m, cmd
		}
	}
	if mouse, ok := msg.(tea.MouseMsg); ok {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(mouse)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *workbenchModel) handleKey(k tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(k, workbenchKeys.Quit):
		return tea.Quit, true
	case key.Matches(k, workbenchKeys.Run):
		return m.run(), true
	case key.Matches(k, workbenchKeys.Tab):
		m.tab = (m.tab + 1) % 2
		m.updatePlaceholder()
		m.layout()
		return nil, true
	case key.Matches(k, workbenchKeys.Target):
		m.picking = true
		m.pickCursor = m.target
		return nil, true
	case key.Matches(k, workbenchKeys.Settings):
		return m.openSettings(), true
	case key.Matches(k, workbenchKeys.Theme):
		m.toggleTheme()
		return nil, true
	case key.Matches(k, workbenchKeys.Scroll):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(k)
		return cmd, true
	}
	return nil, false
}

func (m *workbenchModel) handlePickerKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case k.String() == "esc":
		m.picking = false
	case key.Matches(k, workbenchKeys.Up):
		m.pickCursor = clampInt(m.pickCursor-1, 0, len(workflow.TranslationTargets)-1)
	case key.Matches(k, workbenchKeys.Down):
		m.pickCursor = clampInt(m.pickCursor+1, 0, len(workflow.TranslationTargets)-1)
	case k.String() == "enter":
		m.picking = false
		m.target = m.pickCursor
		t := workflow.TranslationTargets[m.target]
		if err := m.opts.Store.Set(config.KeyTargetLanguage, t.APIName); err != nil {
			m.logger.Warn("remember target language failed", "error", err)
		}
	case k.String() == "ctrl+c":
		return tea.Quit
	}
	return nil
}

func (m *workbenchModel) toggleTheme() {
	next := "dark"
	if m.theme == "dark" {
		next = "light"
	}
	m.theme = next
	m.style = newStyles(PaletteFor(next))
	if err := m.opts.Store.Set(config.KeyTheme, next); err != nil {
		m.status, m.statusErr = err.Error(), true
	}
}

func (m *workbenchModel) openSettings() tea.Cmd {
	opts := m.opts.Settings
	opts.Theme = m.theme
	opts.Embedded = true
	m.picking = false
	m.settings = newSettingsModel(m.opts.Store.Config(), opts)
	m.settings.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	return nil
}

// run starts the workflow of the current tab. Starting while another run
// holds the session gate only reports that the session is busy.
func (m *workbenchModel) run() tea.Cmd {
	if m.opts.Session.Busy() {
		m.status, m.statusErr = m.loc.Get("statusBusy"), false
		return nil
	}
	input := m.input.Value()
	tab := m.tab
	target := workflow.TranslationTargets[m.target]
	orch := m.orchestrator()
	view := teaView{send: m.send}
	ctx := m.ctx

	m.running = true
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		var err error
		if tab == tabTranslate {
			_, err = orch.Translate(ctx, view, input, target)
		} else {
			_, err = orch.Correct(ctx, view, input)
		}
		return workflowDoneMsg{err: err}
	})
}
