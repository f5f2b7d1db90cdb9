package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"correctme/internal/config"
	"correctme/internal/llm"
	"correctme/internal/workflow"
)

type scriptedTransport struct {
	reply  string
	stream string
}

func (s *scriptedTransport) Complete(context.Context, llm.CompletionRequest, string) (string, error) {
	if s.reply == "" {
		return "", errors.New("unexpected Complete call")
	}
	return s.reply, nil
}

func (s *scriptedTransport) Stream(context.Context, llm.CompletionRequest, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.stream)), nil
}

// execute runs cmd and every command batched inside it, synchronously.
func execute(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, execute(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func newTestWorkbench(t *testing.T, settings workflow.Settings, transport workflow.Transport) (*workbenchModel, *[]tea.Msg) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var posted []tea.Msg
	m := newWorkbenchModel(context.Background(), WorkbenchOptions{
		Session:   workflow.NewSession(settings),
		Transport: transport,
		Store:     config.NewStore(testConfig()),
	})
	m.send = func(msg tea.Msg) { posted = append(posted, msg) }
	return m, &posted
}

func drain(m *workbenchModel, msgs []tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestWorkbench_CorrectionStreamsIntoOutput(t *testing.T) {
	transport := &scriptedTransport{
		reply: `{"englishName":"English","uiName":"English"}`,
		stream: "data: {\"choices\":[{\"delta\":{\"content\":\"This is \"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"a test\"}}]}\n\n" +
			"data: [DONE]\n\n",
	}
	m, posted := newTestWorkbench(t, workflow.Settings{Credential: "k", Model: "m", UILanguage: "en"}, transport)
	m.input.SetValue("These is a test")

	done := execute(m.run())
	if !m.running {
		t.Fatalf("workbench not marked running")
	}
	drain(m, *posted)
	drain(m, done)

	if got := m.outputText.String(); got != "This is a test" {
		t.Fatalf("output mismatch: %q", got)
	}
	if m.diffText == "" || !strings.Contains(m.diffText, "This") {
		t.Fatalf("diff not rendered: %q", m.diffText)
	}
	if m.status != "Correction complete." || m.statusErr {
		t.Fatalf("unexpected status: %q (error=%v)", m.status, m.statusErr)
	}
	if m.running {
		t.Fatalf("workbench still running after workflowDoneMsg")
	}
}

func TestWorkbench_TranslateUsesSelectedTarget(t *testing.T) {
	transport := &scriptedTransport{reply: "Bonjour"}
	m, posted := newTestWorkbench(t, workflow.Settings{Credential: "k", Model: "m", UILanguage: "en"}, transport)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabTranslate {
		t.Fatalf("tab did not switch")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.picking {
		t.Fatalf("target picker not open")
	}
	for m.pickCursor < targetIndex(workflow.TranslationTarget{APIName: "French"}) {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := workflow.TranslationTargets[m.target].APIName; got != "French" {
		t.Fatalf("target not selected: %q", got)
	}
	if got := m.opts.Store.Config().Preferences.TargetLanguage; got != "French" {
		t.Fatalf("target not remembered: %q", got)
	}

	m.input.SetValue("Hello")
	done := execute(m.run())
	drain(m, *posted)
	drain(m, done)

	if got := m.outputText.String(); got != "Bonjour" {
		t.Fatalf("output mismatch: %q", got)
	}
	if m.status != "Translation complete." {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestWorkbench_MissingCredentialOpensSettings(t *testing.T) {
	m, posted := newTestWorkbench(t, workflow.Settings{Model: "m", UILanguage: "en"}, &scriptedTransport{})
	m.input.SetValue("text")
	done := execute(m.run())
	drain(m, *posted)
	drain(m, done)

	if m.settings == nil {
		t.Fatalf("settings dashboard not opened")
	}
	if !m.statusErr || m.status != "API key is not set. Please add it in the settings." {
		t.Fatalf("unexpected status: %q", m.status)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	// Closing is reported through a command.
	if m.settings == nil {
		t.Fatalf("settings closed without settingsClosedMsg")
	}
	m.Update(settingsClosedMsg{})
	if m.settings != nil {
		t.Fatalf("settings still open")
	}
}

func TestWorkbench_BusySessionIsNotRestarted(t *testing.T) {
	m, _ := newTestWorkbench(t, workflow.Settings{Credential: "k", Model: "m", UILanguage: "en"}, &scriptedTransport{})
	release, ok := m.opts.Session.TryBegin()
	if !ok {
		t.Fatalf("could not take the gate")
	}
	defer release()

	if cmd := m.run(); cmd != nil {
		t.Fatalf("run started while busy")
	}
	if m.status != "Another operation is already in progress." {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestWorkbench_ToggleThemePersists(t *testing.T) {
	m, _ := newTestWorkbench(t, workflow.Settings{}, &scriptedTransport{})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.theme != "dark" {
		t.Fatalf("theme not toggled: %q", m.theme)
	}
	if got := m.opts.Store.Config().Preferences.Theme; got != "dark" {
		t.Fatalf("theme not saved: %q", got)
	}
}

func TestWorkbench_ConfigReloadAppliesLocale(t *testing.T) {
	var applied *config.RootConfig
	m, _ := newTestWorkbench(t, workflow.Settings{}, &scriptedTransport{})
	m.opts.OnConfig = func(cfg *config.RootConfig) { applied = cfg }

	cfg := testConfig()
	cfg.Preferences.UILanguage = "pt-BR"
	m.Update(configChangedMsg{cfg: cfg})

	if applied != cfg {
		t.Fatalf("OnConfig not called with reloaded config")
	}
	if m.loc.Locale() != "pt-BR" {
		t.Fatalf("locale not switched: %q", m.loc.Locale())
	}
	if !strings.Contains(m.View(), m.loc.Get("tabTranslate")) {
		t.Fatalf("view not localized")
	}
}

func TestTeaViewWithoutProgramDropsMessages(t *testing.T) {
	var v workflow.View = teaView{}
	v.SetStatus("x", false)
	v.AppendOutput("y")
	v.OpenSettings()
}
