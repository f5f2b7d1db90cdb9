package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("aborted")

// visibleOptions bounds how many rows a picker renders at once.
const visibleOptions = 12

func runPrompt(m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithMouseCellMotion())
	return p.Run()
}

// SelectOne asks the user to pick one of options.
func SelectOne(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options")
	}
	out, err := runPrompt(newSelectModel(title, options, false))
	if err != nil {
		return "", err
	}
	result := out.(*selectModel)
	if result.canceled {
		return "", ErrAborted
	}
	return result.choice, nil
}

// SelectFiltered is SelectOne with a type-to-filter query line. match decides
// which options remain visible for a query; nil matches case-insensitive
// substrings.
func SelectFiltered(title string, options []string, match func(option, query string) bool) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options")
	}
	m := newSelectModel(title, options, true)
	if match != nil {
		m.match = match
	}
	out, err := runPrompt(m)
	if err != nil {
		return "", err
	}
	result := out.(*selectModel)
	if result.canceled {
		return "", ErrAborted
	}
	return result.choice, nil
}

// InputWithDefault reads one line, returning def when left empty.
func InputWithDefault(prompt, def string) (string, error) {
	return readLine(prompt, def, false)
}

// InputSecret reads one line without echoing it.
func InputSecret(prompt string) (string, error) {
	return readLine(prompt, "", true)
}

func readLine(prompt, def string, secret bool) (string, error) {
	out, err := runPrompt(newInputModel(prompt, def, secret))
	if err != nil {
		return "", err
	}
	result := out.(*inputModel)
	if result.canceled {
		return "", ErrAborted
	}
	line := strings.TrimSpace(result.input.Value())
	if line == "" && def != "" {
		return def, nil
	}
	return line, nil
}

// Confirm asks a yes/no question.
func Confirm(prompt string, def bool) (bool, error) {
	cursor := 1
	if def {
		cursor = 0
	}
	m := &confirmModel{title: prompt, options: []string{"Yes", "No"}, cursor: cursor}
	out, err := runPrompt(m)
	if err != nil {
		return false, err
	}
	result := out.(*confirmModel)
	if result.canceled {
		return false, ErrAborted
	}
	return result.choice == "Yes", nil
}

// --- Models ---

type selectModel struct {
	title     string
	options   []string
	filtering bool
	query     string
	match     func(option, query string) bool
	visible   []int
	cursor    int
	offset    int
	choice    string
	canceled  bool
}

func newSelectModel(title string, options []string, filtering bool) *selectModel {
	m := &selectModel{
		title:     title,
		options:   options,
		filtering: filtering,
		match: func(option, query string) bool {
			return strings.Contains(strings.ToLower(option), strings.ToLower(query))
		},
	}
	m.refilter()
	return m
}

func (m *selectModel) refilter() {
	m.visible = m.visible[:0]
	q := strings.TrimSpace(m.query)
	for i, o := range m.options {
		if q == "" || m.match(o, q) {
			m.visible = append(m.visible, i)
		}
	}
	m.cursor, m.offset = 0, 0
}

func (m *selectModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = clampInt(m.cursor+delta, 0, len(m.visible)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleOptions {
		m.offset = m.cursor - visibleOptions + 1
	}
}

func (m *selectModel) Init() tea.Cmd { return nil }

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		case "up":
			m.move(-1)
		case "down":
			m.move(1)
		case "pgup":
			m.move(-visibleOptions)
		case "pgdown":
			m.move(visibleOptions)
		case "enter":
			if len(m.visible) == 0 {
				return m, nil
			}
			m.choice = m.options[m.visible[m.cursor]]
			return m, tea.Quit
		case "backspace":
			if m.filtering && m.query != "" {
				runes := []rune(m.query)
				m.query = string(runes[:len(runes)-1])
				m.refilter()
			}
		default:
			if !m.filtering {
				switch msg.String() {
				case "q":
					m.canceled = true
					return m, tea.Quit
				case "k":
					m.move(-1)
				case "j":
					m.move(1)
				}
				return m, nil
			}
			if len(msg.Runes) > 0 {
				m.query += string(msg.Runes)
				m.refilter()
			}
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			// Title and blank line, plus the query line when filtering.
			header := 2
			if m.filtering {
				header = 3
			}
			row := msg.Y - header + m.offset
			if row >= m.offset && row < len(m.visible) && row < m.offset+visibleOptions {
				m.cursor = row
				m.choice = m.options[m.visible[row]]
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *selectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle(m.title) + "\n\n")
	if m.filtering {
		b.WriteString(inputPromptStyle("/ ") + m.query + "\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(itemStyle("  (no matches)") + "\n")
	}
	end := min(m.offset+visibleOptions, len(m.visible))
	for i := m.offset; i < end; i++ {
		o := m.options[m.visible[i]]
		if i == m.cursor {
			b.WriteString(selectedItemStyle("→ "+o) + "\n")
		} else {
			b.WriteString(itemStyle("  "+o) + "\n")
		}
	}
	help := "↑/↓ move • Enter select • q/esc cancel • click to select"
	if m.filtering {
		help = "type to filter • ↑/↓ move • Enter select • esc cancel"
	}
	b.WriteString("\n" + helpStyle(help))
	return b.String()
}

type inputModel struct {
	title    string
	input    textinput.Model
	canceled bool
}

func newInputModel(title, def string, secret bool) *inputModel {
	in := textinput.New()
	in.Prompt = inputPromptStyle("> ")
	in.SetValue(def)
	in.CursorEnd()
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	in.Focus()
	return &inputModel{title: title, input: in}
}

func (m *inputModel) Init() tea.Cmd { return textinput.Blink }

func (m *inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		case "enter":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inputModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle(m.title) + "\n\n")
	b.WriteString(m.input.View() + "\n")
	b.WriteString("\n" + helpStyle("Type to edit • Enter confirm • esc cancel"))
	return b.String()
}

type confirmModel struct {
	title    string
	options  []string
	cursor   int
	choice   string
	canceled bool
}

func (m *confirmModel) Init() tea.Cmd { return nil }

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		case "left", "h", "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l", "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "y":
			m.choice = "Yes"
			return m, tea.Quit
		case "n":
			m.choice = "No"
			return m, tea.Quit
		case "enter":
			m.choice = m.options[m.cursor]
			return m, tea.Quit
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			row := msg.Y - 2
			if row >= 0 && row < len(m.options) {
				m.cursor = row
				m.choice = m.options[m.cursor]
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *confirmModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle(m.title) + "\n\n")
	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(selectedItemStyle("→ "+o) + "\n")
		} else {
			b.WriteString(itemStyle("  "+o) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle("←/→ move • y/n • Enter confirm • q/esc cancel"))
	return b.String()
}
