package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"correctme/internal/workflow"
)

// chromeHeight counts the rows around the panes: header, tabs, pane titles,
// target line, status and help.
const chromeHeight = 12

func (m *workbenchModel) layout() {
	w := max(m.width-4, 20)
	m.input.SetWidth(w)
	m.input.SetHeight(inputHeight)

	free := max(m.height-inputHeight-chromeHeight, 2*minPaneHeight)
	m.output.Width = w
	m.diffView.Width = w
	if m.tab == tabCorrect {
		m.output.Height = free - free/3
		m.diffView.Height = free / 3
	} else {
		m.output.Height = free
		m.diffView.Height = 0
	}
}

func (m *workbenchModel) View() string {
	if m.settings != nil {
		return m.settings.View()
	}
	s := m.style
	w := max(m.width-4, 20)

	title := s.title.Render(m.loc.Get("appTitle"))
	tabs := lipgloss.JoinHorizontal(lipgloss.Bottom,
		m.renderTab(m.loc.Get("tabCorrect"), m.tab == tabCorrect),
		m.renderTab(m.loc.Get("tabTranslate"), m.tab == tabTranslate),
		"  "+s.dim.Render(m.modelBadge()),
	)

	sections := []string{title, tabs, "", m.input.View()}
	if m.tab == tabTranslate {
		t := workflow.TranslationTargets[m.target]
		sections = append(sections,
			s.dim.Render(m.loc.Get("targetLanguage")+": ")+s.okText.Render(m.loc.Get(t.Key)))
	}
	if m.picking {
		sections = append(sections, m.renderPicker())
	} else {
		sections = append(sections,
			s.label.UnsetWidth().UnsetAlign().Render(m.loc.Get("responseTitle")),
			s.panel.Width(w).Render(m.output.View()),
		)
		if m.tab == tabCorrect {
			sections = append(sections,
				s.label.UnsetWidth().UnsetAlign().Render(m.loc.Get("diffTitle")),
				s.panel.Width(w).Render(m.diffView.View()),
			)
		}
	}
	sections = append(sections, m.renderStatus(w), s.dim.Render(m.loc.Get("keyHelpWorkbench")))
	return s.app.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *workbenchModel) renderTab(label string, active bool) string {
	if active {
		return m.style.activeTab.Render(label)
	}
	return m.style.tab.Render(label)
}

func (m *workbenchModel) modelBadge() string {
	model := m.opts.Session.Snapshot().Model
	if model == "" {
		model = "-"
	}
	return fmt.Sprintf("%s: %s", m.loc.Get("model"), model)
}

func (m *workbenchModel) renderStatus(width int) string {
	text := m.status
	if m.running {
		text = m.spinner.View() + " " + text
	}
	style := m.style.statusBar.Width(width)
	if m.statusErr {
		style = style.Foreground(m.style.palette.Error).Bold(true)
	}
	return style.Render(text)
}

func (m *workbenchModel) renderPicker() string {
	var lines []string
	lines = append(lines, m.loc.Get("targetLanguage")+":", "")
	offset := 0
	if m.pickCursor >= visibleOptions {
		offset = m.pickCursor - visibleOptions + 1
	}
	end := min(offset+visibleOptions, len(workflow.TranslationTargets))
	for i := offset; i < end; i++ {
		name := m.loc.Get(workflow.TranslationTargets[i].Key)
		if i == m.pickCursor {
			lines = append(lines, m.style.selectedItem.Render(" ➤ "+name))
		} else {
			lines = append(lines, m.style.item.Render("   "+name))
		}
	}
	lines = append(lines, "", m.style.dim.Render("[Enter] Confirm  [Esc] Cancel"))
	return m.style.modal.Render(strings.Join(lines, "\n"))
}
