package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m *settingsModel) View() string {
	if m.width == 0 {
		return "loading..."
	}
	s := m.style

	header := s.title.Render("⚙ Settings")
	leftPane := m.renderLeftPane()
	rightPane := m.renderRightPane()

	leftStyle := s.panel.Width(30)
	rightStyle := s.panel.Width(max(m.width-36, inputWidth+labelWidth+4))
	switch m.focusArea {
	case focusProfiles:
		leftStyle = s.focusedPanel.Width(30)
	case focusFields:
		rightStyle = s.focusedPanel.Width(max(m.width-36, inputWidth+labelWidth+4))
	}

	leftRendered := leftStyle.Render(leftPane)
	rightRendered := rightStyle.Render(rightPane)
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, rightRendered)

	appMarginX, appMarginY := 1, 1
	bodyX := appMarginX
	bodyY := appMarginY + lipgloss.Height(header)
	leftPanelW := lipgloss.Width(leftRendered)

	offsetX := borderSize + paddingH
	offsetY := borderSize + paddingV
	m.leftContentX = bodyX + offsetX
	m.leftContentY = bodyY + offsetY
	m.rightContentX = bodyX + leftPanelW + offsetX
	m.rightContentY = bodyY + offsetY

	statusText := m.status
	if m.dirty {
		statusText += "  ● Unsaved Changes"
	}
	helpText := "Tab: Area • ↑/↓: Move • Enter: Select • Ctrl+L: Models • Ctrl+D: Default • Ctrl+S: Save • Esc: Close"
	statusBar := s.statusBar.Width(max(m.width-4, 10)).Render(
		lipgloss.JoinHorizontal(lipgloss.Center,
			lipgloss.NewStyle().Width(m.width/2).Render(statusText),
			lipgloss.NewStyle().Width(max(m.width/2-6, 0)).Align(lipgloss.Right).Foreground(s.palette.Dim).Render(helpText),
		),
	)

	ui := s.app.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar))
	if m.modal != modalNone {
		return m.overlayModal()
	}
	return ui
}

func (m *settingsModel) renderLeftPane() string {
	s := m.style
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Underline(true).Render("Profiles"))
	lines = append(lines, "")

	for i, name := range m.profileNames {
		displayName := name
		if m.cfg.DefaultProfile == name {
			displayName += " ★"
		}
		if i == m.selected {
			lines = append(lines, s.selectedItem.Width(26).Render("➤ "+displayName))
		} else {
			lines = append(lines, s.item.Render("  "+displayName))
		}
	}
	lines = append(lines, "")

	row, spans := m.renderButtons([]string{"+ Add", "- Del"}, actAdd)
	lines = append(lines, row)
	m.leftButtonSpans = spans
	m.leftButtonsRelY = len(lines) - 1
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *settingsModel) renderRightPane() string {
	s := m.style
	var lines []string
	relY := 0

	titleLine := lipgloss.NewStyle().Foreground(s.palette.Accent).Bold(true).
		Render(fmt.Sprintf("Profile: %s", m.currentProfileName()))
	lines = append(lines, titleLine)
	relY += lipgloss.Height(titleLine)
	lines = append(lines, "")
	relY++
	m.fieldStartRelY = make([]int, len(m.fields))
	m.fieldEndRelY = make([]int, len(m.fields))

	for i, f := range m.fields {
		val := f.value
		if f.masked && val != "" {
			val = MaskSecret(val)
		}
		focused := m.focusArea == focusFields && i == m.focusField
		if focused && !f.readOnly {
			r := []rune(val)
			if f.cursor >= len(r) {
				val += "█"
			} else {
				val = string(r[:f.cursor]) + "█" + string(r[f.cursor:])
			}
		}

		inputStyle := s.input
		switch {
		case f.readOnly:
			inputStyle = s.readOnly
		case focused:
			inputStyle = s.focusedInput
		}

		row := lipgloss.JoinHorizontal(lipgloss.Center,
			s.label.Render(f.label),
			inputStyle.Render(val),
		)
		rowH := lipgloss.Height(row)
		m.fieldStartRelY[i] = relY
		m.fieldEndRelY[i] = relY + rowH - 1
		lines = append(lines, row)
		relY += rowH
	}
	lines = append(lines, "")
	relY++

	row, spans := m.renderButtons([]string{"Models", "Test", "Save"}, actModels)
	lines = append(lines, row)
	m.rightButtonSpans = spans
	m.rightButtonsRelY = relY
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderButtons joins labels into one row and returns the x span of each
// button relative to the row start.
func (m *settingsModel) renderButtons(labels []string, firstAction int) (string, [][2]int) {
	s := m.style
	rendered := make([]string, len(labels))
	spans := make([][2]int, len(labels))
	x := 0
	for i, label := range labels {
		style := s.btn
		if m.focusArea == focusActions && m.actionIndex == firstAction+i {
			style = s.activeBtn
		}
		rendered[i] = style.Render(label)
		w := lipgloss.Width(rendered[i])
		spans[i] = [2]int{x, x + w}
		x += w
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, rendered...), spans
}

func (m *settingsModel) overlayModal() string {
	s := m.style
	var lines []string
	switch m.modal {
	case modalProvider:
		lines = append(lines, "Select Provider Type:", "")
		m.modalOptionsRelY = len(lines)
		for i, opt := range providerOptions {
			lines = append(lines, m.modalOption(opt.name, i == m.modalCursor))
		}
		lines = append(lines, "", s.dim.Render("[Enter] Confirm  [Esc] Cancel"))
	case modalModels:
		lines = append(lines, "Select Model:", s.dim.Render("/ ")+m.modelsQuery, "")
		m.modalOptionsRelY = len(lines)
		visible := m.visibleModels()
		switch {
		case m.modelsLoading:
			lines = append(lines, s.dim.Render("Loading models..."))
		case m.modelsErr != nil:
			lines = append(lines, s.errorText.Render(m.modelsErr.Error()))
		case len(visible) == 0:
			lines = append(lines, s.dim.Render("(no matches)"))
		}
		offset := m.modelsOffset()
		end := min(offset+visibleOptions, len(visible))
		for i := offset; i < end; i++ {
			lines = append(lines, m.modalOption(visible[i].DisplayName(), i == m.modalCursor))
		}
		lines = append(lines, "", s.dim.Render(fmt.Sprintf("%d models • type to filter • [Enter] Pick  [Esc] Cancel", len(visible))))
	}

	box := s.modal.Width(min(max(m.width-8, 40), 90)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	m.modalW = lipgloss.Width(box)
	m.modalH = lipgloss.Height(box)
	m.modalX = (m.width - m.modalW) / 2
	m.modalY = (m.height - m.modalH) / 2
	// Border plus vertical padding sit above the first content line.
	m.modalOptionsRelY += borderSize + 1

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
	)
}

func (m *settingsModel) modalOption(label string, selected bool) string {
	if selected {
		return m.style.selectedItem.Render(" ➤ " + label)
	}
	return m.style.item.Render("   " + label)
}
