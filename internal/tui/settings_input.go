package tui

import tea "github.com/charmbracelet/bubbletea"

func spanIndex(spans [][2]int, x int) int {
	for i, s := range spans {
		if x >= s[0] && x < s[1] {
			return i
		}
	}
	return -1
}

func (m *settingsModel) handleMainMouse(msg tea.MouseMsg) tea.Cmd {
	x, y := msg.X, msg.Y
	leftX1, leftY1 := m.leftContentX, m.leftContentY
	rightX1, rightY1 := m.rightContentX, m.rightContentY

	profileIdx := y - (leftY1 + 2)
	if x >= leftX1 && x <= leftX1+27 && profileIdx >= 0 && profileIdx < len(m.profileNames) {
		m.focusArea = focusProfiles
		m.switchProfile(profileIdx)
		return nil
	}

	if y == leftY1+m.leftButtonsRelY {
		if i := spanIndex(m.leftButtonSpans, x-leftX1); i >= 0 {
			m.focusArea = focusActions
			m.actionIndex = actAdd + i
			return m.runAction(m.actionIndex)
		}
		return nil
	}

	fieldY := y - rightY1
	inputStartX := rightX1 + labelWidth + 1
	inputEndX := inputStartX + inputWidth - 1
	if x >= inputStartX && x <= inputEndX {
		for i := range m.fields {
			if i < len(m.fieldStartRelY) && fieldY >= m.fieldStartRelY[i] && fieldY <= m.fieldEndRelY[i] {
				m.focusArea = focusFields
				m.focusField = i
				return nil
			}
		}
	}

	if y == rightY1+m.rightButtonsRelY {
		if i := spanIndex(m.rightButtonSpans, x-rightX1); i >= 0 {
			m.focusArea = focusActions
			m.actionIndex = actModels + i
			return m.runAction(m.actionIndex)
		}
	}
	return nil
}

func (m *settingsModel) handleModalMouse(msg tea.MouseMsg) tea.Cmd {
	x, y := msg.X, msg.Y
	if x < m.modalX || x >= m.modalX+m.modalW || y < m.modalY || y >= m.modalY+m.modalH {
		m.modal = modalNone
		return nil
	}
	idx := y - (m.modalY + m.modalOptionsRelY)
	switch m.modal {
	case modalProvider:
		if idx >= 0 && idx < len(providerOptions) {
			m.modalCursor = idx
			m.createProfileFromModal()
		}
	case modalModels:
		visible := m.visibleModels()
		idx += m.modelsOffset()
		if idx >= m.modelsOffset() && idx < len(visible) && idx < m.modelsOffset()+visibleOptions {
			m.pickModel(visible[idx])
		}
	}
	return nil
}

func (m *settingsModel) handleMainKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "esc":
		return m.close(), true
	case "ctrl+s":
		return m.save(), true
	case "ctrl+d":
		m.setDefault()
		return nil, true
	case "ctrl+l":
		return m.runAction(actModels), true
	case "ctrl+t":
		return m.runAction(actTest), true
	case "tab":
		m.focusArea = (m.focusArea + 1) % 3
		return nil, true
	case "shift+tab":
		m.focusArea--
		if m.focusArea < 0 {
			m.focusArea = 2
		}
		return nil, true
	case "up":
		m.moveUp()
		return nil, true
	case "down":
		m.moveDown()
		return nil, true
	case "k", "j":
		if m.focusArea == focusFields {
			return nil, false
		}
		if msg.String() == "k" {
			m.moveUp()
		} else {
			m.moveDown()
		}
		return nil, true
	case "left", "h":
		if m.focusArea == focusActions {
			if m.actionIndex > actAdd {
				m.actionIndex--
			}
			return nil, true
		}
		return nil, false
	case "right", "l":
		if m.focusArea == focusActions {
			if m.actionIndex < actSave {
				m.actionIndex++
			}
			return nil, true
		}
		return nil, false
	case "enter":
		switch m.focusArea {
		case focusActions:
			return m.runAction(m.actionIndex), true
		case focusProfiles:
			m.focusArea = focusFields
		case focusFields:
			if m.focusField == fieldModel {
				return m.runAction(actModels), true
			}
			m.moveDown()
		}
		return nil, true
	}
	return nil, false
}

func (m *settingsModel) handleFieldEdit(msg tea.KeyMsg) {
	if m.focusArea != focusFields || m.focusField < 0 || m.focusField >= len(m.fields) {
		return
	}
	f := &m.fields[m.focusField]
	if f.readOnly {
		return
	}

	switch msg.String() {
	case "left":
		if f.cursor > 0 {
			f.cursor--
		}
	case "right":
		if f.cursor < len([]rune(f.value)) {
			f.cursor++
		}
	case "home":
		f.cursor = 0
	case "end":
		f.cursor = len([]rune(f.value))
	case "backspace":
		r := []rune(f.value)
		if f.cursor > 0 && f.cursor <= len(r) {
			f.value = string(append(r[:f.cursor-1], r[f.cursor:]...))
			f.cursor--
			m.dirty = true
		}
	case "delete":
		r := []rune(f.value)
		if f.cursor >= 0 && f.cursor < len(r) {
			f.value = string(append(r[:f.cursor], r[f.cursor+1:]...))
			m.dirty = true
		}
	default:
		if len(msg.Runes) > 0 {
			r := []rune(f.value)
			next := append([]rune{}, r[:f.cursor]...)
			next = append(next, msg.Runes...)
			next = append(next, r[f.cursor:]...)
			f.value = string(next)
			f.cursor += len(msg.Runes)
			m.dirty = true
		}
	}
	if m.focusField == fieldBaseURL {
		m.fields[fieldProvider].value = detectProviderType(f.value)
	}
}

func (m *settingsModel) moveUp() {
	switch m.focusArea {
	case focusProfiles:
		if m.selected > 0 {
			m.switchProfile(m.selected - 1)
		}
	case focusFields:
		if m.focusField > 0 {
			m.focusField--
		}
	case focusActions:
		if m.actionIndex > actAdd {
			m.actionIndex--
		}
	}
}

func (m *settingsModel) moveDown() {
	switch m.focusArea {
	case focusProfiles:
		if m.selected < len(m.profileNames)-1 {
			m.switchProfile(m.selected + 1)
		}
	case focusFields:
		if m.focusField < len(m.fields)-1 {
			m.focusField++
		}
	case focusActions:
		if m.actionIndex < actSave {
			m.actionIndex++
		}
	}
}

func (m *settingsModel) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.modal {
	case modalProvider:
		switch msg.String() {
		case "esc", "q":
			m.modal = modalNone
		case "up", "k":
			if m.modalCursor > 0 {
				m.modalCursor--
			}
		case "down", "j":
			if m.modalCursor < len(providerOptions)-1 {
				m.modalCursor++
			}
		case "enter":
			m.createProfileFromModal()
		}
	case modalModels:
		visible := m.visibleModels()
		switch msg.String() {
		case "esc":
			m.modal = modalNone
		case "up":
			if m.modalCursor > 0 {
				m.modalCursor--
			}
		case "down":
			if m.modalCursor < len(visible)-1 {
				m.modalCursor++
			}
		case "enter":
			if m.modalCursor < len(visible) {
				m.pickModel(visible[m.modalCursor])
			}
		case "backspace":
			if r := []rune(m.modelsQuery); len(r) > 0 {
				m.modelsQuery = string(r[:len(r)-1])
				m.modalCursor = 0
			}
		default:
			if len(msg.Runes) > 0 {
				m.modelsQuery += string(msg.Runes)
				m.modalCursor = 0
			}
		}
	}
	return nil
}

func (m *settingsModel) modelsOffset() int {
	if m.modalCursor < visibleOptions {
		return 0
	}
	return m.modalCursor - visibleOptions + 1
}
