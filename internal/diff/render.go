package diff

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HTML renders a diff as markup with <del> and <ins> elements.
type HTML struct{}

func (HTML) Render(original, revised string) (string, error) {
	ops, err := Words(original, revised)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, op := range ops {
		text := html.EscapeString(op.Text)
		switch op.Kind {
		case Equal:
			b.WriteString(text)
		case Delete:
			b.WriteString(`<del class="diffdel">` + text + `</del>`)
		case Insert:
			b.WriteString(`<ins class="diffins">` + text + `</ins>`)
		}
	}
	return b.String(), nil
}

func (HTML) RenderError(message string) string {
	return `<p class="diff-error">` + html.EscapeString(message) + `</p>`
}

// Markup renders a diff as plain text in wdiff notation: [-removed-]{+added+}.
type Markup struct{}

func (Markup) Render(original, revised string) (string, error) {
	ops, err := Words(original, revised)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, op := range ops {
		switch op.Kind {
		case Equal:
			b.WriteString(op.Text)
		case Delete:
			b.WriteString("[-" + op.Text + "-]")
		case Insert:
			b.WriteString("{+" + op.Text + "+}")
		}
	}
	return b.String(), nil
}

func (Markup) RenderError(message string) string { return "! " + message }

// ANSI renders a diff for terminals.
type ANSI struct {
	Deleted  lipgloss.Style
	Inserted lipgloss.Style
	Failed   lipgloss.Style
}

// NewANSI returns the default terminal palette. dark selects colors for dark
// backgrounds.
func NewANSI(dark bool) ANSI {
	del, ins := lipgloss.Color("160"), lipgloss.Color("28")
	if dark {
		del, ins = lipgloss.Color("203"), lipgloss.Color("114")
	}
	return ANSI{
		Deleted:  lipgloss.NewStyle().Foreground(del).Strikethrough(true),
		Inserted: lipgloss.NewStyle().Foreground(ins).Underline(true),
		Failed:   lipgloss.NewStyle().Foreground(del).Bold(true),
	}
}

func (r ANSI) Render(original, revised string) (string, error) {
	ops, err := Words(original, revised)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, op := range ops {
		switch op.Kind {
		case Equal:
			b.WriteString(op.Text)
		case Delete:
			b.WriteString(r.Deleted.Render(op.Text))
		case Insert:
			b.WriteString(r.Inserted.Render(op.Text))
		}
	}
	return b.String(), nil
}

func (r ANSI) RenderError(message string) string { return r.Failed.Render(message) }
