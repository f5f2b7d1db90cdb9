package app

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"correctme/internal/diff"
	"correctme/internal/workflow"
)

// printer writes command output. Results go to out; progress, hints and
// diffs go to errOut so piping stdout yields only the text.
type printer struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

func newPrinter(out, errOut io.Writer, quiet bool) *printer {
	return &printer{out: out, errOut: errOut, quiet: quiet}
}

func (p *printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.errOut, color.CyanString(format, args...))
}

func (p *printer) Success(format string, args ...any) {
	fmt.Fprintln(p.errOut, color.GreenString("✓ "+format, args...))
}

func (p *printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.errOut, color.YellowString("! "+format, args...))
}

func (p *printer) Error(format string, args ...any) {
	fmt.Fprintln(p.errOut, color.New(color.FgRed, color.Bold).Sprintf("✗ "+format, args...))
}

func (p *printer) Faint(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.errOut, color.New(color.Faint).Sprintf(format, args...))
}

// Println writes a result line to out.
func (p *printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Table renders rows to out without borders.
func (p *printer) Table(header []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// differ picks the diff rendering for the terminal.
func differ(dark bool) workflow.Differ {
	if color.NoColor {
		return diff.Markup{}
	}
	return diff.NewANSI(dark)
}

// cliView reports workflow progress on the terminal. Streamed fragments go
// to out as they arrive; status lines and the diff go to errOut. Failures
// are not printed, nor mirrored into out, since the command returns them.
type cliView struct {
	p        *printer
	showDiff bool

	mu                sync.Mutex
	lastByte          byte
	wrote             bool
	failed            bool
	settingsRequested bool
}

func newCLIView(p *printer, showDiff bool) *cliView {
	return &cliView{p: p, showDiff: showDiff}
}

func (v *cliView) SetStatus(message string, isError bool) {
	if isError {
		v.mu.Lock()
		v.failed = true
		v.mu.Unlock()
		return
	}
	v.p.Faint("%s", message)
}

func (v *cliView) ResetOutput() {}

func (v *cliView) AppendOutput(fragment string) {
	if fragment == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.p.out, fragment)
	v.wrote = true
	v.lastByte = fragment[len(fragment)-1]
}

func (v *cliView) SetOutput(text string) {
	v.mu.Lock()
	failed := v.failed
	v.mu.Unlock()
	if failed {
		return
	}
	v.AppendOutput(text)
}

func (v *cliView) SetDiff(markup string) {
	if !v.showDiff || strings.TrimSpace(markup) == "" {
		return
	}
	v.finish()
	fmt.Fprintln(v.p.errOut)
	fmt.Fprintln(v.p.errOut, color.New(color.Bold).Sprint("Changes:"))
	fmt.Fprintln(v.p.errOut, markup)
}

func (v *cliView) OpenSettings() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settingsRequested = true
}

// finish terminates the streamed output with a newline.
func (v *cliView) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.wrote && v.lastByte != '\n' {
		fmt.Fprintln(v.p.out)
		v.lastByte = '\n'
	}
}

func (v *cliView) needsSettings() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settingsRequested
}
