package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"correctme/internal/workflow"
)

// maxInputBytes bounds text read from files and stdin.
const maxInputBytes = 1 << 20

var errNoInput = errors.New("no input: pass the text as arguments, with --file, or on stdin")

// readInput takes the text from args, then --file ("-" is stdin), then stdin
// when it is not a terminal.
func readInput(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file == "-":
		return readLimited(cmd.InOrStdin())
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		defer f.Close()
		return readLimited(f)
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "", errNoInput
	}
	return readLimited(in)
}

func readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("input is larger than %d bytes", maxInputBytes)
	}
	return string(data), nil
}

func (c *cli) newCorrectCmd() *cobra.Command {
	var file string
	var noDiff bool
	cmd := &cobra.Command{
		Use:   "correct [text...]",
		Short: "Detect the language of a text and correct its grammar",
		Long: `Detects the language of the text, streams the corrected text to stdout
and prints the changes with a short explanation to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}
			view, err := c.correct(cmd, input, !noDiff)
			c.hintSettings(cmd, view)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `read the text from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&noDiff, "no-diff", false, "do not print the changes")
	return cmd
}

func (c *cli) correct(cmd *cobra.Command, input string, showDiff bool) (*cliView, error) {
	view := newCLIView(c.printer(cmd), showDiff)
	res, err := c.rt.orchestrator(differ(c.dark())).Correct(cmd.Context(), view, input)
	view.finish()
	if err != nil {
		return view, err
	}
	if res == nil {
		return view, errors.New(c.rt.localizer().Get("statusBusy"))
	}
	return view, nil
}

func (c *cli) newTranslateCmd() *cobra.Command {
	var file, to string
	var list bool
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate a text into another language",
		Long: `Translates the text into the language given with --to, the last language
chosen in the workbench, or English.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return c.printTargets(cmd)
			}
			target, err := c.rt.target(to)
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}
			view, err := c.translate(cmd, input, target)
			c.hintSettings(cmd, view)
			return err
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "target language, e.g. French or \"Portuguese (Brazilian)\"")
	cmd.Flags().StringVarP(&file, "file", "f", "", `read the text from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&list, "list", false, "list the supported target languages")
	return cmd
}

func (c *cli) translate(cmd *cobra.Command, input string, target workflow.TranslationTarget) (*cliView, error) {
	view := newCLIView(c.printer(cmd), false)
	res, err := c.rt.orchestrator(differ(c.dark())).Translate(cmd.Context(), view, input, target)
	view.finish()
	if err != nil {
		return view, err
	}
	if res == nil {
		return view, errors.New(c.rt.localizer().Get("statusBusy"))
	}
	return view, nil
}

func (c *cli) printTargets(cmd *cobra.Command) error {
	loc := c.rt.localizer()
	current, err := c.rt.target("")
	if err != nil {
		current = workflow.DefaultTarget()
	}
	rows := make([][]string, 0, len(workflow.TranslationTargets))
	for _, t := range workflow.TranslationTargets {
		mark := ""
		if t.APIName == current.APIName {
			mark = "*"
		}
		rows = append(rows, []string{mark, t.APIName, loc.Get(t.Key)})
	}
	return c.printer(cmd).Table([]string{"", "LANGUAGE", "DISPLAY NAME"}, rows)
}

func (c *cli) newDetectCmd() *cobra.Command {
	var file string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "detect [text...]",
		Short: "Detect the language of a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}
			p := c.printer(cmd)
			view := newCLIView(p, false)
			info, err := c.rt.orchestrator(differ(c.dark())).Detect(cmd.Context(), view, input)
			c.hintSettings(cmd, view)
			if err != nil {
				return err
			}
			if info == nil {
				return errors.New(c.rt.localizer().Get("statusBusy"))
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(info)
			}
			if info.UIName != "" && info.UIName != info.EnglishName {
				p.Println(fmt.Sprintf("%s (%s)", info.EnglishName, info.UIName))
				return nil
			}
			p.Println(info.EnglishName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `read the text from a file ("-" for stdin)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print {englishName, uiName} as JSON")
	return cmd
}

func (c *cli) dark() bool {
	return c.rt.theme(c.rt.store.Config()) == "dark"
}

// hintSettings points at the settings when a workflow asked for them.
func (c *cli) hintSettings(cmd *cobra.Command, view *cliView) {
	if view == nil || !view.needsSettings() {
		return
	}
	c.printer(cmd).Warning("Run `correctme config` to add an API key and choose a model, or pass --api-key and --model.")
}
