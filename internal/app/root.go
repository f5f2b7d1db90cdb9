package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"correctme/internal/config"
	"correctme/internal/i18n"
)

var version = "dev"

// SetVersion sets the version reported by --version and the MCP server.
func SetVersion(v string) {
	version = v
}

// cli carries the state shared by the commands of one invocation. rt is set
// by the root PersistentPreRunE before any command runs.
type cli struct {
	v  *viper.Viper
	rt *runtime
}

func (c *cli) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.v.GetBool("quiet"))
}

func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CORRECTME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	c := &cli{v: v}

	root := &cobra.Command{
		Use:   "correctme",
		Short: "Correct and translate text with OpenAI-compatible models",
		Long: `correctme detects the language of a text, streams a grammar correction
and shows what changed, or translates the text into another language.

Example usage:
  correctme                          # Interactive menu
  correctme workbench                # Full-screen workbench
  correctme correct "These is wrong" # Correct text given as arguments
  cat notes.txt | correctme correct  # Correct text read from stdin
  correctme translate --to French "Good morning"
  correctme models --search free     # List models of the active profile
  correctme config                   # Edit profiles and settings`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.OpenStore()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c.rt = newRuntime(v, store)
			c.rt.logger.Debug("command started", "command", cmd.CommandPath(), "log_file", c.rt.logger.Path)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.rt != nil {
				c.rt.close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-key", "", "API key (overrides the profile)")
	flags.String("model", "", "model ID (overrides the profile)")
	flags.String("base-url", "", "OpenAI-compatible endpoint (overrides the profile)")
	flags.String("ui-lang", "", fmt.Sprintf("language of messages and explanations (%s)", strings.Join(i18n.Supported(), ", ")))
	flags.String("profile", "", "profile to use instead of the default one")
	flags.String("theme", "", "light or dark")
	flags.BoolP("quiet", "q", false, "only print results")
	flags.Bool("debug", false, "write debug entries to the log file")

	_ = v.BindPFlag(keyAPIKey, flags.Lookup("api-key"))
	_ = v.BindPFlag(keyModel, flags.Lookup("model"))
	_ = v.BindPFlag(keyBaseURL, flags.Lookup("base-url"))
	_ = v.BindPFlag(keyUILang, flags.Lookup("ui-lang"))
	_ = v.BindPFlag(keyProfile, flags.Lookup("profile"))
	_ = v.BindPFlag(keyTheme, flags.Lookup("theme"))
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = v.BindPFlag(keyDebug, flags.Lookup("debug"))

	root.AddCommand(c.newCorrectCmd())
	root.AddCommand(c.newTranslateCmd())
	root.AddCommand(c.newDetectCmd())
	root.AddCommand(c.newModelsCmd())
	root.AddCommand(c.newConfigCmd())
	root.AddCommand(c.newWorkbenchCmd())
	root.AddCommand(c.newMCPCmd())
	return root
}
