package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"correctme/internal/config"
	"correctme/internal/tui"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Edit profiles and settings",
		Long: `Without a subcommand, opens the settings dashboard to manage endpoint
profiles: base URL, API key, model, rate limit and timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.openDashboard()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok, err := c.rt.store.Get(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s is not set", args[0])
				}
				c.printer(cmd).Println(v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting of the default profile or the preferences",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.rt.store.Set(args[0], args[1]); err != nil {
					return err
				}
				c.printer(cmd).Success("%s updated.", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Clear a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.rt.store.Remove(args[0]); err != nil {
					return err
				}
				c.printer(cmd).Success("%s cleared.", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Show every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rows := make([][]string, 0, len(config.Keys()))
				for _, k := range config.Keys() {
					v, _, err := c.rt.store.Get(k)
					if err != nil {
						return err
					}
					if k == config.KeyAPIKey {
						v = tui.MaskSecret(v)
					}
					rows = append(rows, []string{k, v})
				}
				return c.printer(cmd).Table([]string{"KEY", "VALUE"}, rows)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				c.printer(cmd).Println(path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "backups",
			Short: "List the backups taken before each save",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				backups, err := config.Backups()
				if err != nil {
					return err
				}
				p := c.printer(cmd)
				if len(backups) == 0 {
					p.Info("No backups in %s", config.BackupDir())
					return nil
				}
				rows := make([][]string, 0, len(backups))
				for _, b := range backups {
					rows = append(rows, []string{filepath.Base(b), b})
				}
				return p.Table([]string{"NAME", "PATH"}, rows)
			},
		},
	)
	return cmd
}

// openDashboard runs the settings dashboard and applies what it saved.
func (c *cli) openDashboard() error {
	cfg := c.rt.store.Config()
	err := tui.ManageSettingsDashboard(cfg, tui.SettingsOptions{
		Theme: c.rt.theme(cfg),
		Save:  config.Save,
	})
	c.rt.store.Replace(cfg)
	c.rt.apply(cfg)
	return err
}
