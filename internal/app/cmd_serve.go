package app

import (
	"context"

	"github.com/spf13/cobra"

	"correctme/internal/config"
	"correctme/internal/diff"
	"correctme/internal/mcpserver"
	"correctme/internal/tui"
)

func (c *cli) newWorkbenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "workbench",
		Aliases: []string{"ui"},
		Short:   "Open the full-screen correction and translation workbench",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWorkbench(cmd.Context())
		},
	}
}

func (c *cli) runWorkbench(ctx context.Context) error {
	path, err := config.ConfigPath()
	if err != nil {
		c.rt.logger.Warn("config path unavailable, reload disabled", "error", err)
		path = ""
	}
	return tui.RunWorkbench(ctx, tui.WorkbenchOptions{
		Session:    c.rt.session,
		Transport:  c.rt.transport,
		Store:      c.rt.store,
		ConfigPath: path,
		OnConfig:   c.rt.apply,
		Settings:   tui.SettingsOptions{Save: config.Save},
		Logger:     c.rt.logger.Logger,
	})
}

func (c *cli) newMCPCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve correction, translation and detection as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := c.rt.target(to)
			if err != nil {
				return err
			}
			c.watchConfig(cmd.Context())
			srv := mcpserver.New(version, c.rt.orchestrator(diff.Markup{}),
				mcpserver.WithModelLister(c.rt.listModels),
				mcpserver.WithDefaultTarget(target),
				mcpserver.WithLogger(c.rt.logger.Logger),
			)
			c.rt.logger.Info("mcp server starting", "version", version, "default_target", target.APIName)
			return srv.Serve()
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "default target language of translate_text")
	return cmd
}

// watchConfig keeps the runtime in step with edits to the config file until
// ctx is done.
func (c *cli) watchConfig(ctx context.Context) {
	path, err := config.ConfigPath()
	if err != nil {
		return
	}
	err = config.Watch(ctx, path, func(cfg *config.RootConfig, err error) {
		if err != nil {
			c.rt.logger.Warn("config reload failed", "error", err)
			return
		}
		c.rt.store.Replace(cfg)
		c.rt.apply(cfg)
		c.rt.logger.Info("config reloaded", "path", path)
	})
	if err != nil {
		c.rt.logger.Warn("config watch disabled", "path", path, "error", err)
	}
}
