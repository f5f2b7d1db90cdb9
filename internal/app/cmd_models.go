package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"correctme/internal/config"
	"correctme/internal/llm"
	"correctme/internal/tui"
)

const modelListTimeout = 20 * time.Second

func (c *cli) newModelsCmd() *cobra.Command {
	var search, set string
	var pick bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List, search and select the models of the active endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if set != "" {
				return c.setModel(cmd, c.resolveModel(cmd, set))
			}
			models, err := c.fetchModels(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(models) == 0 {
				c.printer(cmd).Warning("%s", c.rt.localizer().Get("noFreeModelsFound"))
				return nil
			}
			if pick {
				return c.pickModel(cmd, models)
			}
			return c.printModels(cmd, models)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show models whose name contains every word")
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "choose the model interactively")
	cmd.Flags().StringVar(&set, "set", "", "select a model by ID or name")
	return cmd
}

func (c *cli) fetchModels(ctx context.Context, search string) ([]llm.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, modelListTimeout)
	defer cancel()
	models, err := c.rt.listModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	return llm.FilterModels(models, search), nil
}

// resolveModel maps a name or ID to a listed model ID. When the listing is
// unavailable or has no match, query is used as given.
func (c *cli) resolveModel(cmd *cobra.Command, query string) string {
	models, err := c.fetchModels(cmd.Context(), "")
	if err != nil {
		c.rt.logger.Warn("model listing unavailable, saving model as given", "error", err)
		return query
	}
	if m, ok := llm.FindModel(models, query); ok {
		return m.ID
	}
	c.printer(cmd).Warning("%s is not offered by %s.", query, c.rt.transport.current().BaseURL())
	return query
}

func (c *cli) printModels(cmd *cobra.Command, models []llm.Model) error {
	current := c.rt.profile(c.rt.store.Config()).Model
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		mark := ""
		if m.ID == current {
			mark = "*"
		}
		rows = append(rows, []string{mark, m.ID, m.Name})
	}
	return c.printer(cmd).Table([]string{"", "ID", "NAME"}, rows)
}

func (c *cli) pickModel(cmd *cobra.Command, models []llm.Model) error {
	labels := make([]string, 0, len(models))
	byLabel := make(map[string]llm.Model, len(models))
	for _, m := range models {
		label := m.DisplayName()
		labels = append(labels, label)
		byLabel[label] = m
	}
	match := func(option, query string) bool {
		return len(llm.FilterModels([]llm.Model{byLabel[option]}, query)) == 1 ||
			strings.Contains(strings.ToLower(byLabel[option].ID), strings.ToLower(strings.TrimSpace(query)))
	}
	choice, err := tui.SelectFiltered("Select model:", labels, match)
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.setModel(cmd, byLabel[choice].ID)
}

func (c *cli) setModel(cmd *cobra.Command, id string) error {
	id = strings.TrimSpace(id)
	if err := c.rt.store.Set(config.KeySelectedModel, id); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	cfg := c.rt.store.Config()
	c.rt.apply(cfg)
	c.printer(cmd).Success("Model %s selected for profile %s.", id, cfg.DefaultProfile)
	return nil
}
