package app

import (
	"errors"

	"github.com/spf13/cobra"

	"correctme/internal/config"
	"correctme/internal/tui"
	"correctme/internal/workflow"
)

const (
	menuWorkbench = "Open workbench"
	menuCorrect   = "Correct text"
	menuTranslate = "Translate text"
	menuModel     = "Choose model"
	menuSettings  = "Settings"
	menuPath      = "Show config file"
	menuQuit      = "Quit"
)

func (c *cli) runInteractive(cmd *cobra.Command) error {
	p := c.printer(cmd)
	options := []string{menuWorkbench, menuCorrect, menuTranslate, menuModel, menuSettings, menuPath, menuQuit}
	for {
		choice, err := tui.SelectOne("correctme", options)
		if errors.Is(err, tui.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		switch choice {
		case menuWorkbench:
			return c.runWorkbench(cmd.Context())
		case menuCorrect:
			text, err := tui.InputWithDefault("Text to correct:", "")
			if errors.Is(err, tui.ErrAborted) {
				continue
			}
			if err != nil {
				return err
			}
			view, err := c.correct(cmd, text, true)
			if err := c.afterRun(cmd, view, err); err != nil {
				return err
			}
		case menuTranslate:
			target, ok, err := c.chooseTarget()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			text, err := tui.InputWithDefault("Text to translate:", "")
			if errors.Is(err, tui.ErrAborted) {
				continue
			}
			if err != nil {
				return err
			}
			view, err := c.translate(cmd, text, target)
			if err := c.afterRun(cmd, view, err); err != nil {
				return err
			}
		case menuModel:
			models, err := c.fetchModels(cmd.Context(), "")
			if err != nil {
				p.Error("%v", err)
				continue
			}
			if len(models) == 0 {
				p.Warning("%s", c.rt.localizer().Get("noFreeModelsFound"))
				continue
			}
			if err := c.pickModel(cmd, models); err != nil {
				p.Error("%v", err)
			}
		case menuSettings:
			if err := c.openDashboard(); err != nil {
				return err
			}
		case menuPath:
			path, err := config.ConfigPath()
			if err != nil {
				p.Error("%v", err)
				continue
			}
			p.Println(path)
		case menuQuit:
			return nil
		}
	}
}

// chooseTarget asks for a translation language by its localized name and
// remembers the choice. ok is false when the user backs out.
func (c *cli) chooseTarget() (workflow.TranslationTarget, bool, error) {
	loc := c.rt.localizer()
	names := make([]string, 0, len(workflow.TranslationTargets))
	byName := make(map[string]workflow.TranslationTarget, len(workflow.TranslationTargets))
	for _, t := range workflow.TranslationTargets {
		name := loc.Get(t.Key)
		names = append(names, name)
		byName[name] = t
	}
	choice, err := tui.SelectFiltered(loc.Get("targetLanguage")+":", names, nil)
	if errors.Is(err, tui.ErrAborted) {
		return workflow.TranslationTarget{}, false, nil
	}
	if err != nil {
		return workflow.TranslationTarget{}, false, err
	}
	t := byName[choice]
	if err := c.rt.store.Set(config.KeyTargetLanguage, t.APIName); err != nil {
		c.rt.logger.Warn("remember target language failed", "error", err)
	}
	return t, true, nil
}

// afterRun reports a failed run. A missing key is asked for on the spot;
// other settings problems offer the dashboard. Only prompt failures end the
// menu.
func (c *cli) afterRun(cmd *cobra.Command, view *cliView, runErr error) error {
	if runErr == nil {
		return nil
	}
	p := c.printer(cmd)
	if workflow.IsValidation(runErr) {
		p.Warning("%v", runErr)
	} else {
		p.Error("%v", runErr)
	}
	if view == nil || !view.needsSettings() {
		return nil
	}
	if errors.Is(runErr, workflow.ErrMissingCredential) {
		key, err := tui.InputSecret("API key:")
		if errors.Is(err, tui.ErrAborted) || (err == nil && key == "") {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.rt.store.Set(config.KeyAPIKey, key); err != nil {
			return err
		}
		cfg := c.rt.store.Config()
		c.rt.apply(cfg)
		p.Success("API key saved to profile %s.", cfg.DefaultProfile)
		return nil
	}
	open, err := tui.Confirm("Open settings now?", true)
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	if !open {
		return nil
	}
	return c.openDashboard()
}
