package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"correctme/internal/config"
	"correctme/internal/i18n"
	"correctme/internal/llm"
	"correctme/internal/logging"
	"correctme/internal/workflow"
)

const appTitle = "CorrectMe"

// Viper keys for values that can come from flags or CORRECTME_* variables.
const (
	keyAPIKey  = "api_key"
	keyModel   = "model"
	keyBaseURL = "base_url"
	keyUILang  = "ui_lang"
	keyProfile = "profile"
	keyDebug   = "debug"
	keyTheme   = "theme"
)

// runtime is the state shared by every command of one invocation.
type runtime struct {
	v         *viper.Viper
	store     *config.Store
	logger    *logging.Logger
	session   *workflow.Session
	transport *profileTransport
}

func newRuntime(v *viper.Viper, store *config.Store) *runtime {
	logger := logging.Setup(logging.Options{Debug: v.GetBool(keyDebug)})
	rt := &runtime{
		v:         v,
		store:     store,
		logger:    logger,
		session:   workflow.NewSession(workflow.Settings{}),
		transport: &profileTransport{},
	}
	rt.apply(store.Config())
	return rt
}

func (rt *runtime) close() {
	_ = rt.logger.Close()
}

// profile returns the profile selected by --profile (or the default) with
// flag and environment overrides applied on top.
func (rt *runtime) profile(cfg *config.RootConfig) config.Profile {
	p := cfg.Active()
	if name := strings.TrimSpace(rt.v.GetString(keyProfile)); name != "" {
		if named, err := cfg.ProfileByName(name); err == nil {
			p = named
		} else {
			rt.logger.Warn("profile not found, using default", "profile", name)
		}
	}
	out := *p
	if s := strings.TrimSpace(rt.v.GetString(keyAPIKey)); s != "" {
		out.APIKey = s
	}
	if s := strings.TrimSpace(rt.v.GetString(keyModel)); s != "" {
		out.Model = s
	}
	if s := strings.TrimSpace(rt.v.GetString(keyBaseURL)); s != "" {
		out.BaseURL = s
	}
	return out
}

func (rt *runtime) uiLanguage(cfg *config.RootConfig) string {
	if s := strings.TrimSpace(rt.v.GetString(keyUILang)); s != "" {
		return s
	}
	return cfg.Preferences.UILanguage
}

func (rt *runtime) theme(cfg *config.RootConfig) string {
	if s := strings.TrimSpace(rt.v.GetString(keyTheme)); s != "" {
		return s
	}
	return cfg.Preferences.Theme
}

// apply points the session and the transport at cfg.
func (rt *runtime) apply(cfg *config.RootConfig) {
	p := rt.profile(cfg)
	rt.transport.apply(p, rt.logger.Logger)
	ui := rt.uiLanguage(cfg)
	rt.session.Update(func(s *workflow.Settings) {
		s.Credential = p.APIKey
		s.Model = p.Model
		s.UILanguage = ui
	})
	rt.logger.Debug("settings applied", "model", p.Model, "ui_language", ui)
}

func (rt *runtime) listModels(ctx context.Context) ([]llm.Model, error) {
	return rt.transport.current().ListModels(ctx)
}

// profileTransport is a workflow.Transport whose client is rebuilt whenever
// the active profile changes.
type profileTransport struct {
	mu     sync.RWMutex
	client *llm.Client
}

func (t *profileTransport) apply(p config.Profile, logger *slog.Logger) {
	client := llm.NewClient(p.BaseURL,
		llm.WithRateLimit(p.RequestsPerMinute),
		llm.WithTimeout(p.Timeout()),
		llm.WithAppTitle(appTitle),
		llm.WithLogger(logger),
	)
	t.mu.Lock()
	t.client = client
	t.mu.Unlock()
	logger.Debug("transport configured", "base_url", client.BaseURL(), "rpm", p.RequestsPerMinute, "timeout", p.Timeout())
}

func (t *profileTransport) current() *llm.Client {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.client == nil {
		return llm.NewClient("")
	}
	return t.client
}

func (t *profileTransport) Complete(ctx context.Context, req llm.CompletionRequest, credential string) (string, error) {
	return t.current().Complete(ctx, req, credential)
}

func (t *profileTransport) Stream(ctx context.Context, req llm.CompletionRequest, credential string) (io.ReadCloser, error) {
	return t.current().Stream(ctx, req, credential)
}

func (rt *runtime) localizer() *i18n.Catalog {
	return i18n.MustLoad(rt.session.Snapshot().UILanguage)
}

func (rt *runtime) orchestrator(d workflow.Differ) *workflow.Orchestrator {
	return workflow.New(rt.session, rt.transport,
		workflow.WithDiffer(d),
		workflow.WithLogger(rt.logger.Logger),
	)
}

// target resolves name, or the remembered preference when name is empty, to
// a translation target. With neither it returns the default target.
func (rt *runtime) target(name string) (workflow.TranslationTarget, error) {
	if strings.TrimSpace(name) == "" {
		name = rt.store.Config().Preferences.TargetLanguage
	}
	if strings.TrimSpace(name) == "" {
		return workflow.DefaultTarget(), nil
	}
	t, ok := workflow.FindTarget(name, rt.localizer())
	if !ok {
		return workflow.TranslationTarget{}, fmt.Errorf("unsupported target language %q (see `correctme translate --list`)", name)
	}
	return t, nil
}
