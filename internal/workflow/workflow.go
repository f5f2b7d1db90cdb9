// Package workflow sequences the correction and translation workflows:
// validation, language detection, the streamed correction, the diff and the
// translation call, all behind one single-flight gate.
package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"correctme/internal/diff"
	"correctme/internal/i18n"
	"correctme/internal/llm"
	"correctme/internal/sse"
)

// Transport is the part of the LLM client the workflows use.
type Transport interface {
	Complete(ctx context.Context, req llm.CompletionRequest, credential string) (string, error)
	Stream(ctx context.Context, req llm.CompletionRequest, credential string) (io.ReadCloser, error)
}

// Localizer resolves user-facing messages.
type Localizer interface {
	Get(key string, args ...any) string
	UILanguageName() string
}

// Differ renders the difference between the original and the corrected text.
type Differ interface {
	Render(original, revised string) (string, error)
	RenderError(message string) string
}

// View is where a workflow reports progress. Implementations must be safe to
// call from the goroutine running the workflow.
type View interface {
	SetStatus(message string, isError bool)
	ResetOutput()
	AppendOutput(fragment string)
	SetOutput(text string)
	SetDiff(markup string)
	OpenSettings()
}

// NopView discards everything. Embed it to implement only part of View.
type NopView struct{}

func (NopView) SetStatus(string, bool) {}
func (NopView) ResetOutput()           {}
func (NopView) AppendOutput(string)    {}
func (NopView) SetOutput(string)       {}
func (NopView) SetDiff(string)         {}
func (NopView) OpenSettings()          {}

// Correction is the outcome of a successful correction run.
type Correction struct {
	RunID     string
	Original  string
	Language  LanguageInfo
	Corrected string
	Diff      string
	DiffErr   error
}

// Translation is the outcome of a successful translation run.
type Translation struct {
	RunID      string
	Original   string
	Target     TranslationTarget
	Translated string
}

// Orchestrator runs workflows against one Session.
type Orchestrator struct {
	session   *Session
	transport Transport
	differ    Differ
	localize  func(uiLanguage string) Localizer
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDiffer replaces the HTML diff renderer.
func WithDiffer(d Differ) Option {
	return func(o *Orchestrator) { o.differ = d }
}

// WithLocalizer replaces the embedded catalogs.
func WithLocalizer(fn func(uiLanguage string) Localizer) Option {
	return func(o *Orchestrator) { o.localize = fn }
}

// WithLogger sets the workflow logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator.
func New(session *Session, transport Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:   session,
		transport: transport,
		differ:    diff.HTML{},
		localize:  func(tag string) Localizer { return i18n.MustLoad(tag) },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Session returns the session the orchestrator runs against.
func (o *Orchestrator) Session() *Session { return o.session }

// Localizer returns the localizer for the session's current UI language.
func (o *Orchestrator) Localizer() Localizer {
	return o.localize(o.session.Snapshot().UILanguage)
}

// Correct detects the language of input, streams its correction into view
// and renders the diff. A call made while another workflow holds the gate
// does nothing and returns (nil, nil).
func (o *Orchestrator) Correct(ctx context.Context, view View, input string) (*Correction, error) {
	release, ok := o.session.TryBegin()
	if !ok {
		o.logger.Info("operation already in progress", "workflow", "correct")
		return nil, nil
	}
	defer release()

	settings := o.session.Snapshot()
	loc := o.localize(settings.UILanguage)
	text := strings.TrimSpace(input)
	if err := o.validate(view, loc, settings, text); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID, "workflow", "correct", "model", settings.Model)
	logger.Info("workflow started", "chars", len(text))

	view.SetStatus(loc.Get("statusProcessing"), false)
	view.ResetOutput()
	view.SetDiff("")

	view.SetStatus(loc.Get("statusDetectingLanguage"), false)
	info, err := NewDetector(o.transport, loc, logger).Detect(ctx, settings, text)
	if err != nil {
		return nil, o.fail(view, logger, err)
	}
	logger.Info("language detected", "language", info.EnglishName)
	view.SetStatus(loc.Get("statusDetectedLanguage", info.UIName), false)

	view.SetStatus(loc.Get("statusCorrecting", info.UIName), false)
	corrected, err := o.streamCorrection(ctx, view, loc, logger, settings, text, info)
	if err != nil {
		return nil, o.fail(view, logger, err)
	}

	markup, diffErr := o.renderDiff(text, corrected)
	if diffErr != nil {
		logger.Warn("diff failed", "error", diffErr)
		markup = o.differ.RenderError(loc.Get("errorDiff", diffErr.Error()))
	}
	view.SetDiff(markup)
	view.SetStatus(loc.Get("statusCorrectionComplete"), false)
	logger.Info("workflow finished", "chars", len(corrected))

	return &Correction{
		RunID:     runID,
		Original:  text,
		Language:  info,
		Corrected: corrected,
		Diff:      markup,
		DiffErr:   diffErr,
	}, nil
}

// Translate translates input into target with a single non-streaming call.
// A call made while another workflow holds the gate does nothing and returns
// (nil, nil).
func (o *Orchestrator) Translate(ctx context.Context, view View, input string, target TranslationTarget) (*Translation, error) {
	release, ok := o.session.TryBegin()
	if !ok {
		o.logger.Info("operation already in progress", "workflow", "translate")
		return nil, nil
	}
	defer release()

	settings := o.session.Snapshot()
	loc := o.localize(settings.UILanguage)
	text := strings.TrimSpace(input)
	if err := o.validate(view, loc, settings, text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(target.APIName) == "" {
		return nil, o.reject(view, loc, KindTargetLanguageNotSelected, "errorTargetLangNotSelected")
	}

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID, "workflow", "translate", "model", settings.Model, "target", target.APIName)
	logger.Info("workflow started", "chars", len(text))

	view.SetStatus(loc.Get("statusTranslatingTo", loc.Get(target.Key)), false)
	view.ResetOutput()

	req := llm.CompletionRequest{Model: settings.Model, Messages: translationMessages(text, target.APIName)}
	translated, err := o.transport.Complete(ctx, req, settings.Credential)
	if err != nil {
		return nil, o.fail(view, logger, wrap(loc, KindTranslationFailed, StageTranslate, "errorTranslationFailed", err))
	}
	if translated == "" {
		return nil, o.fail(view, logger, &Error{
			Kind:    KindEmptyTranslation,
			Stage:   StageTranslate,
			Message: loc.Get("errorTranslationFailed", loc.Get("errorEmptyResponse")),
		})
	}

	view.SetOutput(translated)
	view.SetStatus(loc.Get("statusTranslationComplete"), false)
	logger.Info("workflow finished", "chars", len(translated))
	return &Translation{RunID: runID, Original: text, Target: target, Translated: translated}, nil
}

// Detect runs language detection on its own. It shares the gate and the
// validation of the other workflows and returns (nil, nil) when busy.
func (o *Orchestrator) Detect(ctx context.Context, view View, input string) (*LanguageInfo, error) {
	release, ok := o.session.TryBegin()
	if !ok {
		o.logger.Info("operation already in progress", "workflow", "detect")
		return nil, nil
	}
	defer release()

	settings := o.session.Snapshot()
	loc := o.localize(settings.UILanguage)
	text := strings.TrimSpace(input)
	if err := o.validate(view, loc, settings, text); err != nil {
		return nil, err
	}
	logger := o.logger.With("run_id", uuid.NewString(), "workflow", "detect", "model", settings.Model)

	view.SetStatus(loc.Get("statusDetectingLanguage"), false)
	info, err := NewDetector(o.transport, loc, logger).Detect(ctx, settings, text)
	if err != nil {
		return nil, o.fail(view, logger, err)
	}
	view.SetStatus(loc.Get("statusDetectedLanguage", info.UIName), false)
	return &info, nil
}

func (o *Orchestrator) streamCorrection(
	ctx context.Context,
	view View,
	loc Localizer,
	logger *slog.Logger,
	settings Settings,
	text string,
	info LanguageInfo,
) (string, error) {
	req := llm.CompletionRequest{
		Model:    settings.Model,
		Messages: correctionMessages(text, info.EnglishName, loc.UILanguageName()),
	}
	stream, err := o.transport.Stream(ctx, req, settings.Credential)
	if err != nil {
		return "", wrap(loc, KindCorrectionFailed, StageCorrect, "errorCorrectionFailed", err)
	}
	defer stream.Close()

	dec := sse.NewDecoder(stream,
		sse.WithFaultMessage(loc.Get("errorStreamFault")),
		sse.WithLogger(logger),
	)
	corrected, err := sse.Accumulate(dec, sse.SinkFunc(view.AppendOutput))
	if err != nil {
		return "", wrap(loc, KindCorrectionFailed, StageCorrect, "errorCorrectionFailed", err)
	}
	if !dec.SawSentinel() {
		logger.Debug("stream closed without [DONE]")
	}
	return corrected, nil
}

func (o *Orchestrator) renderDiff(original, corrected string) (markup string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("diff renderer panicked: %v", r)
		}
	}()
	return o.differ.Render(original, corrected)
}

func (o *Orchestrator) validate(view View, loc Localizer, settings Settings, text string) error {
	if strings.TrimSpace(settings.Credential) == "" {
		err := o.reject(view, loc, KindMissingCredential, "errorApiKeyNotSet")
		view.OpenSettings()
		return err
	}
	if strings.TrimSpace(settings.Model) == "" {
		err := o.reject(view, loc, KindModelNotSelected, "errorModelNotSelected")
		view.OpenSettings()
		return err
	}
	if text == "" {
		return o.reject(view, loc, KindEmptyInput, "errorInputEmpty")
	}
	return nil
}

func (o *Orchestrator) reject(view View, loc Localizer, kind Kind, key string) error {
	err := &Error{Kind: kind, Stage: StageValidate, Message: loc.Get(key)}
	view.SetStatus(err.Message, true)
	return err
}

// fail reports a terminal error in the status line and mirrors it into the
// output buffer.
func (o *Orchestrator) fail(view View, logger *slog.Logger, err error) error {
	msg := err.Error()
	logger.Error("workflow failed", "error", msg)
	view.SetStatus(msg, true)
	view.SetOutput(msg)
	return err
}
