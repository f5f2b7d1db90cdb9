package workflow

import (
	"context"
	"log/slog"

	"correctme/internal/llm"
)

// Detector asks the model which language a text is written in.
type Detector struct {
	transport Transport
	loc       Localizer
	logger    *slog.Logger
}

// NewDetector creates a detector answering in loc's language.
func NewDetector(transport Transport, loc Localizer, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{transport: transport, loc: loc, logger: logger}
}

// Detect classifies text. An unrecognized language is returned as an
// ErrUnknownLanguage error carrying the exact message to show; every other
// failure is an ErrDetectionFailed wrapping its cause.
func (d *Detector) Detect(ctx context.Context, settings Settings, text string) (LanguageInfo, error) {
	unknown := d.loc.Get("langUnknown")
	req := llm.CompletionRequest{
		Model:    settings.Model,
		Messages: detectionMessages(text, d.loc.UILanguageName(), unknown),
	}
	reply, err := d.transport.Complete(ctx, req, settings.Credential)
	if err != nil {
		return LanguageInfo{}, wrap(d.loc, KindDetectionFailed, StageDetect, "errorLangDetectFailed", err)
	}
	d.logger.Debug("detection reply", "reply", reply)

	info := ParseLanguageInfo(reply, unknown)
	if info.IsUnknown() {
		return LanguageInfo{}, &Error{
			Kind:    KindUnknownLanguage,
			Stage:   StageDetect,
			Message: d.loc.Get("errorUnknownLanguage"),
		}
	}
	return info, nil
}
