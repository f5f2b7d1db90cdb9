package workflow

import (
	"errors"
	"fmt"
	"strings"

	"correctme/internal/llm"
	"correctme/internal/sse"
)

// Kind classifies workflow failures.
type Kind string

const (
	KindMissingCredential         Kind = "missing_credential"
	KindModelNotSelected          Kind = "model_not_selected"
	KindEmptyInput                Kind = "empty_input"
	KindTargetLanguageNotSelected Kind = "target_language_not_selected"
	KindUnknownLanguage           Kind = "unknown_language"
	KindDetectionFailed           Kind = "detection_failed"
	KindCorrectionFailed          Kind = "correction_failed"
	KindEmptyTranslation          Kind = "empty_translation"
	KindTranslationFailed         Kind = "translation_failed"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrMissingCredential         = &Error{Kind: KindMissingCredential}
	ErrModelNotSelected          = &Error{Kind: KindModelNotSelected}
	ErrEmptyInput                = &Error{Kind: KindEmptyInput}
	ErrTargetLanguageNotSelected = &Error{Kind: KindTargetLanguageNotSelected}
	ErrUnknownLanguage           = &Error{Kind: KindUnknownLanguage}
	ErrDetectionFailed           = &Error{Kind: KindDetectionFailed}
	ErrCorrectionFailed          = &Error{Kind: KindCorrectionFailed}
	ErrEmptyTranslation          = &Error{Kind: KindEmptyTranslation}
	ErrTranslationFailed         = &Error{Kind: KindTranslationFailed}
)

// Stage names the workflow step an error came from.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageDetect    Stage = "detect"
	StageCorrect   Stage = "correct"
	StageDiff      Stage = "diff"
	StageTranslate Stage = "translate"
)

// Error is a workflow failure. Message is already localized and is what the
// user sees; Err keeps the underlying cause.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsValidation reports whether err is a precondition rejection.
func IsValidation(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindMissingCredential, KindModelNotSelected, KindEmptyInput, KindTargetLanguageNotSelected:
		return true
	}
	return false
}

// wrap attaches a localized, workflow-specific message around cause. A cause
// that is already a workflow error is returned unchanged so nothing is wrapped
// twice.
func wrap(loc Localizer, kind Kind, stage Stage, key string, cause error) error {
	var we *Error
	if errors.As(cause, &we) {
		return cause
	}
	return &Error{Kind: kind, Stage: stage, Message: loc.Get(key, describe(loc, cause)), Err: cause}
}

// describe renders a transport or stream error in the user's language.
func describe(loc Localizer, err error) string {
	var (
		authErr *llm.AuthError
		apiErr  *llm.APIError
		netErr  *llm.NetworkError
		fault   *sse.StreamFault
		readErr *sse.ReadError
	)
	switch {
	case errors.As(err, &authErr):
		return loc.Get("errorApiKeyNotSet")
	case errors.As(err, &apiErr):
		return strings.TrimSpace(loc.Get("errorApi", apiErr.Status, apiErr.StatusText, apiErr.Detail))
	case errors.As(err, &netErr):
		return loc.Get("errorNetwork", netErr.Detail)
	case errors.As(err, &fault):
		return fault.Message
	case errors.As(err, &readErr):
		return loc.Get("errorNetwork", readErr.Err.Error())
	default:
		return err.Error()
	}
}
