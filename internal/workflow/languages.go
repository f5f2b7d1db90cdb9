package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// maxLanguageNameLen bounds both LanguageInfo fields. Longer names mean the
// model answered with something other than a language name.
const maxLanguageNameLen = 50

// unknownEnglishName is what detection reports when it cannot tell.
const unknownEnglishName = "Unknown"

// LanguageInfo is a detected language, named in English for prompts and in
// the UI language for status messages.
type LanguageInfo struct {
	EnglishName string `json:"englishName"`
	UIName      string `json:"uiName"`
}

// IsUnknown reports whether detection gave up.
func (l LanguageInfo) IsUnknown() bool {
	return strings.EqualFold(strings.TrimSpace(l.EnglishName), unknownEnglishName)
}

// ParseLanguageInfo extracts {englishName, uiName} from a free-form model
// reply. The JSON object is located first, from the first '{' to the last
// '}', and parsed second. Anything that does not yield two string fields
// within the length bound falls back to Unknown with unknownUIName.
func ParseLanguageInfo(reply, unknownUIName string) LanguageInfo {
	fallback := LanguageInfo{EnglishName: unknownEnglishName, UIName: unknownUIName}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return fallback
	}
	obj := reply[start : end+1]
	if !gjson.Valid(obj) {
		return fallback
	}
	english := gjson.Get(obj, "englishName")
	ui := gjson.Get(obj, "uiName")
	if english.Type != gjson.String || ui.Type != gjson.String {
		return fallback
	}
	info := LanguageInfo{EnglishName: english.Str, UIName: ui.Str}
	if utf8.RuneCountInString(info.EnglishName) > maxLanguageNameLen ||
		utf8.RuneCountInString(info.UIName) > maxLanguageNameLen {
		return fallback
	}
	return info
}

// TranslationTarget is a language offered for translation. Key is the locale
// key of its display name, APIName the English name sent to the model.
type TranslationTarget struct {
	Key     string
	APIName string
	Default bool
}

// TranslationTargets lists the selectable translation languages.
var TranslationTargets = []TranslationTarget{
	{Key: "langArabic", APIName: "Arabic"},
	{Key: "langDutch", APIName: "Dutch"},
	{Key: "langEnglish", APIName: "English", Default: true},
	{Key: "langFrench", APIName: "French"},
	{Key: "langGerman", APIName: "German"},
	{Key: "langHindi", APIName: "Hindi"},
	{Key: "langItalian", APIName: "Italian"},
	{Key: "langJapanese", APIName: "Japanese"},
	{Key: "langKorean", APIName: "Korean"},
	{Key: "langPortugueseBrazilian", APIName: "Portuguese (Brazilian)"},
	{Key: "langPortugueseEuropean", APIName: "Portuguese (European)"},
	{Key: "langRussian", APIName: "Russian"},
	{Key: "langSpanish", APIName: "Spanish"},
	{Key: "langSwedish", APIName: "Swedish"},
	{Key: "langTurkish", APIName: "Turkish"},
	{Key: "langChinese", APIName: "Chinese"},
}

// DefaultTarget returns the target preselected when nothing is remembered.
func DefaultTarget() TranslationTarget {
	for _, t := range TranslationTargets {
		if t.Default {
			return t
		}
	}
	return TranslationTargets[0]
}

// FindTarget looks a target up by API name or locale key, ignoring case.
// loc, when non-nil, also lets the localized display name match.
func FindTarget(name string, loc Localizer) (TranslationTarget, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return TranslationTarget{}, false
	}
	for _, t := range TranslationTargets {
		if strings.EqualFold(t.APIName, name) || strings.EqualFold(t.Key, name) {
			return t, true
		}
		if loc != nil && strings.EqualFold(loc.Get(t.Key), name) {
			return t, true
		}
	}
	return TranslationTarget{}, false
}
