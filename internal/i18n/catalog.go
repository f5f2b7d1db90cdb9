// Package i18n loads the embedded locale catalogs used for every
// user-facing message.
package i18n

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Default is the locale used when nothing better matches.
const Default = "en"

var supported = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

var supportedNames = []string{"en", "pt-BR"}

var matcher = language.NewMatcher(supported)

var (
	cacheMu sync.Mutex
	cache   = map[string]map[string]string{}
)

// Catalog resolves message keys for one locale, falling back to English and
// finally to the raw key.
type Catalog struct {
	locale   string
	strings  map[string]string
	fallback map[string]string
}

// Supported lists the locale names with an embedded catalog.
func Supported() []string {
	return append([]string(nil), supportedNames...)
}

// Match maps a user-supplied language tag (pt, pt_BR, pt-br, en-US...) to a
// supported locale name. Unparseable or unsupported tags select Default.
func Match(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return Default
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return Default
	}
	_, idx, conf := matcher.Match(parsed)
	if conf == language.No {
		return Default
	}
	return supportedNames[idx]
}

// Load returns the catalog for tag after matching it to a supported locale.
func Load(tag string) (*Catalog, error) {
	locale := Match(tag)
	fallback, err := readLocale(Default)
	if err != nil {
		return nil, err
	}
	c := &Catalog{locale: locale, strings: fallback, fallback: fallback}
	if locale != Default {
		messages, err := readLocale(locale)
		if err != nil {
			return nil, err
		}
		c.strings = messages
	}
	return c, nil
}

// MustLoad is Load for callers that only ever pass embedded locales.
func MustLoad(tag string) *Catalog {
	c, err := Load(tag)
	if err != nil {
		panic(err)
	}
	return c
}

func readLocale(locale string) (map[string]string, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if m, ok := cache[locale]; ok {
		return m, nil
	}
	data, err := localeFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locale %s: %w", locale, err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("i18n: parse locale %s: %w", locale, err)
	}
	cache[locale] = m
	return m, nil
}

// Locale returns the locale name the catalog was resolved to.
func (c *Catalog) Locale() string { return c.locale }

// Get returns the message for key with {0}, {1}... replaced by args. A key
// missing from both the locale and English resolves to the key itself.
func (c *Catalog) Get(key string, args ...any) string {
	msg, ok := c.strings[key]
	if !ok {
		msg, ok = c.fallback[key]
	}
	if !ok {
		msg = key
	}
	for i, arg := range args {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i), fmt.Sprint(arg))
	}
	return msg
}

// Has reports whether key exists in the locale or the English fallback.
func (c *Catalog) Has(key string) bool {
	if _, ok := c.strings[key]; ok {
		return true
	}
	_, ok := c.fallback[key]
	return ok
}

// UILanguageName names the catalog's own language in that language, the
// way prompts refer to the language explanations should be written in.
func (c *Catalog) UILanguageName() string {
	if c.locale == "pt-BR" {
		return c.Get("langPortugueseBrazilian")
	}
	return c.Get("langEnglish")
}
