// Package locale provides the bilingual (uz/ru) message tables for every
// user-facing string, backed by go-i18n with embedded JSON files.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeData embed.FS

// Supported language codes. Uzbek is the bot default.
const (
	Uz = "uz"
	Ru = "ru"
)

// Default is the language used when a user has not chosen one.
const Default = Uz

var localeFiles = []string{"uz.json", "ru.json"}

// Translator resolves message ids for a given language.
type Translator struct {
	bundle *i18n.Bundle
}

// New loads the embedded message files into a bundle.
func New() (*Translator, error) {
	bundle := i18n.NewBundle(language.Make(Uz))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, f := range localeFiles {
		data, err := localeData.ReadFile("locales/" + f)
		if err != nil {
			return nil, fmt.Errorf("locale: read %s: %w", f, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f); err != nil {
			return nil, fmt.Errorf("locale: parse %s: %w", f, err)
		}
	}
	return &Translator{bundle: bundle}, nil
}

// Normalize maps an arbitrary language code to a supported one.
func Normalize(lang string) string {
	switch lang {
	case Uz, Ru:
		return lang
	default:
		return Default
	}
}

// T resolves a message id in the given language. Unknown ids return the id
// itself so a missing translation is visible instead of silent.
func (t *Translator) T(lang, id string) string {
	return t.Tf(lang, id, nil)
}

// Tf resolves a message id with template data.
func (t *Translator) Tf(lang, id string, data map[string]any) string {
	loc := i18n.NewLocalizer(t.bundle, Normalize(lang))
	msg, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}
