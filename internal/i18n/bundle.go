// Package i18n serves the ko/en display dictionary and negotiates the caller's locale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"github.com/terra-clan/skillhub/internal/models"
)

//go:embed translations/*.yaml
var translationsFS embed.FS

var locales = []models.Locale{models.LocaleKo, models.LocaleEn}

var tags = map[models.Locale]language.Tag{
	models.LocaleKo: language.Korean,
	models.LocaleEn: language.English,
}

// Bundle holds the dictionaries of every supported locale. It is immutable after load.
type Bundle struct {
	dicts    map[models.Locale]map[string]string
	printers map[models.Locale]*message.Printer
}

// Load reads the embedded dictionaries
func Load() (*Bundle, error) {
	return LoadFS(translationsFS, "translations")
}

// LoadFS reads <locale>.yaml for every supported locale from dir in fsys
func LoadFS(fsys fs.FS, dir string) (*Bundle, error) {
	builder := catalog.NewBuilder(catalog.Fallback(tags[models.DefaultLocale]))
	b := &Bundle{
		dicts:    make(map[models.Locale]map[string]string, len(locales)),
		printers: make(map[models.Locale]*message.Printer, len(locales)),
	}

	for _, loc := range locales {
		data, err := fs.ReadFile(fsys, path.Join(dir, string(loc)+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", loc, err)
		}

		dict := make(map[string]string)
		if err := yaml.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("failed to parse %s dictionary: %w", loc, err)
		}

		for key, msg := range dict {
			if err := builder.SetString(tags[loc], key, msg); err != nil {
				return nil, fmt.Errorf("failed to register %s/%s: %w", loc, key, err)
			}
		}
		b.dicts[loc] = dict
	}

	for _, loc := range locales {
		b.printers[loc] = message.NewPrinter(tags[loc], message.Catalog(builder))
	}
	return b, nil
}

// Translate returns the message for key, or key itself when the locale lacks it
func (b *Bundle) Translate(locale models.Locale, key string) string {
	if msg, ok := b.dicts[locale][key]; ok {
		return msg
	}
	return key
}

// Translatef formats the message for key with args. Missing keys return key itself.
func (b *Bundle) Translatef(locale models.Locale, key string, args ...any) string {
	if _, ok := b.dicts[locale][key]; !ok {
		return key
	}
	return b.printers[locale].Sprintf(key, args...)
}

// Dictionary returns a copy of the locale's dictionary, or nil for an unsupported locale
func (b *Bundle) Dictionary(locale models.Locale) map[string]string {
	dict, ok := b.dicts[locale]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(dict))
	for k, v := range dict {
		out[k] = v
	}
	return out
}

// Locales returns the supported locales, default first
func (b *Bundle) Locales() []models.Locale {
	return append([]models.Locale(nil), locales...)
}
