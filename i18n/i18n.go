// Package i18n resolves message codes to translated text. Catalogs are TOML
// files embedded from locales/.
package i18n

import (
	"context"
	"embed"
	"io/fs"
	"strings"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// DefaultLang is used when nothing better matches.
const DefaultLang = "en"

//go:embed locales/*.toml
var localeFS embed.FS

var (
	bundle     *goi18n.Bundle
	bundleOnce sync.Once
	supported  = []language.Tag{language.English, language.Spanish}
	matcher    = language.NewMatcher(supported)
)

func load() *goi18n.Bundle {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		err := fs.WalkDir(localeFS, "locales", func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := localeFS.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = b.ParseMessageFileBytes(data, path)
			return err
		})
		if err != nil {
			panic("i18n: load catalogs: " + err.Error())
		}
		bundle = b
	})
	return bundle
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	for _, t := range supported {
		if base(t) == lang {
			return true
		}
	}
	return false
}

func base(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(acceptLanguage))
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	return base(supported[idx])
}

// T translates code; unknown codes are returned unchanged.
func T(lang, code string) string { return Tf(lang, code, nil) }

// Tf translates code with template data, e.g. {{.Name}} placeholders.
func Tf(lang, code string, data map[string]any) string {
	loc := goi18n.NewLocalizer(load(), lang, DefaultLang)
	msg, _ := loc.Localize(&goi18n.LocalizeConfig{MessageID: code, TemplateData: data})
	if msg == "" {
		return code
	}
	return msg
}

type langKey struct{}

// WithLang stores the request language in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}
