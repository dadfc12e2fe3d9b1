package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/terra-clan/skillhub/internal/models"
)

type ctxKey struct{}

var matcher = language.NewMatcher([]language.Tag{language.Korean, language.English})

// Negotiate picks the locale from ?lang= first, then Accept-Language
func Negotiate(r *http.Request) models.Locale {
	if loc, ok := models.ParseLocale(r.URL.Query().Get("lang")); ok {
		return loc
	}

	prefs, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(prefs) == 0 {
		return models.DefaultLocale
	}
	_, index, confidence := matcher.Match(prefs...)
	if confidence == language.No {
		return models.DefaultLocale
	}
	return locales[index]
}

// Middleware stores the negotiated locale on the request context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := Negotiate(r)
		w.Header().Set("Content-Language", string(loc))
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), loc)))
	})
}

// WithLocale returns a context carrying loc
func WithLocale(ctx context.Context, loc models.Locale) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// FromContext returns the request locale, or the default when none was negotiated
func FromContext(ctx context.Context) models.Locale {
	if loc, ok := ctx.Value(ctxKey{}).(models.Locale); ok {
		return loc
	}
	return models.DefaultLocale
}
