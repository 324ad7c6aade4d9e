package i18n

import (
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const langCookieName = "lang"

// Middleware picks the UI language per request from the "lang" query
// parameter, then the lang cookie, then Accept-Language, falling back to
// defaultLang. A "lang" query parameter is remembered in a cookie.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	defaultLang = Match(defaultLang)
	localizers := make(map[string]*i18n.Localizer, len(Supported))
	for _, tag := range Supported {
		code := base(tag)
		localizers[code] = NewLocalizer(code, defaultLang)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLang
			if q := r.URL.Query().Get("lang"); q != "" {
				lang = Match(q)
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    lang,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(langCookieName); err == nil && c.Value != "" {
				lang = Match(c.Value)
			} else if al := r.Header.Get("Accept-Language"); al != "" {
				lang = Match(al, defaultLang)
			}
			ctx := WithLocalizer(r.Context(), lang, localizers[lang])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
