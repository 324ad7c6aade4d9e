package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), lang, loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "French Learning Hub" {
		t.Errorf("T(AppTitle) = %q, want 'French Learning Hub'", got)
	}
	if got := T(ctx, "NoMatches"); got != "No matches. Try another term." {
		t.Errorf("T(NoMatches) = %q", got)
	}
}

func TestTranslateFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	if got := T(ctx, "NavLessons"); got != "Leçons" {
		t.Errorf("T(NavLessons) = %q, want 'Leçons'", got)
	}
	if got := LangFromContext(ctx); got != "fr" {
		t.Errorf("LangFromContext = %q", got)
	}
}

func TestFinalScoreMessage(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "FinalScore", map[string]any{"Correct": 2, "Total": 2})
	if got != "Score: 2 / 2" {
		t.Errorf("Td(FinalScore) = %q, want 'Score: 2 / 2'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "LessonsFound", 1, nil); got != "1 lesson" {
		t.Errorf("Tp(LessonsFound, 1) = %q, want '1 lesson'", got)
	}
	if got := Tp(ctx, "LessonsFound", 6, nil); got != "6 lessons" {
		t.Errorf("Tp(LessonsFound, 6) = %q, want '6 lessons'", got)
	}
	got := Tp(ctx, "InsideLessons", 6, map[string]any{"Title": "Studio 1"})
	if got != "6 lessons from Studio 1" {
		t.Errorf("Tp(InsideLessons) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestInitRejectsUnsupported(t *testing.T) {
	if err := Init("de"); err == nil {
		t.Error("expected error for unsupported language")
	}
	if err := Init("not a tag!"); err == nil {
		t.Error("expected parse error")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		prefs []string
		want  string
	}{
		{[]string{"fr"}, "fr"},
		{[]string{"fr-CA,fr;q=0.9,en;q=0.5"}, "fr"},
		{[]string{"en-GB"}, "en"},
		{[]string{"de"}, "en"},
		{[]string{"de", "fr"}, "fr"},
	}
	for _, tt := range tests {
		if got := Match(tt.prefs...); got != tt.want {
			t.Errorf("Match(%v) = %q, want %q", tt.prefs, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var gotLang, gotTitle string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = LangFromContext(r.Context())
		gotTitle = T(r.Context(), "NavHome")
	}))

	tests := []struct {
		name      string
		setup     func(r *http.Request)
		wantLang  string
		wantTitle string
	}{
		{"default", func(*http.Request) {}, "en", "Home"},
		{"accept-language", func(r *http.Request) { r.Header.Set("Accept-Language", "fr-FR,fr;q=0.9") }, "fr", "Accueil"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "lang", Value: "fr"}) }, "fr", "Accueil"},
		{"query beats cookie", func(r *http.Request) {
			r.URL.RawQuery = "lang=en"
			r.AddCookie(&http.Cookie{Name: "lang", Value: "fr"})
		}, "en", "Home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			h.ServeHTTP(httptest.NewRecorder(), r)
			if gotLang != tt.wantLang || gotTitle != tt.wantTitle {
				t.Errorf("got (%q, %q), want (%q, %q)", gotLang, gotTitle, tt.wantLang, tt.wantTitle)
			}
		})
	}
}
