package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/lessonhub/internal/i18n"
	"github.com/pavelanni/lessonhub/internal/model"
	"github.com/pavelanni/lessonhub/internal/session"
)

func testCurriculum() *model.Curriculum {
	return &model.Curriculum{
		Slug:  "test",
		Title: "Test Module",
		Lessons: []model.Lesson{
			{
				ID:    "u1",
				Title: "Unité 1 – Mon autoportrait",
				Goals: []string{"Talk about likes and dislikes"},
				Vocab: []model.VocabPair{{FR: "le cinéma", EN: "cinema"}, {FR: "les araignées", EN: "spiders"}},
				Grammar: &model.Grammar{
					Title: "Regular verbs",
					Notes: []string{"Je/tu/il/elle forms"},
				},
				Quiz: &model.Quiz{Questions: []model.Question{
					{Prompt: "I do not like is", Options: []string{"J aime", "Je n aime pas"}, AnswerIndex: 1},
					{Prompt: "Article for sport", Options: []string{"le", "la", "les"}, AnswerIndex: 0},
				}},
			},
			{
				ID:    "u2",
				Title: "Unité 2 – Mon kit de survie",
				Goals: []string{"Talk about your kit"},
				Vocab: []model.VocabPair{{FR: "une trousse", EN: "a pencil case"}},
			},
			{
				ID:    "u3",
				Title: "Unité 3 – En ville",
				Goals: []string{"Find your way around town"},
				Quiz: &model.Quiz{Questions: []model.Question{
					{Prompt: "Where is the station"},
				}},
			},
		},
	}
}

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	base   string
}

func newTestServer(t *testing.T, cfg model.ServerConfig) *testClient {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	c := testCurriculum()
	h, err := New(c, session.NewManager(c, time.Hour), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	if cfg.BasePath != "" {
		r.Route(cfg.BasePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testClient{
		t:      t,
		srv:    srv,
		client: &http.Client{Jar: jar},
		base:   srv.URL + cfg.BasePath,
	}
}

func (c *testClient) get(path string) (int, string) {
	c.t.Helper()
	resp, err := c.client.Get(c.base + path)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	return readBody(c.t, resp)
}

func (c *testClient) csrfToken() string {
	c.t.Helper()
	u, _ := url.Parse(c.base + "/")
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == csrfCookieName {
			return ck.Value
		}
	}
	c.t.Fatal("no csrf cookie in jar")
	return ""
}

func (c *testClient) post(path string, form url.Values) (int, string) {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", c.csrfToken())
	}
	resp, err := c.client.PostForm(c.base+path, form)
	if err != nil {
		c.t.Fatalf("POST %s: %v", path, err)
	}
	return readBody(c.t, resp)
}

func readBody(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(b)
}

func TestLessonListAndFilter(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	code, body := c.get("/lessons")
	if code != http.StatusOK {
		t.Fatalf("GET /lessons: status %d", code)
	}
	for _, want := range []string{"Mon autoportrait", "Mon kit de survie", "3 lessons"} {
		if !strings.Contains(body, want) {
			t.Errorf("lesson list missing %q", want)
		}
	}

	_, body = c.get("/lessons?q=pencil")
	if !strings.Contains(body, "Mon kit de survie") || strings.Contains(body, "Mon autoportrait") {
		t.Errorf("filter by vocab returned wrong lessons:\n%s", body)
	}
	if !strings.Contains(body, "1 lesson") {
		t.Error("expected singular lesson count")
	}

	_, body = c.get("/lessons?q=baguette")
	if !strings.Contains(body, "No matches. Try another term.") {
		t.Error("expected no-matches message")
	}
}

func TestQuizFlow(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	code, body := c.get("/lessons/u1")
	if code != http.StatusOK {
		t.Fatalf("GET /lessons/u1: status %d", code)
	}
	if !strings.Contains(body, "Question 1 of 2") || !strings.Contains(body, "I do not like is") {
		t.Fatalf("expected first question:\n%s", body)
	}

	_, body = c.post("/lessons/u1/answer", url.Values{"option": {"1"}})
	if !strings.Contains(body, "Question 2 of 2") {
		t.Fatalf("expected second question:\n%s", body)
	}

	_, body = c.post("/lessons/u1/answer", url.Values{"option": {"0"}})
	if !strings.Contains(body, "Score: 2 / 2") {
		t.Fatalf("expected final score:\n%s", body)
	}

	// Answers after completion leave the score alone.
	_, body = c.post("/lessons/u1/answer", url.Values{"option": {"2"}})
	if !strings.Contains(body, "Score: 2 / 2") {
		t.Errorf("score changed after completion:\n%s", body)
	}

	_, body = c.post("/lessons/u1/reset", nil)
	if !strings.Contains(body, "Question 1 of 2") {
		t.Errorf("reset did not restart the quiz:\n%s", body)
	}
}

func TestQuizWrongAnswer(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})
	c.get("/lessons/u1")
	c.post("/lessons/u1/answer", url.Values{"option": {"0"}})
	_, body := c.post("/lessons/u1/answer", url.Values{"option": {"0"}})
	if !strings.Contains(body, "Score: 1 / 2") {
		t.Errorf("expected 1 / 2:\n%s", body)
	}
}

func TestLeavingLessonDiscardsState(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})
	c.get("/lessons/u1")
	c.post("/lessons/u1/answer", url.Values{"option": {"1"}})

	// Reloading the same lesson keeps progress.
	_, body := c.get("/lessons/u1")
	if !strings.Contains(body, "Question 2 of 2") {
		t.Fatalf("reload lost progress:\n%s", body)
	}

	c.get("/lessons")
	_, body = c.get("/lessons/u1")
	if !strings.Contains(body, "Question 1 of 2") {
		t.Errorf("expected a fresh quiz after leaving the lesson:\n%s", body)
	}

	c.post("/lessons/u1/answer", url.Values{"option": {"1"}})
	code, body := c.post("/lessons/clear", nil)
	if code != http.StatusOK || !strings.Contains(body, "Mon kit de survie") {
		t.Errorf("clear should land on the lesson list, got %d", code)
	}
	_, body = c.get("/lessons/u1")
	if !strings.Contains(body, "Question 1 of 2") {
		t.Errorf("expected a fresh quiz after clear:\n%s", body)
	}
}

func TestFlashcardFlip(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	_, body := c.get("/lessons/u1")
	if !strings.Contains(body, "le cinéma") || strings.Contains(body, "flashcard revealed") {
		t.Fatalf("cards should start on the French side:\n%s", body)
	}

	_, body = c.post("/lessons/u1/cards/0/flip", nil)
	if !strings.Contains(body, "cinema") || strings.Contains(body, "le cinéma") {
		t.Errorf("card 0 should show English:\n%s", body)
	}
	if !strings.Contains(body, "les araignées") {
		t.Error("card 1 should still show French")
	}
	if strings.Count(body, "flashcard revealed") != 1 {
		t.Errorf("expected exactly one revealed card")
	}

	_, body = c.post("/lessons/u1/cards/0/flip", nil)
	if !strings.Contains(body, "le cinéma") {
		t.Error("second flip should show French again")
	}

	// Out of range flips are ignored.
	code, _ := c.post("/lessons/u1/cards/9/flip", nil)
	if code != http.StatusOK {
		t.Errorf("out of range flip: status %d", code)
	}
}

func TestQuizQuestionWithoutOptions(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	_, body := c.get("/lessons/u3")
	if !strings.Contains(body, `name="option" value="-1"`) || !strings.Contains(body, "Skip question") {
		t.Fatalf("expected a skip button:\n%s", body)
	}

	_, body = c.post("/lessons/u3/answer", url.Values{"option": {"-1"}})
	if !strings.Contains(body, "Score: 0 / 1") {
		t.Errorf("skipping should finish the quiz without a point:\n%s", body)
	}
}

func TestLessonWithoutQuiz(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})
	_, body := c.get("/lessons/u2")
	if !strings.Contains(body, "This lesson has no quiz.") {
		t.Errorf("expected no-quiz message:\n%s", body)
	}
}

func TestErrors(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	if code, body := c.get("/lessons/u9"); code != http.StatusNotFound || !strings.Contains(body, "Page not found.") {
		t.Errorf("unknown lesson: status %d", code)
	}
	if code, _ := c.get("/nowhere"); code != http.StatusNotFound {
		t.Errorf("unknown path: status %d", code)
	}
	if code, _ := c.post("/lessons/u1/answer", url.Values{"option": {"x"}}); code != http.StatusBadRequest {
		t.Errorf("bad option: status %d", code)
	}
	if code, _ := c.post("/lessons/u9/answer", url.Values{"option": {"0"}}); code != http.StatusNotFound {
		t.Errorf("answer to unknown lesson: status %d", code)
	}
	if code, _ := c.post("/lessons/u1/answer", url.Values{"option": {"0"}, "csrf_token": {"forged"}}); code != http.StatusForbidden {
		t.Errorf("forged csrf token: status %d", code)
	}
}

func TestCSRFCookieRequired(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})
	resp, err := http.PostForm(c.base+"/lessons/u1/answer", url.Values{"option": {"1"}, "csrf_token": {"abc"}})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 without csrf cookie, got %d", resp.StatusCode)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newTestServer(t, model.ServerConfig{})
	a.get("/lessons/u1")
	a.post("/lessons/u1/answer", url.Values{"option": {"1"}})

	jar, _ := cookiejar.New(nil)
	b := &testClient{t: t, srv: a.srv, client: &http.Client{Jar: jar}, base: a.base}
	_, body := b.get("/lessons/u1")
	if !strings.Contains(body, "Question 1 of 2") {
		t.Errorf("second visitor saw another visitor's progress:\n%s", body)
	}
}

func TestHealthAndAPI(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})

	code, body := c.get("/healthz")
	if code != http.StatusOK {
		t.Fatalf("healthz: status %d", code)
	}
	var health map[string]any
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health["status"] != "ok" || health["variant"] != "test" || health["lessons"] != float64(3) {
		t.Errorf("unexpected health %v", health)
	}

	_, body = c.get("/api/lessons?q=survie")
	var lessons []lessonSummary
	if err := json.Unmarshal([]byte(body), &lessons); err != nil {
		t.Fatalf("decode lessons: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != "u2" {
		t.Errorf("unexpected lessons %+v", lessons)
	}

	_, body = c.get("/api/study")
	if strings.TrimSpace(body) != "null" {
		t.Errorf("expected no active study, got %s", body)
	}

	c.get("/lessons/u1")
	c.post("/lessons/u1/cards/1/flip", nil)
	c.post("/lessons/u1/answer", url.Values{"option": {"1"}})
	c.post("/lessons/u1/answer", url.Values{"option": {"2"}})
	_, body = c.get("/api/study")
	var st studyState
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decode study: %v", err)
	}
	if st.LessonID != "u1" || !st.Complete || st.Result == nil || st.Result.Correct != 1 || st.Result.Total != 2 {
		t.Errorf("unexpected study state %+v", st)
	}
	if len(st.Cards) != 2 || st.Cards[0].Revealed || !st.Cards[1].Revealed || st.Cards[1].Face != "spiders" {
		t.Errorf("unexpected cards %+v", st.Cards)
	}
	if st.Cards[0].Language != model.LangFrench || st.Cards[1].Language != model.LangEnglish {
		t.Errorf("unexpected card languages %+v", st.Cards)
	}
}

func TestBasePath(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{BasePath: "/fr"})

	code, body := c.get("/lessons")
	if code != http.StatusOK {
		t.Fatalf("GET /fr/lessons: status %d", code)
	}
	if !strings.Contains(body, `href="/fr/lessons/u1"`) {
		t.Errorf("links should carry the base path:\n%s", body)
	}

	_, body = c.post("/lessons/u1/answer", url.Values{"option": {"1"}})
	if !strings.Contains(body, "Question 2 of 2") {
		t.Errorf("answer under base path failed:\n%s", body)
	}
}

func TestLanguageSwitch(t *testing.T) {
	c := newTestServer(t, model.ServerConfig{})
	_, body := c.get("/?lang=fr")
	if !strings.Contains(body, `lang="fr"`) || !strings.Contains(body, "Accueil") {
		t.Errorf("expected French UI:\n%s", body)
	}
	// The choice sticks through the cookie.
	_, body = c.get("/lessons")
	if !strings.Contains(body, "Leçons") {
		t.Errorf("expected French UI on next page")
	}
}

func TestGallery(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c := newTestServer(t, model.ServerConfig{ImagesDir: dir})

	_, body := c.get("/gallery")
	ia, ib := strings.Index(body, "/images/a.jpg"), strings.Index(body, "/images/b.png")
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("expected sorted image list:\n%s", body)
	}
	if strings.Contains(body, "notes.txt") {
		t.Error("non-image file listed")
	}

	code, img := c.get("/images/a.jpg")
	if code != http.StatusOK || img != "x" {
		t.Errorf("image not served: %d %q", code, img)
	}

	empty := newTestServer(t, model.ServerConfig{})
	_, body = empty.get("/gallery")
	if !strings.Contains(body, "eiffel.jpg") {
		t.Error("expected default images")
	}
}
