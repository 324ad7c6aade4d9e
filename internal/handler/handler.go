package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/lessonhub/internal/handler/views"
	"github.com/pavelanni/lessonhub/internal/lesson"
	"github.com/pavelanni/lessonhub/internal/model"
	"github.com/pavelanni/lessonhub/internal/session"
)

// defaultImages is listed by the gallery when no images directory yields any images.
var defaultImages = []string{"eiffel.jpg", "flag.png", "croissant.png"}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	curriculum *model.Curriculum
	sessions   *session.Manager
	config     model.ServerConfig
}

// New creates a new Handler.
func New(c *model.Curriculum, sessions *session.Manager, cfg model.ServerConfig) (*Handler, error) {
	if c == nil {
		return nil, fmt.Errorf("curriculum is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &Handler{curriculum: c, sessions: sessions, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.config.ImagesDir != "" {
		r.Handle("/images/*", http.StripPrefix(h.path("/images/"), http.FileServer(http.Dir(h.config.ImagesDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Use(h.studySession)

		r.Get("/", h.handleIndex)
		r.Get("/lessons", h.handleLessons)
		r.Post("/lessons/clear", h.handleClear)
		r.Get("/lessons/{lessonID}", h.handleLesson)
		r.Post("/lessons/{lessonID}/cards/{index}/flip", h.handleFlip)
		r.Post("/lessons/{lessonID}/answer", h.handleAnswer)
		r.Post("/lessons/{lessonID}/reset", h.handleReset)
		r.Get("/culture", h.handleCulture)
		r.Get("/gallery", h.handleGallery)
		r.Get("/api/lessons", h.handleAPILessons)
		r.Get("/api/study", h.handleAPIStudy)
		r.NotFound(h.handleNotFound)
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode error", "error", err)
	}
}

// leaveLesson discards the active lesson; any page other than the lesson
// itself counts as navigating away.
func leaveLesson(r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		s.Do(func(b *lesson.Browser) { b.Clear() })
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"variant":  h.curriculum.Slug,
		"lessons":  len(h.curriculum.Lessons),
		"sessions": h.sessions.Len(),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	leaveLesson(r)
	render(w, r, http.StatusOK, views.IndexPage(h.curriculum))
}

func (h *Handler) handleLessons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	var lessons []model.Lesson
	session.FromContext(r.Context()).Do(func(b *lesson.Browser) {
		b.Clear()
		lessons = b.Filter(query)
	})
	render(w, r, http.StatusOK, views.LessonsPage(query, lessons))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	leaveLesson(r)
	http.Redirect(w, r, h.path("/lessons"), http.StatusSeeOther)
}

// withLesson selects the lesson named in the URL and runs fn on its study
// while the session is locked. It returns false when the lesson is unknown.
func withLesson(r *http.Request, fn func(st *lesson.Study)) bool {
	id := chi.URLParam(r, "lessonID")
	found := false
	session.FromContext(r.Context()).Do(func(b *lesson.Browser) {
		if !b.Select(id) {
			return
		}
		found = true
		fn(b.Active())
	})
	return found
}

func (h *Handler) handleLesson(w http.ResponseWriter, r *http.Request) {
	var view views.LessonView
	if !withLesson(r, func(st *lesson.Study) { view = views.NewLessonView(st) }) {
		render(w, r, http.StatusNotFound, views.NotFoundPage())
		return
	}
	render(w, r, http.StatusOK, views.LessonPage(view))
}

func (h *Handler) redirectToLesson(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path("/lessons/"+chi.URLParam(r, "lessonID")), http.StatusSeeOther)
}

func (h *Handler) handleFlip(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid card index", http.StatusBadRequest)
		return
	}
	if !withLesson(r, func(st *lesson.Study) { st.Deck.Toggle(index) }) {
		http.NotFound(w, r)
		return
	}
	h.redirectToLesson(w, r)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	option, err := strconv.Atoi(r.FormValue("option"))
	if err != nil {
		http.Error(w, "invalid option", http.StatusBadRequest)
		return
	}
	var out lesson.Outcome
	if !withLesson(r, func(st *lesson.Study) { out = st.Quiz.Answer(option) }) {
		http.NotFound(w, r)
		return
	}
	slog.Debug("quiz answer",
		"lesson", chi.URLParam(r, "lessonID"),
		"accepted", out.Accepted,
		"correct", out.Correct,
		"complete", out.Complete,
	)
	h.redirectToLesson(w, r)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if !withLesson(r, func(st *lesson.Study) { st.Quiz.Reset() }) {
		http.NotFound(w, r)
		return
	}
	h.redirectToLesson(w, r)
}

func (h *Handler) handleCulture(w http.ResponseWriter, r *http.Request) {
	leaveLesson(r)
	render(w, r, http.StatusOK, views.CulturePage())
}

func (h *Handler) handleGallery(w http.ResponseWriter, r *http.Request) {
	leaveLesson(r)
	render(w, r, http.StatusOK, views.GalleryPage(h.galleryImages()))
}

func (h *Handler) galleryImages() []string {
	if h.config.ImagesDir == "" {
		return defaultImages
	}
	entries, err := os.ReadDir(h.config.ImagesDir)
	if err != nil {
		slog.Debug("images directory unreadable, using defaults", "dir", h.config.ImagesDir, "error", err)
		return defaultImages
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
			images = append(images, e.Name())
		}
	}
	if len(images) == 0 {
		return defaultImages
	}
	sort.Strings(images)
	return images
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, views.NotFoundPage())
}

type lessonSummary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Goals []string `json:"goals"`
}

func (h *Handler) handleAPILessons(w http.ResponseWriter, r *http.Request) {
	var lessons []model.Lesson
	session.FromContext(r.Context()).Do(func(b *lesson.Browser) {
		lessons = b.Filter(r.URL.Query().Get("q"))
	})
	out := make([]lessonSummary, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonSummary{ID: l.ID, Title: l.Title, Goals: l.Goals})
	}
	writeJSON(w, http.StatusOK, out)
}

type cardState struct {
	Face     string     `json:"face"`
	Language model.Lang `json:"language"`
	Revealed bool       `json:"revealed"`
}

type studyState struct {
	LessonID string         `json:"lesson_id"`
	Cards    []cardState    `json:"cards"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Score    int            `json:"score"`
	Complete bool           `json:"complete"`
	Result   *lesson.Result `json:"result,omitempty"`
}

func (h *Handler) handleAPIStudy(w http.ResponseWriter, r *http.Request) {
	var state *studyState
	session.FromContext(r.Context()).Do(func(b *lesson.Browser) {
		st := b.Active()
		if st == nil {
			return
		}
		qs := st.Quiz.State()
		state = &studyState{
			LessonID: st.Lesson.ID,
			Index:    qs.Index,
			Total:    qs.Total,
			Score:    qs.Score,
			Complete: qs.Complete,
		}
		for _, c := range st.Deck.Cards() {
			state.Cards = append(state.Cards, cardState{Face: c.Face(), Language: c.Language(), Revealed: c.Revealed()})
		}
		if qs.Complete {
			res := st.Quiz.Result()
			state.Result = &res
		}
	})
	writeJSON(w, http.StatusOK, state)
}
