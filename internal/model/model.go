package model

import (
	"context"
	"time"
)

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// Lang identifies one side of a vocabulary pair.
type Lang string

const (
	LangFrench  Lang = "fr"
	LangEnglish Lang = "en"
)

// VocabPair is a French phrase with its English gloss. Grammar examples
// use the same shape.
type VocabPair struct {
	FR string `json:"fr"`
	EN string `json:"en"`
}

// Grammar is the optional grammar block of a lesson.
type Grammar struct {
	Title    string      `json:"title"`
	Notes    []string    `json:"notes"`
	Examples []VocabPair `json:"examples"`
}

// Question is a single multiple-choice quiz question.
type Question struct {
	Prompt      string   `json:"q"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer"`
}

// Valid reports whether the question has at least two options and an
// answer index pointing into them.
func (q Question) Valid() bool {
	return len(q.Options) >= 2 && q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options)
}

// Quiz is the optional quiz block of a lesson.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Lesson is one thematic unit of a curriculum.
type Lesson struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Goals   []string    `json:"goals"`
	Vocab   []VocabPair `json:"vocab"`
	Grammar *Grammar    `json:"grammar,omitempty"`
	Quiz    *Quiz       `json:"quiz,omitempty"`
}

// HasQuiz reports whether the lesson carries at least one quiz question.
func (l Lesson) HasQuiz() bool {
	return l.Quiz != nil && len(l.Quiz.Questions) > 0
}

// Questions returns the quiz questions, or nil when the lesson has no quiz.
func (l Lesson) Questions() []Question {
	if l.Quiz == nil {
		return nil
	}
	return l.Quiz.Questions
}

// Curriculum is an ordered, read-only collection of lessons. Slug names the
// content variant; variants are never merged.
type Curriculum struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given ID.
func (c *Curriculum) Lesson(id string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return Lesson{}, false
}

// CurriculumInfo summarizes a stored curriculum variant.
type CurriculumInfo struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	LessonCount int       `json:"lesson_count"`
	Source      string    `json:"source"`
	ImportedAt  time.Time `json:"imported_at"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Variant       string        // curriculum variant slug to serve
	BasePath      string        // URL prefix for sub-path deployments (e.g. "/fr")
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	SessionTTL    time.Duration // idle lifetime of a study session
	ImagesDir     string        // directory served under /images/ and listed by the gallery
}
