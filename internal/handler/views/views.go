// Package views holds the templ components for the HTML pages.
package views

//go:generate templ generate

import (
	"context"

	"github.com/samber/lo"

	"github.com/pavelanni/lessonhub/internal/lesson"
	"github.com/pavelanni/lessonhub/internal/model"
)

// CardView is a flashcard snapshot.
type CardView struct {
	Index    int
	Face     string
	Language model.Lang
	Revealed bool
}

// LessonView is a snapshot of an opened lesson. It is built while the
// session is locked and rendered afterwards.
type LessonView struct {
	Lesson  model.Lesson
	Cards   []CardView
	HasQuiz bool
	Quiz    lesson.State
	Result  lesson.Result
}

// NewLessonView snapshots a study.
func NewLessonView(st *lesson.Study) LessonView {
	return LessonView{
		Lesson: st.Lesson,
		Cards: lo.Map(st.Deck.Cards(), func(c *lesson.Card, i int) CardView {
			return CardView{Index: i, Face: c.Face(), Language: c.Language(), Revealed: c.Revealed()}
		}),
		HasQuiz: st.Lesson.HasQuiz(),
		Quiz:    st.Quiz.State(),
		Result:  st.Quiz.Result(),
	}
}

// path prefixes an absolute path with the deployment base path.
func path(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

func lessonPath(ctx context.Context, id, suffix string) string {
	return path(ctx, "/lessons/"+id+suffix)
}

// languageLabel returns the message ID naming lang.
func languageLabel(lang model.Lang) string {
	if lang == model.LangEnglish {
		return "English"
	}
	return "French"
}
