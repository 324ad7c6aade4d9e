package lesson

import (
	"fmt"

	"github.com/pavelanni/lessonhub/internal/model"
)

// Result is the final tally of a quiz.
type Result struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (r Result) String() string {
	return fmt.Sprintf("Score: %d / %d", r.Correct, r.Total)
}

// Outcome describes what a single Answer call did.
type Outcome struct {
	Accepted bool // false when the quiz was already complete
	Correct  bool
	Complete bool // quiz is complete after this answer
}

// State is a snapshot of the quiz for display.
type State struct {
	Index    int             // 0-based index of the question awaiting an answer
	Total    int             // number of questions
	Score    int             // correct answers so far
	Complete bool            // no question is awaiting an answer
	Question *model.Question // nil when complete
}

// Quiz steps through a fixed list of questions, one answer per question,
// and tallies correct answers. A quiz with no questions starts complete.
// Answers after completion are ignored.
type Quiz struct {
	questions []model.Question
	current   int
	score     int
	complete  bool
}

// NewQuiz creates a quiz awaiting an answer to the first question.
func NewQuiz(questions []model.Question) *Quiz {
	return &Quiz{
		questions: questions,
		complete:  len(questions) == 0,
	}
}

// Answer records the option chosen for the current question and moves on.
// An answer to a malformed question never counts as correct.
func (q *Quiz) Answer(selected int) Outcome {
	if q.complete {
		return Outcome{Complete: true}
	}

	question := q.questions[q.current]
	correct := question.Valid() && selected == question.AnswerIndex
	if correct {
		q.score++
	}

	if q.current < len(q.questions)-1 {
		q.current++
	} else {
		q.complete = true
	}

	return Outcome{Accepted: true, Correct: correct, Complete: q.complete}
}

// Complete reports whether every question has been answered.
func (q *Quiz) Complete() bool { return q.complete }

// Score returns the number of correct answers so far.
func (q *Quiz) Score() int { return q.score }

// Len returns the number of questions.
func (q *Quiz) Len() int { return len(q.questions) }

// State returns a snapshot of the quiz.
func (q *Quiz) State() State {
	s := State{
		Index:    q.current,
		Total:    len(q.questions),
		Score:    q.score,
		Complete: q.complete,
	}
	if !q.complete {
		question := q.questions[q.current]
		s.Question = &question
	}
	return s
}

// Result returns the tally. It is final once Complete reports true.
func (q *Quiz) Result() Result {
	return Result{Correct: q.score, Total: len(q.questions)}
}

// Reset restarts the quiz from the first question with a zero score.
func (q *Quiz) Reset() {
	q.current = 0
	q.score = 0
	q.complete = len(q.questions) == 0
}
