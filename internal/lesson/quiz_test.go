package lesson

import (
	"testing"

	"github.com/pavelanni/lessonhub/internal/model"
)

func twoQuestions() []model.Question {
	return []model.Question{
		{Prompt: "‘I don’t like’ is…", Options: []string{"J’aime", "Je n’aime pas", "Tu aimes"}, AnswerIndex: 1},
		{Prompt: "Article for ‘___ sport’?", Options: []string{"le", "la", "les"}, AnswerIndex: 0},
	}
}

func TestQuizAllCorrect(t *testing.T) {
	q := NewQuiz(twoQuestions())

	out := q.Answer(1)
	if !out.Accepted || !out.Correct || out.Complete {
		t.Fatalf("first answer: unexpected outcome %+v", out)
	}
	if s := q.State(); s.Index != 1 || s.Question == nil || s.Question.Prompt != "Article for ‘___ sport’?" {
		t.Fatalf("expected second question awaiting, got %+v", s)
	}

	out = q.Answer(0)
	if !out.Accepted || !out.Correct || !out.Complete {
		t.Fatalf("second answer: unexpected outcome %+v", out)
	}

	res := q.Result()
	if res.Correct != 2 || res.Total != 2 {
		t.Errorf("Result() = %+v, want 2/2", res)
	}
	if got := res.String(); got != "Score: 2 / 2" {
		t.Errorf("Result().String() = %q", got)
	}
}

func TestQuizSingleWrongAnswer(t *testing.T) {
	q := NewQuiz([]model.Question{
		{Prompt: "‘I live in’ is …", Options: []string{"Je suis", "J’habite à", "Je vais"}, AnswerIndex: 1},
	})

	out := q.Answer(0)
	if !out.Accepted || out.Correct || !out.Complete {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !q.Complete() {
		t.Error("expected quiz to be complete")
	}
	if got := q.Result().String(); got != "Score: 0 / 1" {
		t.Errorf("Result() = %q, want 'Score: 0 / 1'", got)
	}
	if s := q.State(); s.Question != nil {
		t.Error("complete quiz should not expose a question")
	}
}

func TestQuizAnswerAfterComplete(t *testing.T) {
	q := NewQuiz(twoQuestions())
	q.Answer(1)
	q.Answer(0)

	before := q.State()
	for _, sel := range []int{0, 1, 2, -1, 99} {
		out := q.Answer(sel)
		if out.Accepted {
			t.Errorf("Answer(%d) after completion was accepted", sel)
		}
		if !out.Complete {
			t.Errorf("Answer(%d) after completion reported incomplete", sel)
		}
	}
	if after := q.State(); after != before {
		t.Errorf("state changed after completion: before %+v, after %+v", before, after)
	}
	if q.Score() != 2 {
		t.Errorf("score changed to %d", q.Score())
	}
}

func TestQuizNoQuestions(t *testing.T) {
	for _, qs := range [][]model.Question{nil, {}} {
		q := NewQuiz(qs)
		if !q.Complete() {
			t.Fatal("empty quiz should start complete")
		}
		out := q.Answer(0)
		if out.Accepted {
			t.Error("empty quiz accepted an answer")
		}
		if got := q.Result().String(); got != "Score: 0 / 0" {
			t.Errorf("Result() = %q", got)
		}
		q.Reset()
		if !q.Complete() {
			t.Error("empty quiz should stay complete after Reset")
		}
	}
}

func TestQuizMalformedQuestions(t *testing.T) {
	tests := []struct {
		name     string
		question model.Question
		selected int
	}{
		{"answer index past options", model.Question{Options: []string{"a", "b"}, AnswerIndex: 2}, 2},
		{"negative answer index", model.Question{Options: []string{"a", "b"}, AnswerIndex: -1}, -1},
		{"no options", model.Question{AnswerIndex: 0}, 0},
		{"single option", model.Question{Options: []string{"a"}, AnswerIndex: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuiz([]model.Question{tt.question})
			out := q.Answer(tt.selected)
			if out.Correct {
				t.Error("malformed question must not count as correct")
			}
			if !out.Complete {
				t.Error("expected completion")
			}
			if q.Score() != 0 {
				t.Errorf("score = %d, want 0", q.Score())
			}
		})
	}
}

func TestQuizMixedAndReset(t *testing.T) {
	q := NewQuiz(twoQuestions())
	if out := q.Answer(2); out.Correct {
		t.Error("option 2 should be wrong")
	}
	q.Answer(0)
	if got := q.Result(); got != (Result{Correct: 1, Total: 2}) {
		t.Errorf("Result() = %+v, want 1/2", got)
	}

	q.Reset()
	s := q.State()
	if s.Complete || s.Index != 0 || s.Score != 0 || s.Total != 2 {
		t.Errorf("unexpected state after Reset: %+v", s)
	}
}
