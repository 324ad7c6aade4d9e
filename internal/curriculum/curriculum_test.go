package curriculum

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/lessonhub/internal/model"
)

func TestEmbeddedAnswerIndexesValid(t *testing.T) {
	all, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected at least one embedded curriculum")
	}
	for _, c := range all {
		for _, l := range c.Lessons {
			for i, q := range l.Questions() {
				if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
					t.Errorf("%s/%s question %d: answer %d not in options (%d)",
						c.Slug, l.ID, i, q.AnswerIndex, len(q.Options))
				}
			}
		}
		if problems := Validate(c); len(problems) != 0 {
			t.Errorf("%s: unexpected problems: %v", c.Slug, problems)
		}
	}
}

func TestEmbeddedStudio1(t *testing.T) {
	all, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	var studio *model.Curriculum
	for _, c := range all {
		if c.Slug == "studio1" {
			studio = c
		}
	}
	if studio == nil {
		t.Fatal("studio1 not embedded")
	}
	if len(studio.Lessons) != 6 {
		t.Fatalf("expected 6 lessons, got %d", len(studio.Lessons))
	}
	if studio.Lessons[0].ID != "u1" || studio.Lessons[5].ID != "u6" {
		t.Errorf("unexpected lesson order: %s..%s", studio.Lessons[0].ID, studio.Lessons[5].ID)
	}
	u6, ok := studio.Lesson("u6")
	if !ok {
		t.Fatal("u6 not found")
	}
	if len(u6.Questions()) != 1 {
		t.Errorf("u6: expected 1 question, got %d", len(u6.Questions()))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"ok", `{"slug":"a","title":"A","lessons":[{"id":"x"},{"id":"y"}]}`, nil},
		{"missing slug", `{"title":"A","lessons":[]}`, ErrMissingSlug},
		{"duplicate ids", `{"slug":"a","lessons":[{"id":"x"},{"id":"x"}]}`, ErrDuplicateLessonID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseOptionalSections(t *testing.T) {
	c, err := Parse([]byte(`{"slug":"a","lessons":[{"id":"x","title":"X","vocab":[{"fr":"oui","en":"yes"}]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	l := c.Lessons[0]
	if l.Grammar != nil {
		t.Error("expected nil grammar")
	}
	if l.Quiz != nil || l.HasQuiz() {
		t.Error("expected no quiz")
	}
	if l.Questions() != nil {
		t.Error("expected nil questions")
	}
}

func TestValidate(t *testing.T) {
	c := &model.Curriculum{
		Slug: "broken",
		Lessons: []model.Lesson{
			{ID: "a", Quiz: &model.Quiz{Questions: []model.Question{
				{Prompt: "ok", Options: []string{"x", "y"}, AnswerIndex: 1},
				{Prompt: "out of range", Options: []string{"x", "y"}, AnswerIndex: 2},
				{Prompt: "negative", Options: []string{"x", "y"}, AnswerIndex: -1},
				{Prompt: "one option", Options: []string{"x"}, AnswerIndex: 0},
			}}},
			{ID: "a"},
			{ID: "", Title: "nameless"},
			{ID: "g", Grammar: &model.Grammar{}},
		},
	}

	problems := Validate(c)
	if len(problems) != 6 {
		t.Fatalf("expected 6 problems, got %d: %v", len(problems), problems)
	}
	want := []string{
		`lesson "a" question 2: answer index 2 out of range`,
		`lesson "a" question 3: answer index -1 out of range`,
		`lesson "a" question 4: needs at least 2 options`,
		`lesson "a": duplicate id`,
		`lesson "nameless": empty id`,
		`lesson "g": grammar block without title`,
	}
	for i, w := range want {
		if !strings.HasPrefix(problems[i].String(), w) {
			t.Errorf("problem %d = %q, want prefix %q", i, problems[i].String(), w)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := &model.Curriculum{Slug: "b-variant"}
	b := &model.Curriculum{Slug: "a-variant"}
	if err := r.Register(a); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(b); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Register(&model.Curriculum{Slug: "a-variant"}); !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("expected ErrDuplicateVariant, got %v", err)
	}

	got, err := r.Get("b-variant")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("Get returned a different curriculum")
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}

	slugs := r.Slugs()
	if len(slugs) != 2 || slugs[0] != "a-variant" || slugs[1] != "b-variant" {
		t.Errorf("Slugs() = %v", slugs)
	}
}
