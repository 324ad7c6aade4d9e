package store

import (
	"errors"
	"testing"

	"github.com/pavelanni/lessonhub/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCurriculum(slug string) *model.Curriculum {
	return &model.Curriculum{
		Slug:  slug,
		Title: "Studio 1 – Module 1",
		Lessons: []model.Lesson{
			{
				ID:    "u2",
				Title: "Unité 2 – Mon kit de survie",
				Goals: []string{"Talk about your kit"},
				Vocab: []model.VocabPair{{FR: "une trousse", EN: "a pencil case"}},
				Grammar: &model.Grammar{
					Title:    "Avoir + negation",
					Notes:    []string{"j’ai / tu as / il/elle a"},
					Examples: []model.VocabPair{{FR: "Je n’ai pas de clé USB.", EN: "I don’t have a USB stick."}},
				},
				Quiz: &model.Quiz{Questions: []model.Question{
					{Prompt: "Complete: Tu ___ un portable.", Options: []string{"ai", "as", "a"}, AnswerIndex: 1},
				}},
			},
			{
				ID:    "u1",
				Title: "Unité 1 – Mon autoportrait",
				Vocab: []model.VocabPair{{FR: "le cinéma", EN: "cinema"}},
			},
		},
	}
}

func TestCurriculumRoundTrip(t *testing.T) {
	s := newTestStore(t)

	count, err := s.CurriculumCount()
	if err != nil {
		t.Fatalf("CurriculumCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 curricula, got %d", count)
	}

	if err := s.SaveCurriculum(testCurriculum("studio1"), "embedded:studio1.json"); err != nil {
		t.Fatalf("SaveCurriculum: %v", err)
	}

	got, err := s.LoadCurriculum("studio1")
	if err != nil {
		t.Fatalf("LoadCurriculum: %v", err)
	}
	if got.Title != "Studio 1 – Module 1" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if len(got.Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(got.Lessons))
	}
	// Stored order is the document order, not ID order.
	if got.Lessons[0].ID != "u2" || got.Lessons[1].ID != "u1" {
		t.Errorf("lesson order not preserved: %s, %s", got.Lessons[0].ID, got.Lessons[1].ID)
	}
	u2 := got.Lessons[0]
	if u2.Grammar == nil || u2.Grammar.Title != "Avoir + negation" || len(u2.Grammar.Examples) != 1 {
		t.Errorf("grammar not preserved: %+v", u2.Grammar)
	}
	if !u2.HasQuiz() || u2.Quiz.Questions[0].AnswerIndex != 1 {
		t.Errorf("quiz not preserved: %+v", u2.Quiz)
	}
	u1 := got.Lessons[1]
	if u1.Grammar != nil || u1.Quiz != nil {
		t.Error("optional sections should stay absent")
	}
}

func TestLoadCurriculumNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadCurriculum("missing")
	if !errors.Is(err, ErrCurriculumNotFound) {
		t.Errorf("expected ErrCurriculumNotFound, got %v", err)
	}
}

func TestSaveCurriculumReplaceAndConflict(t *testing.T) {
	s := newTestStore(t)

	c := testCurriculum("studio1")
	if err := s.SaveCurriculum(c, "a.json"); err != nil {
		t.Fatalf("SaveCurriculum: %v", err)
	}

	// Same source replaces lessons.
	c.Lessons = c.Lessons[:1]
	c.Title = "Updated"
	if err := s.SaveCurriculum(c, "a.json"); err != nil {
		t.Fatalf("SaveCurriculum replace: %v", err)
	}
	got, err := s.LoadCurriculum("studio1")
	if err != nil {
		t.Fatalf("LoadCurriculum: %v", err)
	}
	if got.Title != "Updated" || len(got.Lessons) != 1 {
		t.Errorf("expected replaced curriculum, got %q with %d lessons", got.Title, len(got.Lessons))
	}

	// Another source with the same slug is rejected.
	err = s.SaveCurriculum(testCurriculum("studio1"), "b.json")
	if !errors.Is(err, ErrVariantConflict) {
		t.Errorf("expected ErrVariantConflict, got %v", err)
	}
	got, _ = s.LoadCurriculum("studio1")
	if len(got.Lessons) != 1 {
		t.Errorf("conflicting save modified stored lessons: %d", len(got.Lessons))
	}
}

func TestListAndDeleteCurricula(t *testing.T) {
	s := newTestStore(t)

	for _, slug := range []string{"studio1", "basic"} {
		if err := s.SaveCurriculum(testCurriculum(slug), slug+".json"); err != nil {
			t.Fatalf("SaveCurriculum(%s): %v", slug, err)
		}
	}

	infos, err := s.ListCurricula()
	if err != nil {
		t.Fatalf("ListCurricula: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 curricula, got %d", len(infos))
	}
	if infos[0].Slug != "basic" || infos[1].Slug != "studio1" {
		t.Errorf("expected slug order [basic studio1], got [%s %s]", infos[0].Slug, infos[1].Slug)
	}
	if infos[0].LessonCount != 2 || infos[0].Source != "basic.json" {
		t.Errorf("unexpected info %+v", infos[0])
	}
	if infos[0].ImportedAt.IsZero() {
		t.Error("expected imported_at to be set")
	}

	if err := s.SetImportedFileHash("basic.json", "abc"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.DeleteCurriculum("basic"); err != nil {
		t.Fatalf("DeleteCurriculum: %v", err)
	}
	if hash, _ := s.GetImportedFileHash("basic.json"); hash != "" {
		t.Errorf("expected import record to be dropped, got %q", hash)
	}
	if err := s.DeleteCurriculum("basic"); !errors.Is(err, ErrCurriculumNotFound) {
		t.Errorf("expected ErrCurriculumNotFound on second delete, got %v", err)
	}
	count, _ := s.CurriculumCount()
	if count != 1 {
		t.Errorf("expected 1 curriculum left, got %d", count)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	// Update existing.
	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}
