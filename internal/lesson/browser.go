package lesson

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/pavelanni/lessonhub/internal/model"
)

// Filter returns the lessons whose title, goals or vocabulary contain query,
// ignoring case. An empty or blank query returns every lesson. Order is
// preserved.
func Filter(lessons []model.Lesson, query string) []model.Lesson {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return lo.Filter(lessons, func(model.Lesson, int) bool { return true })
	}
	return lo.Filter(lessons, func(l model.Lesson, _ int) bool {
		return strings.Contains(fold(l.Title), q) ||
			strings.Contains(fold(strings.Join(l.Goals, " ")), q) ||
			strings.Contains(fold(vocabText(l.Vocab)), q)
	})
}

// fold normalizes s to NFC and applies Unicode case folding, so that
// "ÉTÉ" matches "été" whether accents are composed or not.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// vocabText serializes the vocabulary the way it is searched: as JSON,
// without HTML escaping.
func vocabText(vocab []model.VocabPair) string {
	if vocab == nil {
		vocab = []model.VocabPair{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vocab); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Study is the interaction state of one opened lesson.
type Study struct {
	Lesson model.Lesson
	Quiz   *Quiz
	Deck   *Deck
}

func newStudy(l model.Lesson) *Study {
	return &Study{
		Lesson: l,
		Quiz:   NewQuiz(l.Questions()),
		Deck:   NewDeck(l.Vocab),
	}
}

// Browser lists the lessons of a curriculum and owns the single active
// lesson. It is not safe for concurrent use.
type Browser struct {
	curriculum *model.Curriculum
	active     *Study
}

// NewBrowser creates a browser with no active lesson.
func NewBrowser(c *model.Curriculum) *Browser {
	return &Browser{curriculum: c}
}

// Curriculum returns the curriculum being browsed.
func (b *Browser) Curriculum() *model.Curriculum { return b.curriculum }

// Filter applies Filter to the curriculum's lessons.
func (b *Browser) Filter(query string) []model.Lesson {
	return Filter(b.curriculum.Lessons, query)
}

// Select makes the lesson with the given ID active, discarding the
// interaction state of any other lesson. Selecting the lesson that is
// already active keeps its state. Unknown IDs return false and leave the
// browser unchanged.
func (b *Browser) Select(id string) bool {
	if b.active != nil && b.active.Lesson.ID == id {
		return true
	}
	l, ok := b.curriculum.Lesson(id)
	if !ok {
		return false
	}
	b.active = newStudy(l)
	return true
}

// Clear discards the active lesson, if any.
func (b *Browser) Clear() {
	b.active = nil
}

// Active returns the active lesson's interaction state, or nil.
func (b *Browser) Active() *Study {
	return b.active
}
