package curriculum

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/pavelanni/lessonhub/internal/model"
)

//go:embed data/*.json
var dataFS embed.FS

var (
	// ErrDuplicateLessonID is returned when two lessons of one curriculum share an ID.
	ErrDuplicateLessonID = errors.New("duplicate lesson id")
	// ErrMissingSlug is returned when a curriculum document has no slug.
	ErrMissingSlug = errors.New("curriculum slug is required")
	// ErrUnknownVariant is returned when no curriculum is registered under a slug.
	ErrUnknownVariant = errors.New("unknown curriculum variant")
	// ErrDuplicateVariant is returned when a slug is registered twice.
	ErrDuplicateVariant = errors.New("curriculum variant already registered")
)

// Problem describes a content defect found by Validate. Question is -1 for
// lesson-level problems.
type Problem struct {
	LessonID string
	Question int
	Msg      string
}

func (p Problem) String() string {
	if p.Question < 0 {
		return fmt.Sprintf("lesson %q: %s", p.LessonID, p.Msg)
	}
	return fmt.Sprintf("lesson %q question %d: %s", p.LessonID, p.Question+1, p.Msg)
}

// Parse decodes a curriculum document. Lesson IDs must be unique; other
// content defects are left for Validate to report.
func Parse(data []byte) (*model.Curriculum, error) {
	var c model.Curriculum
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	c.Slug = strings.TrimSpace(c.Slug)
	if c.Slug == "" {
		return nil, ErrMissingSlug
	}
	seen := make(map[string]bool, len(c.Lessons))
	for _, l := range c.Lessons {
		if seen[l.ID] {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateLessonID, l.ID, c.Slug)
		}
		seen[l.ID] = true
	}
	return &c, nil
}

// Validate reports content-authoring defects. An empty result means every
// quiz question is answerable and every lesson is addressable.
func Validate(c *model.Curriculum) []Problem {
	var problems []Problem
	seen := make(map[string]bool, len(c.Lessons))
	for _, l := range c.Lessons {
		switch {
		case strings.TrimSpace(l.ID) == "":
			problems = append(problems, Problem{LessonID: l.Title, Question: -1, Msg: "empty id"})
		case seen[l.ID]:
			problems = append(problems, Problem{LessonID: l.ID, Question: -1, Msg: "duplicate id"})
		}
		seen[l.ID] = true

		if l.Grammar != nil && strings.TrimSpace(l.Grammar.Title) == "" {
			problems = append(problems, Problem{LessonID: l.ID, Question: -1, Msg: "grammar block without title"})
		}
		for i, q := range l.Questions() {
			if len(q.Options) < 2 {
				problems = append(problems, Problem{LessonID: l.ID, Question: i,
					Msg: fmt.Sprintf("needs at least 2 options, has %d", len(q.Options))})
				continue
			}
			if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
				problems = append(problems, Problem{LessonID: l.ID, Question: i,
					Msg: fmt.Sprintf("answer index %d out of range [0,%d)", q.AnswerIndex, len(q.Options))})
			}
		}
	}
	return problems
}

// Embedded returns the curricula compiled into the binary, sorted by slug.
func Embedded() ([]*model.Curriculum, error) {
	return loadFS(dataFS, "data")
}

func loadFS(fsys fs.FS, dir string) ([]*model.Curriculum, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []*model.Curriculum
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Registry holds curriculum variants keyed by slug. Variants are kept
// side by side and never merged.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]*model.Curriculum
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{variants: make(map[string]*model.Curriculum)}
}

// Register adds a curriculum. Registering a slug twice is an error.
func (r *Registry) Register(c *model.Curriculum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[c.Slug]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariant, c.Slug)
	}
	r.variants[c.Slug] = c
	if problems := Validate(c); len(problems) > 0 {
		for _, p := range problems {
			slog.Warn("curriculum content problem", "variant", c.Slug, "problem", p.String())
		}
	}
	slog.Debug("registered curriculum", "variant", c.Slug, "lessons", len(c.Lessons))
	return nil
}

// Get returns the curriculum registered under slug.
func (r *Registry) Get(slug string) (*model.Curriculum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.variants[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, slug)
	}
	return c, nil
}

// Slugs returns the registered variant slugs in sorted order.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.variants))
	for s := range r.variants {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
