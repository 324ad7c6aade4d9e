package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/lessonhub/internal/model"

	_ "modernc.org/sqlite"
)

var (
	// ErrCurriculumNotFound is returned when no curriculum is stored under a slug.
	ErrCurriculumNotFound = errors.New("curriculum not found")
	// ErrVariantConflict is returned when a slug is already owned by another source.
	ErrVariantConflict = errors.New("curriculum slug already imported from another source")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS curricula (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lessons (
		curriculum_slug TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (curriculum_slug, id),
		FOREIGN KEY (curriculum_slug) REFERENCES curricula(slug) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCurriculum stores a curriculum and its lessons in order. Saving a slug
// again from the same source replaces the stored lessons; a slug owned by a
// different source is rejected so that variants are never merged.
func (s *Store) SaveCurriculum(c *model.Curriculum, source string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRow(`SELECT source FROM curricula WHERE slug = ?`, c.Slug).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	case owner != source:
		return fmt.Errorf("%w: %s (owned by %s)", ErrVariantConflict, c.Slug, owner)
	}

	_, err = tx.Exec(
		`INSERT INTO curricula (slug, title, source, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET title = ?, imported_at = ?`,
		c.Slug, c.Title, source, time.Now(), c.Title, time.Now(),
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM lessons WHERE curriculum_slug = ?`, c.Slug); err != nil {
		return err
	}

	for i, l := range c.Lessons {
		body, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode lesson %s: %w", l.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO lessons (curriculum_slug, position, id, title, body) VALUES (?, ?, ?, ?, ?)`,
			c.Slug, i, l.ID, l.Title, string(body),
		)
		if err != nil {
			return fmt.Errorf("insert lesson %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// LoadCurriculum returns the curriculum stored under slug with lessons in
// their original order.
func (s *Store) LoadCurriculum(slug string) (*model.Curriculum, error) {
	c := model.Curriculum{Slug: slug}
	err := s.db.QueryRow(`SELECT title FROM curricula WHERE slug = ?`, slug).Scan(&c.Title)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrCurriculumNotFound, slug)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT body FROM lessons WHERE curriculum_slug = ? ORDER BY position`, slug,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var l model.Lesson
		if err := json.Unmarshal([]byte(body), &l); err != nil {
			return nil, fmt.Errorf("decode lesson in %s: %w", slug, err)
		}
		c.Lessons = append(c.Lessons, l)
	}
	return &c, rows.Err()
}

// ListCurricula returns a summary of every stored curriculum, ordered by slug.
func (s *Store) ListCurricula() ([]model.CurriculumInfo, error) {
	rows, err := s.db.Query(
		`SELECT c.slug, c.title, c.source, c.imported_at, COUNT(l.id)
		 FROM curricula c LEFT JOIN lessons l ON l.curriculum_slug = c.slug
		 GROUP BY c.slug ORDER BY c.slug`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var infos []model.CurriculumInfo
	for rows.Next() {
		var ci model.CurriculumInfo
		if err := rows.Scan(&ci.Slug, &ci.Title, &ci.Source, &ci.ImportedAt, &ci.LessonCount); err != nil {
			return nil, err
		}
		infos = append(infos, ci)
	}
	return infos, rows.Err()
}

// DeleteCurriculum removes a curriculum, its lessons and the import record
// of its source, so the source is imported again if it comes back.
func (s *Store) DeleteCurriculum(slug string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var source string
	err = tx.QueryRow(`SELECT source FROM curricula WHERE slug = ?`, slug).Scan(&source)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrCurriculumNotFound, slug)
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM curricula WHERE slug = ?`, slug); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM imported_files WHERE path = ?`, source); err != nil {
		return err
	}
	return tx.Commit()
}

// CurriculumCount returns the number of stored curricula.
func (s *Store) CurriculumCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM curricula`).Scan(&count)
	return count, err
}
