package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/pavelanni/lessonhub/internal/curriculum"
	"github.com/pavelanni/lessonhub/internal/model"
	"github.com/pavelanni/lessonhub/internal/store"
)

// sourcedCurriculum is a parsed curriculum together with where it came from.
type sourcedCurriculum struct {
	source     string
	hash       string
	curriculum *model.Curriculum
}

// readCurricula returns the embedded curricula followed by those in paths.
func readCurricula(paths []string) ([]sourcedCurriculum, error) {
	embedded, err := curriculum.Embedded()
	if err != nil {
		return nil, fmt.Errorf("load embedded curricula: %w", err)
	}
	var out []sourcedCurriculum
	for _, c := range embedded {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("hash embedded %s: %w", c.Slug, err)
		}
		out = append(out, sourcedCurriculum{
			source:     "embedded:" + c.Slug,
			hash:       sha256sum(data),
			curriculum: c,
		})
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		c, err := curriculum.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, sourcedCurriculum{source: path, hash: sha256sum(data), curriculum: c})
	}
	return out, nil
}

// importCurricula stores every configured curriculum, skipping sources whose
// content hash is unchanged since the last import. Stored variants whose
// source is no longer configured are removed.
func importCurricula(db *store.Store, paths []string) error {
	curricula, err := readCurricula(paths)
	if err != nil {
		return err
	}

	configured := make(map[string]bool, len(curricula))
	for _, sc := range curricula {
		configured[sc.source] = true
	}

	// Remove variants whose source is no longer configured.
	infos, err := db.ListCurricula()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if configured[info.Source] {
			continue
		}
		if err := db.DeleteCurriculum(info.Slug); err != nil {
			return fmt.Errorf("remove %s: %w", info.Slug, err)
		}
		slog.Info("removed curriculum no longer configured", "variant", info.Slug, "source", info.Source)
	}

	for _, sc := range curricula {
		storedHash, err := db.GetImportedFileHash(sc.source)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", sc.source, err)
		}
		if storedHash == sc.hash {
			slog.Debug("curriculum unchanged, skipping", "source", sc.source)
			continue
		}
		if err := db.SaveCurriculum(sc.curriculum, sc.source); err != nil {
			if errors.Is(err, store.ErrVariantConflict) {
				slog.Warn("curriculum variant already provided by another source, skipping",
					"source", sc.source, "variant", sc.curriculum.Slug)
				continue
			}
			return fmt.Errorf("save %s: %w", sc.source, err)
		}
		if err := db.SetImportedFileHash(sc.source, sc.hash); err != nil {
			return fmt.Errorf("record import for %s: %w", sc.source, err)
		}
		slog.Info("imported curriculum", "source", sc.source, "variant", sc.curriculum.Slug,
			"lessons", len(sc.curriculum.Lessons))
	}

	count, err := db.CurriculumCount()
	if err != nil {
		return err
	}
	slog.Debug("curricula stored", "count", count)
	return nil
}

// storedRegistry registers every curriculum held by db.
func storedRegistry(db *store.Store) (*curriculum.Registry, error) {
	infos, err := db.ListCurricula()
	if err != nil {
		return nil, err
	}
	reg := curriculum.NewRegistry()
	for _, info := range infos {
		c, err := db.LoadCurriculum(info.Slug)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// memoryRegistry registers the configured curricula without a database.
// A later source providing an already registered slug is skipped.
func memoryRegistry(paths []string) (*curriculum.Registry, error) {
	curricula, err := readCurricula(paths)
	if err != nil {
		return nil, err
	}
	reg := curriculum.NewRegistry()
	for _, sc := range curricula {
		if err := reg.Register(sc.curriculum); err != nil {
			if errors.Is(err, curriculum.ErrDuplicateVariant) {
				slog.Warn("curriculum variant already registered, skipping",
					"source", sc.source, "variant", sc.curriculum.Slug)
				continue
			}
			return nil, err
		}
	}
	return reg, nil
}

// selectVariant returns the curriculum named by the variant setting.
func selectVariant(v *viper.Viper) (*model.Curriculum, error) {
	reg, err := memoryRegistry(v.GetStringSlice("curriculum"))
	if err != nil {
		return nil, err
	}
	c, err := reg.Get(v.GetString("variant"))
	if err != nil {
		return nil, fmt.Errorf("select variant: %w", err)
	}
	return c, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
