package storage

import (
	"context"
	"fmt"
	"time"

	"hook-screener/internal/models"
	"hook-screener/shared/moderation"
)

// GetHooks returns the stored hooks of one slot in insertion order.
func (s *Store) GetHooks(ctx context.Context, lang models.Language, cat models.Category) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM hooks WHERE language = ? AND category = ? ORDER BY position`,
		string(lang), string(cat),
	)
	if err != nil {
		return nil, fmt.Errorf("query hooks: %w", err)
	}
	defer rows.Close()

	var hooks []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan hook: %w", err)
		}
		hooks = append(hooks, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hooks: %w", err)
	}
	return hooks, nil
}

// ReplaceHooks swaps the hooks of one slot atomically.
func (s *Store) ReplaceHooks(ctx context.Context, lang models.Language, cat models.Category, hooks []string) error {
	if _, err := models.ParseLanguage(string(lang)); err != nil {
		return fmt.Errorf("%w: %q", moderation.ErrUnknownLanguage, lang)
	}
	if cat != models.CategoryShort && cat != models.CategoryLong {
		return fmt.Errorf("%w: %q", moderation.ErrUnknownCategory, cat)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin hooks tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hooks WHERE language = ? AND category = ?`, string(lang), string(cat)); err != nil {
		return fmt.Errorf("delete hooks: %w", err)
	}

	timestamp := time.Now().UTC().Format(timeLayout)
	for i, hook := range hooks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hooks (language, category, position, text, created_at) VALUES (?, ?, ?, ?, ?)`,
			string(lang), string(cat), i, hook, timestamp,
		); err != nil {
			return fmt.Errorf("insert hook: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit hooks: %w", err)
	}
	return nil
}

// SeedPreset copies the slots of set into the store. Slots that already hold
// hooks are kept unless overwrite is set. It returns the number of slots written.
func (s *Store) SeedPreset(ctx context.Context, set *moderation.CorpusSet, overwrite bool) (int, error) {
	written := 0
	for _, entry := range set.Entries() {
		if !overwrite {
			existing, err := s.GetHooks(ctx, entry.Language, entry.Category)
			if err != nil {
				return written, err
			}
			if len(existing) > 0 {
				continue
			}
		}
		if err := s.ReplaceHooks(ctx, entry.Language, entry.Category, entry.Corpus.Hooks); err != nil {
			return written, fmt.Errorf("failed to seed %s %s hooks: %w", entry.Language, entry.Category, err)
		}
		written++
	}
	return written, nil
}

// Corpora snapshots every stored slot.
func (s *Store) Corpora(ctx context.Context) (*moderation.CorpusSet, error) {
	var entries []moderation.CorpusEntry
	for _, lang := range models.Languages {
		for _, cat := range models.Categories {
			hooks, err := s.GetHooks(ctx, lang, cat)
			if err != nil {
				return nil, err
			}
			if len(hooks) == 0 {
				continue
			}
			entries = append(entries, moderation.CorpusEntry{
				Language: lang,
				Category: cat,
				Corpus:   moderation.Corpus{Hooks: hooks, Source: models.CorpusSourceStore},
			})
		}
	}
	return moderation.NewCorpusSet(entries...), nil
}
