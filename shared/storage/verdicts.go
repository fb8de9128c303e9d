package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hook-screener/internal/models"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// VerdictRecord is one stored screening result.
type VerdictRecord struct {
	Handle     string         `json:"handle"`
	VideoID    string         `json:"video_id"`
	RunID      string         `json:"run_id,omitempty"`
	Verdict    models.Verdict `json:"verdict"`
	ScreenedAt time.Time      `json:"screened_at"`
}

// SaveScreening stores the verdict of a screening, replacing any earlier
// verdict for the same handle and video.
func (s *Store) SaveScreening(ctx context.Context, screening *models.Screening) error {
	if screening == nil || screening.Video == nil {
		return fmt.Errorf("screening with video is required")
	}
	v := screening.Verdict
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	screenedAt := screening.ScreenedAt
	if screenedAt.IsZero() {
		screenedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (handle, video_id, run_id, status, reason_code, language, category, verdict_json, screened_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (handle, video_id) DO UPDATE SET
            run_id = excluded.run_id,
            status = excluded.status,
            reason_code = excluded.reason_code,
            language = excluded.language,
            category = excluded.category,
            verdict_json = excluded.verdict_json,
            screened_at = excluded.screened_at`,
		screening.Video.Handle,
		screening.Video.ID,
		nullableString(screening.RunID),
		string(v.Status),
		v.ReasonCode,
		string(v.Language),
		string(v.Category),
		string(payload),
		screenedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert verdict: %w", err)
	}
	return nil
}

// ListVerdicts returns the verdicts of one creator, newest first. An empty
// handle lists every creator.
func (s *Store) ListVerdicts(ctx context.Context, handle string, limit int) ([]VerdictRecord, error) {
	query := `SELECT handle, video_id, run_id, verdict_json, screened_at FROM verdicts`
	var args []any
	if handle != "" {
		query += ` WHERE handle = ?`
		args = append(args, handle)
	}
	query += ` ORDER BY screened_at DESC, video_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var records []VerdictRecord
	for rows.Next() {
		var (
			rec        VerdictRecord
			runID      sql.NullString
			payload    string
			screenedAt string
		)
		if err := rows.Scan(&rec.Handle, &rec.VideoID, &runID, &payload, &screenedAt); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		rec.RunID = runID.String
		if err := json.Unmarshal([]byte(payload), &rec.Verdict); err != nil {
			return nil, fmt.Errorf("decode verdict %s/%s: %w", rec.Handle, rec.VideoID, err)
		}
		if rec.ScreenedAt, err = time.Parse(timeLayout, screenedAt); err != nil {
			return nil, fmt.Errorf("parse screened_at %q: %w", screenedAt, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return records, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
