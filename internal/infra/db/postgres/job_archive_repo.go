package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/repository"
)

var (
	_ repository.JobArchive    = (*jobArchiveRepo)(nil)
	_ repository.ArchiveReader = (*jobArchiveRepo)(nil)
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS video_jobs_archive (
  id            TEXT PRIMARY KEY,
  prompt        TEXT NOT NULL,
  requester     TEXT NOT NULL,
  reply_channel TEXT NOT NULL,
  status        TEXT NOT NULL,
  result_ref    TEXT NOT NULL DEFAULT '',
  error         TEXT NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL,
  started_at    TIMESTAMPTZ,
  completed_at  TIMESTAMPTZ,
  archived_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS video_jobs_archive_completed_idx ON video_jobs_archive (completed_at DESC);`

type jobArchiveRepo struct {
	pool *pgxpool.Pool
	tm   *TxManager
}

func NewJobArchiveRepo(pool *pgxpool.Pool) *jobArchiveRepo {
	return &jobArchiveRepo{pool: pool, tm: NewTxManager(pool)}
}

// EnsureSchema creates the archive table when missing.
func (r *jobArchiveRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, archiveSchema)
	return err
}

// Archive inserts jobs in one transaction. Jobs already archived are skipped,
// so the returned count may be lower than len(jobs).
func (r *jobArchiveRepo) Archive(ctx context.Context, jobs []*model.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	const q = `
INSERT INTO video_jobs_archive
  (id, prompt, requester, reply_channel, status, result_ref, error, created_at, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING;`

	inserted := 0
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, j := range jobs {
			b.Queue(q, j.ID, j.Prompt, j.Requester, j.ReplyChannel, string(j.Status),
				j.ResultRef, j.Error, j.CreatedAt, j.StartedAt, j.CompletedAt)
		}
		br := tx.SendBatch(ctx, b)
		defer br.Close()
		for range jobs {
			tag, err := br.Exec()
			if err != nil {
				return translate(err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *jobArchiveRepo) Recent(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `
SELECT id, prompt, requester, reply_channel, status, result_ref, error, created_at, started_at, completed_at
FROM video_jobs_archive
ORDER BY completed_at DESC NULLS LAST
LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		var j model.Job
		var status string
		if err := rows.Scan(&j.ID, &j.Prompt, &j.Requester, &j.ReplyChannel, &status,
			&j.ResultRef, &j.Error, &j.CreatedAt, &j.StartedAt, &j.CompletedAt); err != nil {
			return nil, err
		}
		j.Status = model.JobStatus(status)
		out = append(out, &j)
	}
	return out, rows.Err()
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("archive: %s (%s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}
