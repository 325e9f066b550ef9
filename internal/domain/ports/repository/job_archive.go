package repository

import (
	"context"

	"ai-video-queue/internal/domain/model"
)

// JobArchive keeps write-only history of evicted terminal jobs.
// It is never read back into the live store.
type JobArchive interface {
	Archive(ctx context.Context, jobs []*model.Job) (int, error)
}

// ArchiveReader lists archived jobs for operators, newest first.
type ArchiveReader interface {
	Recent(ctx context.Context, limit int) ([]*model.Job, error)
}
