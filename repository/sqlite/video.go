package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ArmandoArias/ia-videodog/errors"
	"github.com/ArmandoArias/ia-videodog/models"

	"github.com/cenkalti/backoff/v4"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) Upsert(ctx context.Context, video *models.Video) error {
	const op = "SQLiteRepository.Upsert"

	now := time.Now().UTC()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now

	operation := func() error {
		_, err := r.db.ExecContext(ctx, upsertQuery,
			video.URL,
			video.TitleOption1,
			video.TitleOption2,
			video.TitleOption3,
			video.Summary,
			video.Transcription,
			video.CreatedAt,
			video.UpdatedAt,
		)
		if err != nil && !isLockError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return errors.Persistence(op, err, "No se pudo guardar el video.")
	}
	return nil
}

func (r *Repository) FindByURL(ctx context.Context, url string) (*models.Video, error) {
	const op = "SQLiteRepository.FindByURL"

	video := &models.Video{}
	err := r.db.QueryRowContext(ctx, getByURLQuery, url).Scan(
		&video.URL,
		&video.TitleOption1,
		&video.TitleOption2,
		&video.TitleOption3,
		&video.Summary,
		&video.Transcription,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Video no encontrado.")
	}
	if err != nil {
		return nil, errors.Persistence(op, err, "No se pudo consultar el video.")
	}

	return video, nil
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
