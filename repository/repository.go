package repository

import (
	"context"

	"github.com/ArmandoArias/ia-videodog/models"
)

type VideoRepository interface {
	// Upsert inserts the record or replaces every non-key field of an
	// existing record with the same canonical URL.
	Upsert(ctx context.Context, video *models.Video) error

	// FindByURL returns the record for a canonical URL, or a not-found error.
	FindByURL(ctx context.Context, url string) (*models.Video, error)
}
