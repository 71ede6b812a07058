package creators

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
)

// Repository handles creator persistence. Creators are provisioned outside of
// this service; the API only ever reads them.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to creator lookups.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a creator by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Creator, error) {
	var creator models.Creator
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&creator).Error; err != nil {
		return nil, err
	}
	return &creator, nil
}

// FindBySlug loads a creator by its public page slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Creator, error) {
	var creator models.Creator
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&creator).Error; err != nil {
		return nil, err
	}
	return &creator, nil
}
