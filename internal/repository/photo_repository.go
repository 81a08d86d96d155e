package repository

import (
	"context"

	"gorm.io/gorm"

	"vot-service/internal/model"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func (r *PhotoRepository) Create(ctx context.Context, photo *model.WizardPhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *PhotoRepository) ListByParent(ctx context.Context, parent model.PhotoParent) ([]model.WizardPhoto, error) {
	var photos []model.WizardPhoto
	err := r.db.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("position ASC").
		Find(&photos).Error
	return photos, err
}
