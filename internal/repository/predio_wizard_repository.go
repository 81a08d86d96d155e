package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vot-service/internal/model"
)

type PredioWizardRepository struct {
	db *gorm.DB
}

func NewPredioWizardRepository(db *gorm.DB) *PredioWizardRepository {
	return &PredioWizardRepository{db: db}
}

func (r *PredioWizardRepository) Create(ctx context.Context, wizard *model.PredioWizard) error {
	return r.db.WithContext(ctx).Create(wizard).Error
}

func (r *PredioWizardRepository) GetByID(ctx context.Context, id uuid.UUID, lock bool) (*model.PredioWizard, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var wizard model.PredioWizard
	if err := q.Where("id = ?", id).First(&wizard).Error; err != nil {
		return nil, err
	}
	return &wizard, nil
}

func (r *PredioWizardRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.PredioWizard{ID: id}).
		Updates(fields).Error
}

func (r *PredioWizardRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.PredioWizard, error) {
	var wizards []model.PredioWizard
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&wizards).Error
	return wizards, err
}

type PredioScope struct {
	OwnerID    uuid.UUID
	DistrictID uint
	ZoneID     uint
	SectorID   uint
}

// FindActiveByScope returns gorm.ErrRecordNotFound when the owner has no
// unfinished wizard for the district/zone/sector triple.
func (r *PredioWizardRepository) FindActiveByScope(ctx context.Context, scope PredioScope) (*model.PredioWizard, error) {
	var wizard model.PredioWizard
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND district_id = ? AND zone_id = ? AND sector_id = ?",
			scope.OwnerID, scope.DistrictID, scope.ZoneID, scope.SectorID).
		Where("status IN ?", model.ActiveWizardStatuses).
		Order("created_at DESC").
		First(&wizard).Error
	if err != nil {
		return nil, err
	}
	return &wizard, nil
}

func (r *PredioWizardRepository) CountByStatus(ctx context.Context, ownerID *uuid.UUID) ([]StatusCount, error) {
	q := r.db.WithContext(ctx).Model(&model.PredioWizard{})
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	var counts []StatusCount
	err := q.Select("status, COUNT(*) AS total").
		Group("status").
		Order("status").
		Scan(&counts).Error
	return counts, err
}
