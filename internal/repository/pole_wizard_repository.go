package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vot-service/internal/model"
)

type PoleWizardRepository struct {
	db *gorm.DB
}

func NewPoleWizardRepository(db *gorm.DB) *PoleWizardRepository {
	return &PoleWizardRepository{db: db}
}

func (r *PoleWizardRepository) Create(ctx context.Context, wizard *model.PoleWizard) error {
	return r.db.WithContext(ctx).Create(wizard).Error
}

// GetByID returns gorm.ErrRecordNotFound for unknown ids and for wizards of
// another kind. With lock set the row is held FOR UPDATE until the surrounding
// transaction ends.
func (r *PoleWizardRepository) GetByID(ctx context.Context, kind model.WizardKind, id uuid.UUID, lock bool) (*model.PoleWizard, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var wizard model.PoleWizard
	if err := q.Where("id = ? AND kind = ?", id, kind).First(&wizard).Error; err != nil {
		return nil, err
	}
	return &wizard, nil
}

func (r *PoleWizardRepository) GetWithSteps(ctx context.Context, kind model.WizardKind, id uuid.UUID) (*model.PoleWizard, error) {
	var wizard model.PoleWizard
	err := r.db.WithContext(ctx).
		Preload("Characteristics").
		Preload("Condition").
		Preload("Location").
		Where("id = ? AND kind = ?", id, kind).
		First(&wizard).Error
	if err != nil {
		return nil, err
	}
	return &wizard, nil
}

func (r *PoleWizardRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.PoleWizard{ID: id}).
		Updates(fields).Error
}

func (r *PoleWizardRepository) ListByOwner(ctx context.Context, kind model.WizardKind, ownerID uuid.UUID) ([]model.PoleWizard, error) {
	var wizards []model.PoleWizard
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Order("updated_at DESC").
		Find(&wizards).Error
	return wizards, err
}

type PoleStepPresence struct {
	Characteristics bool
	Condition       bool
	Location        bool
}

func (r *PoleWizardRepository) StepPresence(ctx context.Context, wizardID uuid.UUID) (PoleStepPresence, error) {
	var p PoleStepPresence
	var err error
	if p.Characteristics, err = stepExists(ctx, r.db, model.PoleCharacteristics{}.TableName(), wizardID); err != nil {
		return p, err
	}
	if p.Condition, err = stepExists(ctx, r.db, model.PoleCondition{}.TableName(), wizardID); err != nil {
		return p, err
	}
	if p.Location, err = stepExists(ctx, r.db, model.PoleLocation{}.TableName(), wizardID); err != nil {
		return p, err
	}
	return p, nil
}

func (r *PoleWizardRepository) UpsertCharacteristics(ctx context.Context, wizardID uuid.UUID, changes map[string]any) (*model.PoleCharacteristics, error) {
	row, _, err := upsertStep[model.PoleCharacteristics](ctx, r.db, wizardID, changes)
	return row, err
}

func (r *PoleWizardRepository) UpsertCondition(ctx context.Context, wizardID uuid.UUID, changes map[string]any) (*model.PoleCondition, error) {
	row, _, err := upsertStep[model.PoleCondition](ctx, r.db, wizardID, changes)
	return row, err
}

func (r *PoleWizardRepository) UpsertLocation(ctx context.Context, wizardID uuid.UUID, changes map[string]any) (*model.PoleLocation, error) {
	row, _, err := upsertStep[model.PoleLocation](ctx, r.db, wizardID, changes)
	return row, err
}

type StatusCount struct {
	Status model.WizardStatus
	Total  int64
}

// CountByStatus groups the wizards of kind by status; a nil owner counts all.
func (r *PoleWizardRepository) CountByStatus(ctx context.Context, kind model.WizardKind, ownerID *uuid.UUID) ([]StatusCount, error) {
	q := r.db.WithContext(ctx).
		Model(&model.PoleWizard{}).
		Where("kind = ?", kind)
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
