package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// upsertStep creates the one-to-one step row for a wizard when it is missing
// and applies only the given column changes. Repeating the call with the same
// changes leaves the same row in the same state.
func upsertStep[T any](ctx context.Context, db *gorm.DB, wizardID uuid.UUID, changes map[string]any) (*T, bool, error) {
	var row T
	tx := db.WithContext(ctx)

	result := tx.Where("wizard_id = ?", wizardID).Limit(1).Find(&row)
	if result.Error != nil {
		return nil, false, result.Error
	}

	created := false
	if result.RowsAffected == 0 {
		values := map[string]any{"wizard_id": wizardID}
		if err := tx.Where("wizard_id = ?", wizardID).Attrs(values).FirstOrCreate(&row).Error; err != nil {
			return nil, false, err
		}
		created = true
	}

	if len(changes) > 0 {
		if err := tx.Model(&row).Updates(changes).Error; err != nil {
			return nil, false, err
		}
	}

	if err := tx.Where("wizard_id = ?", wizardID).First(&row).Error; err != nil {
		return nil, false, err
	}
	return &row, created, nil
}

func stepExists(ctx context.Context, db *gorm.DB, table string, wizardID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Table(table).Where("wizard_id = ?", wizardID).Count(&count).Error
	return count > 0, err
}
