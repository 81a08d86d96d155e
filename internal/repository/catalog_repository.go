package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"vot-service/internal/model"
)

type catalogSource struct {
	table       string
	labelColumn string
}

var catalogSources = map[model.CatalogCategory]catalogSource{
	model.CatalogPhysicalState: {table: "physical_states", labelColumn: "description"},
	model.CatalogInclination:   {table: "inclinations", labelColumn: "description"},
	model.CatalogOwner:         {table: "owners", labelColumn: "acronym"},
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type catalogRow struct {
	ID    uint
	Label string
}

func (r *CatalogRepository) query(ctx context.Context, category model.CatalogCategory) (*gorm.DB, error) {
	if category.IsParameter() {
		return r.db.WithContext(ctx).
			Table("catalog_parameters").
			Select("id, name AS label").
			Where("category = ? AND active = ?", category, true), nil
	}
	src, ok := catalogSources[category]
	if !ok {
		return nil, fmt.Errorf("unknown catalog category %q", category)
	}
	return r.db.WithContext(ctx).
		Table(src.table).
		Select(fmt.Sprintf("id, %s AS label", src.labelColumn)).
		Where("active = ?", true), nil
}

// FindActiveByID returns gorm.ErrRecordNotFound when no active entry matches.
func (r *CatalogRepository) FindActiveByID(ctx context.Context, category model.CatalogCategory, id uint) (*model.CatalogEntry, error) {
	q, err := r.query(ctx, category)
	if err != nil {
		return nil, err
	}
	var row catalogRow
	if err := q.Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &model.CatalogEntry{Category: category, ID: row.ID, Label: row.Label}, nil
}

// FindActiveByLabel matches the label case-insensitively. The first entry by
// id wins when a category carries duplicate labels.
func (r *CatalogRepository) FindActiveByLabel(ctx context.Context, category model.CatalogCategory, label string) (*model.CatalogEntry, error) {
	q, err := r.query(ctx, category)
	if err != nil {
		return nil, err
	}
	src := "name"
	if !category.IsParameter() {
		src = catalogSources[category].labelColumn
	}
	var row catalogRow
	err = q.Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", src), label).
		Order("id ASC").
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.CatalogEntry{Category: category, ID: row.ID, Label: row.Label}, nil
}

// ExistingElementIDs returns the subset of ids that are active elements of
// the given type.
func (r *CatalogRepository) ExistingElementIDs(ctx context.Context, elementType model.ElementType, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	err := r.db.WithContext(ctx).
		Model(&model.Element{}).
		Where("type = ? AND active = ? AND id IN ?", elementType, true, ids).
		Pluck("id", &found).Error
	return found, err
}
