package repository

import (
	"context"

	"gorm.io/gorm"

	"vot-service/internal/model"
)

type GeoRepository struct {
	db *gorm.DB
}

func NewGeoRepository(db *gorm.DB) *GeoRepository {
	return &GeoRepository{db: db}
}

func (r *GeoRepository) GetDistrict(ctx context.Context, id uint) (*model.District, error) {
	var district model.District
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&district).Error; err != nil {
		return nil, err
	}
	return &district, nil
}

func (r *GeoRepository) GetZone(ctx context.Context, id uint) (*model.Zone, error) {
	var zone model.Zone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *GeoRepository) GetSector(ctx context.Context, id uint) (*model.Sector, error) {
	var sector model.Sector
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sector).Error; err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *GeoRepository) GetProject(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
