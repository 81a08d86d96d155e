package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"vot-service/internal/model"
)

// Partial indexes that AutoMigrate cannot express. The syntax is shared by
// PostgreSQL and SQLite.
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_wizard_photos_primary
		ON wizard_photos (parent_kind, parent_id)
		WHERE is_primary;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_predio_wizards_active_scope
		ON predio_wizards (owner_id, district_id, zone_id, sector_id)
		WHERE status IN ('draft', 'in_progress', 'ready');`,
	`CREATE INDEX IF NOT EXISTS ix_pole_wizards_owner_updated
		ON pole_wizards (owner_id, kind, updated_at DESC);`,
	`CREATE INDEX IF NOT EXISTS ix_predio_wizards_owner_updated
		ON predio_wizards (owner_id, updated_at DESC);`,
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202510150001_geo_and_catalogs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.Project{}, &model.District{}, &model.Zone{}, &model.Sector{},
					&model.CatalogParameter{}, &model.PhysicalState{}, &model.Inclination{},
					&model.Owner{}, &model.Element{},
				)
			},
		},
		{
			ID: "202510150002_pole_wizards",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.PoleWizard{}, &model.PoleCharacteristics{},
					&model.PoleCondition{}, &model.PoleLocation{},
				)
			},
		},
		{
			ID: "202510150003_predio_wizards_and_photos",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.PredioWizard{}, &model.WizardPhoto{})
			},
		},
		{
			ID: "202510150004_reports",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.Report{}, &model.ReportElectricDetail{}, &model.ReportTelematicDetail{},
					&model.ReportPredioDetail{}, &model.ReportPhoto{},
				)
			},
		},
		{
			ID: "202510150005_partial_indexes",
			Migrate: func(tx *gorm.DB) error {
				for i, stmt := range indexStatements {
					if err := tx.Exec(stmt).Error; err != nil {
						return fmt.Errorf("index statement %d failed: %w", i+1, err)
					}
				}
				return nil
			},
		},
	}
}

func Migrate(database *gorm.DB) error {
	m := gormigrate.New(database, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
