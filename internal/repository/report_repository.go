package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vot-service/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create stores the report and its detail row. Callers that need both rows to
// land together must pass a transaction.
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	if report.Detail == nil {
		return fmt.Errorf("report detail is required")
	}
	report.Type = report.Detail.ReportType()

	if err := r.db.WithContext(ctx).Omit("Photos").Create(report).Error; err != nil {
		return err
	}

	report.Detail.BindReport(report.ID)
	return r.db.WithContext(ctx).Create(report.Detail).Error
}

func (r *ReportRepository) AddPhoto(ctx context.Context, photo *model.ReportPhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}

	detail, err := r.loadDetail(ctx, report.Type, report.ID)
	if err != nil {
		return nil, err
	}
	report.Detail = detail
	return &report, nil
}

func (r *ReportRepository) loadDetail(ctx context.Context, reportType model.ReportType, reportID uuid.UUID) (model.ReportDetail, error) {
	var detail model.ReportDetail
	switch reportType {
	case model.ReportElectric:
		detail = &model.ReportElectricDetail{}
	case model.ReportTelematic:
		detail = &model.ReportTelematicDetail{}
	case model.ReportPredio:
		detail = &model.ReportPredioDetail{}
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}
	if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).First(detail).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// GetForUpdate loads the bare report row and holds it FOR UPDATE until the
// surrounding transaction ends.
func (r *ReportRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Report{ID: id}).
		Updates(fields).Error
}

// PrimaryPhoto returns gorm.ErrRecordNotFound when the report has none.
func (r *ReportRepository) PrimaryPhoto(ctx context.Context, reportID uuid.UUID) (*model.ReportPhoto, error) {
	var photo model.ReportPhoto
	err := r.db.WithContext(ctx).
		Where("report_id = ? AND is_primary = ?", reportID, true).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// ReplacePrimaryPhoto drops the current primary photo rows and stores photo as
// the new primary one.
func (r *ReportRepository) ReplacePrimaryPhoto(ctx context.Context, photo *model.ReportPhoto) error {
	err := r.db.WithContext(ctx).
		Where("report_id = ? AND is_primary = ?", photo.ReportID, true).
		Delete(&model.ReportPhoto{}).Error
	if err != nil {
		return err
	}
	photo.IsPrimary = true
	return r.db.WithContext(ctx).Create(photo).Error
}

type ReportListFilter struct {
	OwnerID   *uuid.UUID
	CompanyID *uuid.UUID
	Type      *model.ReportType

	Status     *model.ReportStatus
	DistrictID *uint
	ZoneID     *uint
	SectorID   *uint
	From       *time.Time
	// Before is exclusive.
	Before     *time.Time
	ParcelCode string
}

func (r *ReportRepository) filtered(ctx context.Context, filter ReportListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Report{})
	if filter.OwnerID != nil {
		q = q.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.CompanyID != nil {
		q = q.Where("owner_company_id = ?", *filter.CompanyID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.DistrictID != nil {
		q = q.Where("zone_id IN (?)", r.db.Model(&model.Zone{}).Select("id").Where("district_id = ?", *filter.DistrictID))
	}
	if filter.ZoneID != nil {
		q = q.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.SectorID != nil {
		q = q.Where("sector_id = ?", *filter.SectorID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.Before != nil {
		q = q.Where("created_at < ?", *filter.Before)
	}
	if filter.ParcelCode != "" {
		pattern := "%" + strings.ToLower(filter.ParcelCode) + "%"
		q = q.Where("id IN (?)", r.db.Model(&model.ReportPredioDetail{}).Select("report_id").Where("LOWER(parcel_code) LIKE ?", pattern))
	}
	return q
}

// ListLocated returns reports that carry both coordinates, newest first.
func (r *ReportRepository) ListLocated(ctx context.Context, filter ReportListFilter) ([]model.Report, error) {
	var reports []model.Report
	err := r.filtered(ctx, filter).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

// List returns one page of reports, newest first, with photos and details,
// plus the number of rows matching the filter.
func (r *ReportRepository) List(ctx context.Context, filter ReportListFilter, limit, offset int) ([]model.Report, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	reports := []model.Report{}
	err := r.filtered(ctx, filter).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachDetails(ctx, reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// attachDetails loads the detail rows of a page with one query per report type.
func (r *ReportRepository) attachDetails(ctx context.Context, reports []model.Report) error {
	ids := map[model.ReportType][]uuid.UUID{}
	for _, report := range reports {
		ids[report.Type] = append(ids[report.Type], report.ID)
	}

	details := map[uuid.UUID]model.ReportDetail{}
	for reportType, reportIDs := range ids {
		switch reportType {
		case model.ReportElectric:
			var rows []*model.ReportElectricDetail
			if err := r.db.WithContext(ctx).Where("report_id IN ?", reportIDs).Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				details[row.ReportID] = row
			}
		case model.ReportTelematic:
			var rows []*model.ReportTelematicDetail
			if err := r.db.WithContext(ctx).Where("report_id IN ?", reportIDs).Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				details[row.ReportID] = row
			}
		case model.ReportPredio:
			var rows []*model.ReportPredioDetail
			if err := r.db.WithContext(ctx).Where("report_id IN ?", reportIDs).Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				details[row.ReportID] = row
			}
		default:
			return fmt.Errorf("unknown report type %q", reportType)
		}
	}

	for i := range reports {
		reports[i].Detail = details[reports[i].ID]
	}
	return nil
}
