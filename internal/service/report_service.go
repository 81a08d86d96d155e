package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/patch"
	"vot-service/internal/repository"
	"vot-service/internal/storage"
)

const (
	defaultReportPageSize = 10
	maxReportPageSize     = 100
)

type ReportService struct {
	db         *gorm.DB
	blobs      storage.BlobStore
	log        zerolog.Logger
	reportRepo *repository.ReportRepository
}

func NewReportService(db *gorm.DB, blobs storage.BlobStore, log zerolog.Logger) *ReportService {
	return &ReportService{
		db:         db,
		blobs:      blobs,
		log:        log,
		reportRepo: repository.NewReportRepository(db),
	}
}

func (s *ReportService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !principal.CanAccess(report.Ownership()) {
		return nil, ErrNotFound
	}
	return report, nil
}

// visibleReports: суперадмин видит всё, админ — свою компанию, остальные — свои.
func visibleReports(principal model.Principal) repository.ReportListFilter {
	var filter repository.ReportListFilter
	switch {
	case principal.IsSuperadmin():
	case principal.IsAdmin() && principal.CompanyID != nil:
		filter.CompanyID = principal.CompanyID
	default:
		owner := principal.UserID
		filter.OwnerID = &owner
	}
	return filter
}

type MapFilter struct {
	Type *model.ReportType
}

// Map returns the visible reports that carry coordinates as GeoJSON points.
func (s *ReportService) Map(ctx context.Context, principal model.Principal, filter MapFilter) (*geojson.FeatureCollection, error) {
	listFilter := visibleReports(principal)
	listFilter.Type = filter.Type

	reports, err := s.reportRepo.ListLocated(ctx, listFilter)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, report := range reports {
		point, ok := report.Point()
		if !ok {
			continue
		}
		feature := geojson.NewFeature(point)
		feature.ID = report.ID.String()
		feature.Properties["tipo"] = report.Type
		feature.Properties["estado"] = report.Status
		feature.Properties["proyecto_id"] = report.ProjectID
		feature.Properties["zona_id"] = report.ZoneID
		feature.Properties["sector_id"] = report.SectorID
		feature.Properties["fecha_reporte"] = report.CreatedAt
		fc.Append(feature)
	}
	return fc, nil
}

type PredioReportQuery struct {
	Status     string `form:"estado"`
	DistrictID *uint  `form:"distrito_id"`
	ZoneID     *uint  `form:"zona_id"`
	SectorID   *uint  `form:"sector_id"`
	From       string `form:"fecha_desde"`
	To         string `form:"fecha_hasta"`
	Search     string `form:"q"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type ReportPage struct {
	Count    int64          `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Results  []model.Report `json:"results"`
}

// ListPredio pages through the visible predio reports, newest first.
func (s *ReportService) ListPredio(ctx context.Context, principal model.Principal, q PredioReportQuery) (*ReportPage, error) {
	filter := visibleReports(principal)
	predio := model.ReportPredio
	filter.Type = &predio
	filter.DistrictID = q.DistrictID
	filter.ZoneID = q.ZoneID
	filter.SectorID = q.SectorID
	filter.ParcelCode = strings.TrimSpace(q.Search)

	errs := NewValidationError()
	if status := strings.TrimSpace(q.Status); status != "" {
		st := model.ReportStatus(strings.ToLower(status))
		filter.Status = &st
	}
	if raw := strings.TrimSpace(q.From); raw != "" {
		from, _, err := parseReportDate(raw)
		if err != nil {
			errs.Add("fecha_desde", err.Error())
		} else {
			filter.From = &from
		}
	}
	if raw := strings.TrimSpace(q.To); raw != "" {
		to, dateOnly, err := parseReportDate(raw)
		switch {
		case err != nil:
			errs.Add("fecha_hasta", err.Error())
		case dateOnly:
			// дата без времени включает весь день
			before := to.AddDate(0, 0, 1)
			filter.Before = &before
		default:
			before := to.Add(time.Nanosecond)
			filter.Before = &before
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	switch {
	case size < 1:
		size = defaultReportPageSize
	case size > maxReportPageSize:
		size = maxReportPageSize
	}

	reports, total, err := s.reportRepo.List(ctx, filter, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &ReportPage{Count: total, Page: page, PageSize: size, Results: reports}, nil
}

// parseReportDate accepts yyyy-mm-dd or RFC 3339 and reports which one it got.
func parseReportDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errors.New("must be yyyy-mm-dd or an RFC 3339 timestamp")
}

type ReportObservationsInput struct {
	Observations patch.Field[string] `json:"observaciones"`
}

type ReportObservations struct {
	ReportID     uuid.UUID `json:"reporte_id"`
	Observations *string   `json:"observaciones"`
}

func (s *ReportService) UpdateObservations(ctx context.Context, principal model.Principal, id uuid.UUID, in ReportObservationsInput) (*ReportObservations, error) {
	// null и пустая строка очищают поле
	if !in.Observations.Set {
		return nil, fieldError("observaciones", msgRequired)
	}
	observations := blankToNil(in.Observations.Value)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockVisibleReport(ctx, tx, principal, id); err != nil {
			return err
		}
		return repository.NewReportRepository(tx).UpdateFields(ctx, id, map[string]any{"observations": observations})
	})
	if err != nil {
		return nil, err
	}
	return &ReportObservations{ReportID: id, Observations: observations}, nil
}

type ReportCompleteInput struct {
	Observations patch.Field[string] `json:"observaciones"`
	PhotoKind    patch.Field[string] `json:"tipo"`
	Latitude     patch.Number        `json:"latitud"`
	Longitude    patch.Number        `json:"longitud"`

	photos []PhotoUpload
}

func (in *ReportCompleteInput) SetPhotos(photos []PhotoUpload) {
	in.photos = photos
}

type ReportCompletion struct {
	ReportID        uuid.UUID          `json:"reporte_id"`
	Status          model.ReportStatus `json:"estado"`
	Observations    *string            `json:"observaciones"`
	PrimaryPhotoURL *string            `json:"foto_principal_url"`
}

// Complete finishes a published report. Observations are always overwritten.
// A new image replaces the primary photo and registers the report; without
// one a report that is not registered yet goes back to pending.
func (s *ReportService) Complete(ctx context.Context, principal model.Principal, id uuid.UUID, in *ReportCompleteInput) (*ReportCompletion, error) {
	errs := NewValidationError()
	if len(in.photos) > 1 {
		errs.Add("imagen", "only one image is allowed")
	}
	lat := optionalCoordinate(errs, "latitud", in.Latitude, 90)
	lon := optionalCoordinate(errs, "longitud", in.Longitude, 180)

	var image []byte
	if len(in.photos) == 1 {
		up := in.photos[0]
		data, err := readUpload(up)
		if err != nil {
			return nil, err
		}
		switch {
		case len(data) == 0:
			errs.Add("imagen", "file is empty")
		case up.Size > model.MaxPhotoBytes || len(data) > model.MaxPhotoBytes:
			errs.Add("imagen", fmt.Sprintf("file exceeds %d bytes", model.MaxPhotoBytes))
		default:
			image = data
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	observations := (*string)(nil)
	if in.Observations.HasValue() {
		observations = blankToNil(in.Observations.Value)
	}
	kind := predioPhotoKind
	if in.PhotoKind.HasValue() && strings.TrimSpace(in.PhotoKind.Value) != "" {
		kind = strings.TrimSpace(in.PhotoKind.Value)
	}

	blobs := newBlobTracker(s.blobs, s.log)
	var result *ReportCompletion

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err := lockVisibleReport(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		reports := repository.NewReportRepository(tx)

		status := report.Status
		if image != nil {
			up := in.photos[0]
			key := fmt.Sprintf("reports/%s/%s%s", report.ID, uuid.NewString(), photoExt(up.Name))
			url, err := blobs.put(ctx, key, bytes.NewReader(image), up.ContentType)
			if err != nil {
				return fmt.Errorf("store photo: %w", err)
			}
			photo := &model.ReportPhoto{
				ReportID:  report.ID,
				URL:       url,
				Kind:      kind,
				Latitude:  lat,
				Longitude: lon,
			}
			if err := reports.ReplacePrimaryPhoto(ctx, photo); err != nil {
				return err
			}
			status = model.ReportRegistered
		} else if status != model.ReportRegistered {
			status = model.ReportPending
		}

		fields := map[string]any{
			"observations": observations,
			"status":       status,
		}
		if err := reports.UpdateFields(ctx, report.ID, fields); err != nil {
			return err
		}

		result = &ReportCompletion{ReportID: report.ID, Status: status, Observations: observations}
		primary, err := reports.PrimaryPhoto(ctx, report.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if primary != nil {
			result.PrimaryPhotoURL = &primary.URL
		}
		return nil
	})
	if err != nil {
		blobs.discard(context.WithoutCancel(ctx))
		return nil, err
	}

	s.log.Info().
		Str("report_id", id.String()).
		Str("status", string(result.Status)).
		Bool("new_photo", image != nil).
		Msg("report completed")
	return result, nil
}

func lockVisibleReport(ctx context.Context, tx *gorm.DB, principal model.Principal, id uuid.UUID) (*model.Report, error) {
	report, err := repository.NewReportRepository(tx).GetForUpdate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !principal.CanAccess(report.Ownership()) {
		return nil, ErrNotFound
	}
	return report, nil
}

// optionalCoordinate: a single coordinate may be sent without its pair here.
func optionalCoordinate(errs *ValidationError, field string, n patch.Number, limit float64) *float64 {
	if !n.HasValue() {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		errs.Add(field, err.Error())
		return nil
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		errs.Add(field, fmt.Sprintf("must be between %v and %v", -limit, limit))
		return nil
	}
	return &v
}

func blankToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
