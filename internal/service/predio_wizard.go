package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/repository"
)

const predioPhotoKind = "fachada"

func newPredioFlavor() *flavor[model.PredioWizard] {
	repo := func(db *gorm.DB) *repository.PredioWizardRepository {
		return repository.NewPredioWizardRepository(db)
	}

	return &flavor[model.PredioWizard]{
		kind:        model.WizardPredio,
		required:    []int{predioStepDetail},
		progressive: true,
		steps: []stepDef[model.PredioWizard]{
			step(predioStepDetail, "detalle", savePredioDetail),
			step(predioStepCoords, "coordenadas", savePredioCoordinates),
			step(predioStepMedia, "media", savePredioMedia),
		},

		load: func(ctx context.Context, tx *gorm.DB, id uuid.UUID, lock bool) (*model.PredioWizard, error) {
			return repo(tx).GetByID(ctx, id, lock)
		},
		update: func(ctx context.Context, tx *gorm.DB, w *model.PredioWizard, fields map[string]any) error {
			return repo(tx).UpdateFields(ctx, w.ID, fields)
		},
		presence: func(_ context.Context, _ *gorm.DB, w *model.PredioWizard) (map[int]bool, error) {
			return map[int]bool{
				predioStepDetail: w.DetailSavedAt != nil,
				predioStepCoords: w.CoordsCapturedAt != nil,
				predioStepMedia:  w.MediaSavedAt != nil,
			}, nil
		},
		list: func(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]model.PredioWizard, error) {
			return repo(db).ListByOwner(ctx, ownerID)
		},
		publish: publishPredio,
		view:    viewPredio,
	}
}

// startPredio validates the district > zone > sector chain and refuses a
// second active wizard for the same owner and scope.
func startPredio(ctx context.Context, db *gorm.DB, actor model.Principal, in StartPredioInput) (*model.PredioWizard, error) {
	if !actor.IsEncargado() {
		return nil, ErrPermissionDenied
	}

	geo := repository.NewGeoRepository(db)
	errs := NewValidationError()

	district, err := geo.GetDistrict(ctx, in.DistrictID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if district == nil {
		errs.Add("distrito_id", "district does not exist")
	}
	zone, err := geo.GetZone(ctx, in.ZoneID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if zone == nil {
		errs.Add("zona_id", "zone does not exist")
	}
	sector, err := geo.GetSector(ctx, in.SectorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if sector == nil {
		errs.Add("sector_id", "sector does not exist")
	}
	if in.ProjectID != nil {
		project, err := geo.GetProject(ctx, *in.ProjectID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if project == nil {
			errs.Add("proyecto_id", "project does not exist")
		}
	}

	if district != nil && zone != nil && (zone.DistrictID == nil || *zone.DistrictID != district.ID) {
		errs.Add("zona_id", "zone does not belong to the district")
	}
	if zone != nil && sector != nil && sector.ZoneID != zone.ID {
		errs.Add("sector_id", "sector does not belong to the zone")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	repo := repository.NewPredioWizardRepository(db)
	scope := repository.PredioScope{
		OwnerID:    actor.UserID,
		DistrictID: in.DistrictID,
		ZoneID:     in.ZoneID,
		SectorID:   in.SectorID,
	}
	existing, err := repo.FindActiveByScope(ctx, scope)
	if err == nil {
		return nil, &ConflictError{ExistingID: existing.ID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wizard := &model.PredioWizard{
		OwnerID:        actor.UserID,
		OwnerCompanyID: actor.CompanyID,
		ProjectID:      in.ProjectID,
		DistrictID:     in.DistrictID,
		ZoneID:         in.ZoneID,
		SectorID:       in.SectorID,
		Status:         model.WizardStatusDraft,
	}
	if err := repo.Create(ctx, wizard); err != nil {
		// гонка двух стартов упирается в частичный уникальный индекс
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := repo.FindActiveByScope(ctx, scope); findErr == nil {
				return nil, &ConflictError{ExistingID: existing.ID}
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return wizard, nil
}

func savePredioDetail(ctx context.Context, sc *stepContext, w *model.PredioWizard, in *PredioDetailInput) (stepOutcome, error) {
	merged, err := mergePredioDetail(w.Detail.Data(), in)
	if err != nil {
		return stepOutcome{}, err
	}
	fields := map[string]any{
		"detail":          datatypes.NewJSONType(merged),
		"detail_saved_at": sc.now,
	}
	if err := repository.NewPredioWizardRepository(sc.tx).UpdateFields(ctx, w.ID, fields); err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: merged}, nil
}

func savePredioCoordinates(ctx context.Context, sc *stepContext, w *model.PredioWizard, in *PredioCoordinatesInput) (stepOutcome, error) {
	coords, err := validatePredioCoordinates(in)
	if err != nil {
		return stepOutcome{}, err
	}
	fields := map[string]any{
		"latitude":           coords.Latitude,
		"longitude":          coords.Longitude,
		"coords_captured_at": sc.now,
	}
	if err := repository.NewPredioWizardRepository(sc.tx).UpdateFields(ctx, w.ID, fields); err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: map[string]any{
		"latitud":  coords.Latitude,
		"longitud": coords.Longitude,
	}}, nil
}

func savePredioMedia(ctx context.Context, sc *stepContext, w *model.PredioWizard, in *PredioMediaInput) (stepOutcome, error) {
	observations := w.Observations
	if in.Observations.Set {
		observations = strings.TrimSpace(in.Observations.Value)
	}
	fields := map[string]any{
		"observations":   observations,
		"media_saved_at": sc.now,
	}
	if err := repository.NewPredioWizardRepository(sc.tx).UpdateFields(ctx, w.ID, fields); err != nil {
		return stepOutcome{}, err
	}

	photos, err := sc.photos.attach(ctx, w.PhotoParent(), in.photos)
	if err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{
		data:   map[string]any{"observaciones": observations},
		photos: photos,
	}, nil
}

func savePredioElements(ctx context.Context, sc *stepContext, w *model.PredioWizard, in *PredioElementsInput) (model.PredioDetail, error) {
	detail, err := validatePredioElements(ctx, sc.catalog, w.Detail.Data(), in)
	if err != nil {
		return model.PredioDetail{}, err
	}
	fields := map[string]any{
		"detail":     datatypes.NewJSONType(detail),
		"updated_at": sc.now,
	}
	if err := repository.NewPredioWizardRepository(sc.tx).UpdateFields(ctx, w.ID, fields); err != nil {
		return model.PredioDetail{}, err
	}
	return detail, nil
}

// resolvePredioProject prefers the project chosen at start and falls back to
// the zone's project.
func resolvePredioProject(ctx context.Context, tx *gorm.DB, w *model.PredioWizard) (uint, error) {
	if w.ProjectID != nil {
		return *w.ProjectID, nil
	}
	zone, err := repository.NewGeoRepository(tx).GetZone(ctx, w.ZoneID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if zone == nil || zone.ProjectID == nil {
		return 0, fieldError("proyecto", "no project can be resolved for the wizard")
	}
	return *zone.ProjectID, nil
}

// publishPredio materializes the wizard into a Report with its predio detail
// and photos. Everything runs in the caller's transaction.
func publishPredio(ctx context.Context, sc *stepContext, w *model.PredioWizard) (*PublishResult, error) {
	projectID, err := resolvePredioProject(ctx, sc.tx, w)
	if err != nil {
		return nil, err
	}

	photos, err := repository.NewPhotoRepository(sc.tx).ListByParent(ctx, w.PhotoParent())
	if err != nil {
		return nil, err
	}
	hasPrimary := false
	for _, p := range photos {
		hasPrimary = hasPrimary || p.IsPrimary
	}

	report := &model.Report{
		OwnerID:        w.OwnerID,
		OwnerCompanyID: w.OwnerCompanyID,
		ProjectID:      projectID,
		ZoneID:         w.ZoneID,
		SectorID:       w.SectorID,
		Status:         model.ReportPending,
		Latitude:       w.Latitude,
		Longitude:      w.Longitude,
		SourceWizardID: &w.ID,
		Detail:         model.NewReportPredioDetail(w.Detail.Data()),
	}
	if obs := strings.TrimSpace(w.Observations); obs != "" {
		report.Observations = &obs
	}
	if hasPrimary {
		report.Status = model.ReportRegistered
	}

	reports := repository.NewReportRepository(sc.tx)
	if err := reports.Create(ctx, report); err != nil {
		return nil, err
	}
	for _, p := range photos {
		photo := &model.ReportPhoto{
			ReportID:  report.ID,
			URL:       p.URL,
			Kind:      predioPhotoKind,
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
			IsPrimary: p.IsPrimary,
		}
		if err := reports.AddPhoto(ctx, photo); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{
		"status":       model.WizardStatusPublished,
		"published_at": sc.now,
		"report_id":    &report.ID,
		"updated_at":   sc.now,
	}
	wizards := repository.NewPredioWizardRepository(sc.tx)
	if err := wizards.UpdateFields(ctx, w.ID, fields); err != nil {
		return nil, err
	}

	published, err := wizards.GetByID(ctx, w.ID, false)
	if err != nil {
		return nil, err
	}
	stored, err := reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	return &PublishResult{
		Wizard:   published.Summary(),
		ReportID: &stored.ID,
		Report:   stored,
	}, nil
}

type predioView struct {
	ProjectID    *uint               `json:"proyecto_id"`
	DistrictID   uint                `json:"distrito_id"`
	ZoneID       uint                `json:"zona_id"`
	SectorID     uint                `json:"sector_id"`
	Detail       model.PredioDetail  `json:"detalle"`
	Latitude     *float64            `json:"latitud"`
	Longitude    *float64            `json:"longitud"`
	Observations string              `json:"observaciones"`
	ReportID     *uuid.UUID          `json:"reporte_id"`
	Photos       []model.WizardPhoto `json:"fotos"`
}

func viewPredio(ctx context.Context, tx *gorm.DB, w *model.PredioWizard) (any, error) {
	photos, err := repository.NewPhotoRepository(tx).ListByParent(ctx, w.PhotoParent())
	if err != nil {
		return nil, err
	}
	return predioView{
		ProjectID:    w.ProjectID,
		DistrictID:   w.DistrictID,
		ZoneID:       w.ZoneID,
		SectorID:     w.SectorID,
		Detail:       w.Detail.Data(),
		Latitude:     w.Latitude,
		Longitude:    w.Longitude,
		Observations: w.Observations,
		ReportID:     w.ReportID,
		Photos:       photos,
	}, nil
}
