package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/repository"
)

// newPoleFlavor describes the electric and telematic pole wizards. Both share
// the four steps; only step 1 and the height range differ by kind.
func newPoleFlavor(kind model.WizardKind) *flavor[model.PoleWizard] {
	repo := func(db *gorm.DB) *repository.PoleWizardRepository {
		return repository.NewPoleWizardRepository(db)
	}

	return &flavor[model.PoleWizard]{
		kind:     kind,
		required: []int{poleStepGeneral, poleStepCharacteristics, poleStepCondition, poleStepLocation},
		steps: []stepDef[model.PoleWizard]{
			step(poleStepGeneral, "general", savePoleGeneral),
			step(poleStepCharacteristics, "caracteristicas", savePoleCharacteristics),
			step(poleStepCondition, "condicion", savePoleCondition),
			step(poleStepLocation, "ubicacion", savePoleLocation),
		},

		load: func(ctx context.Context, tx *gorm.DB, id uuid.UUID, lock bool) (*model.PoleWizard, error) {
			return repo(tx).GetByID(ctx, kind, id, lock)
		},
		update: func(ctx context.Context, tx *gorm.DB, w *model.PoleWizard, fields map[string]any) error {
			return repo(tx).UpdateFields(ctx, w.ID, fields)
		},
		presence: func(ctx context.Context, tx *gorm.DB, w *model.PoleWizard) (map[int]bool, error) {
			p, err := repo(tx).StepPresence(ctx, w.ID)
			if err != nil {
				return nil, err
			}
			return map[int]bool{
				poleStepGeneral:         w.GeneralSavedAt != nil,
				poleStepCharacteristics: p.Characteristics,
				poleStepCondition:       p.Condition,
				poleStepLocation:        p.Location,
			}, nil
		},
		list: func(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]model.PoleWizard, error) {
			return repo(db).ListByOwner(ctx, kind, ownerID)
		},
		publish: publishPole,
		view:    viewPole,
	}
}

func startPole(ctx context.Context, db *gorm.DB, kind model.WizardKind, actor model.Principal) (*model.PoleWizard, error) {
	wizard := &model.PoleWizard{
		Kind:           kind,
		OwnerID:        actor.UserID,
		OwnerCompanyID: actor.CompanyID,
		Status:         model.WizardStatusDraft,
	}
	if err := repository.NewPoleWizardRepository(db).Create(ctx, wizard); err != nil {
		return nil, err
	}
	return wizard, nil
}

func savePoleGeneral(ctx context.Context, sc *stepContext, w *model.PoleWizard, in *PoleGeneralInput) (stepOutcome, error) {
	changes, err := validatePoleGeneral(ctx, sc.catalog, w.Kind, in)
	if err != nil {
		return stepOutcome{}, err
	}
	changes["general_saved_at"] = sc.now

	repo := repository.NewPoleWizardRepository(sc.tx)
	if err := repo.UpdateFields(ctx, w.ID, changes); err != nil {
		return stepOutcome{}, err
	}
	saved, err := repo.GetByID(ctx, w.Kind, w.ID, false)
	if err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: poleGeneralView(saved)}, nil
}

func savePoleCharacteristics(ctx context.Context, sc *stepContext, w *model.PoleWizard, in *PoleCharacteristicsInput) (stepOutcome, error) {
	changes, err := validatePoleCharacteristics(ctx, sc.catalog, in)
	if err != nil {
		return stepOutcome{}, err
	}
	row, err := repository.NewPoleWizardRepository(sc.tx).UpsertCharacteristics(ctx, w.ID, changes)
	if err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: row}, nil
}

func savePoleCondition(ctx context.Context, sc *stepContext, w *model.PoleWizard, in *PoleConditionInput) (stepOutcome, error) {
	changes, err := validatePoleCondition(ctx, sc.catalog, w.Kind, in)
	if err != nil {
		return stepOutcome{}, err
	}
	row, err := repository.NewPoleWizardRepository(sc.tx).UpsertCondition(ctx, w.ID, changes)
	if err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: row}, nil
}

// savePoleLocation stores the coordinates first so the location row exists
// before photos are attached to it.
func savePoleLocation(ctx context.Context, sc *stepContext, w *model.PoleWizard, in *PoleLocationInput) (stepOutcome, error) {
	changes, err := validatePoleLocation(in)
	if err != nil {
		return stepOutcome{}, err
	}
	row, err := repository.NewPoleWizardRepository(sc.tx).UpsertLocation(ctx, w.ID, changes)
	if err != nil {
		return stepOutcome{}, err
	}

	photos, err := sc.photos.attach(ctx, row.PhotoParent(), in.photos)
	if err != nil {
		return stepOutcome{}, err
	}
	return stepOutcome{data: row, photos: photos}, nil
}

// publishPole: the wizard row itself becomes the permanent record.
func publishPole(ctx context.Context, sc *stepContext, w *model.PoleWizard) (*PublishResult, error) {
	repo := repository.NewPoleWizardRepository(sc.tx)
	fields := map[string]any{
		"status":       model.WizardStatusPublished,
		"published_at": sc.now,
		"updated_at":   sc.now,
	}
	if err := repo.UpdateFields(ctx, w.ID, fields); err != nil {
		return nil, err
	}
	published, err := repo.GetByID(ctx, w.Kind, w.ID, false)
	if err != nil {
		return nil, err
	}
	return &PublishResult{Wizard: published.Summary()}, nil
}

type poleGeneral struct {
	Tension           *model.TensionClass `json:"tension"`
	ElectricCables    *int                `json:"cables_electricos"`
	TelematicCables   *int                `json:"cables_telematicos"`
	Code              *string             `json:"codigo"`
	ElectricElements  []int64             `json:"elementos_electricos"`
	TelematicElements []int64             `json:"elementos_telematicos"`
}

func poleGeneralView(w *model.PoleWizard) poleGeneral {
	return poleGeneral{
		Tension:           w.Tension,
		ElectricCables:    w.ElectricCables,
		TelematicCables:   w.TelematicCables,
		Code:              w.Code,
		ElectricElements:  w.ElectricElements,
		TelematicElements: w.TelematicElements,
	}
}

type poleView struct {
	General         *poleGeneral               `json:"general"`
	Characteristics *model.PoleCharacteristics `json:"caracteristicas"`
	Condition       *model.PoleCondition       `json:"condicion"`
	Location        *model.PoleLocation        `json:"ubicacion"`
	Photos          []model.WizardPhoto        `json:"fotos"`
}

func viewPole(ctx context.Context, tx *gorm.DB, w *model.PoleWizard) (any, error) {
	full, err := repository.NewPoleWizardRepository(tx).GetWithSteps(ctx, w.Kind, w.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	view := poleView{
		Characteristics: full.Characteristics,
		Condition:       full.Condition,
		Location:        full.Location,
		Photos:          []model.WizardPhoto{},
	}
	if full.GeneralSavedAt != nil {
		general := poleGeneralView(full)
		view.General = &general
	}
	if full.Location != nil {
		photos, err := repository.NewPhotoRepository(tx).ListByParent(ctx, full.Location.PhotoParent())
		if err != nil {
			return nil, err
		}
		view.Photos = photos
	}
	return view, nil
}
