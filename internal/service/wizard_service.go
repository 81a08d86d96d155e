package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/storage"
)

// WizardService dispatches every wizard operation to the engine of the
// requested kind. It owns the *gorm.DB because step writes and publish each
// run in their own transaction.
type WizardService struct {
	db       *gorm.DB
	log      zerolog.Logger
	machines map[model.WizardKind]machine
	predio   *engine[model.PredioWizard]
}

func NewWizardService(db *gorm.DB, blobs storage.BlobStore, log zerolog.Logger) *WizardService {
	predio := newEngine(newPredioFlavor(), db, blobs, log)
	electric := newEngine(newPoleFlavor(model.WizardElectricPole), db, blobs, log)
	telematic := newEngine(newPoleFlavor(model.WizardTelematicPole), db, blobs, log)

	return &WizardService{
		db:  db,
		log: log,
		machines: map[model.WizardKind]machine{
			model.WizardElectricPole:  electric,
			model.WizardTelematicPole: telematic,
			model.WizardPredio:        predio,
		},
		predio: predio,
	}
}

func (s *WizardService) machine(kind model.WizardKind) (machine, error) {
	m, ok := s.machines[kind]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// StartPole creates an empty draft. Any authenticated role may start one.
func (s *WizardService) StartPole(ctx context.Context, actor model.Principal, kind model.WizardKind) (*model.WizardSummary, error) {
	if !kind.IsPole() {
		return nil, ErrNotFound
	}
	wizard, err := startPole(ctx, s.db, kind, actor)
	if err != nil {
		return nil, err
	}
	summary := wizard.Summary()
	return &summary, nil
}

func (s *WizardService) StartPredio(ctx context.Context, actor model.Principal, in StartPredioInput) (*model.WizardSummary, error) {
	wizard, err := startPredio(ctx, s.db, actor, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("wizard_id", wizard.ID.String()).
		Str("actor_id", actor.UserID.String()).
		Uint("sector_id", wizard.SectorID).
		Msg("predio wizard started")
	summary := wizard.Summary()
	return &summary, nil
}

// NewStepInput returns an empty payload for the step, addressed by number or
// by name.
func (s *WizardService) NewStepInput(kind model.WizardKind, rawStep string) (StepInput, error) {
	m, err := s.machine(kind)
	if err != nil {
		return StepInput{}, err
	}
	return m.newInput(rawStep)
}

func (s *WizardService) SaveStep(ctx context.Context, actor model.Principal, kind model.WizardKind, id uuid.UUID, in StepInput) (*StepResult, error) {
	m, err := s.machine(kind)
	if err != nil {
		return nil, err
	}
	return m.saveStep(ctx, actor, id, in)
}

func (s *WizardService) Precheck(ctx context.Context, actor model.Principal, kind model.WizardKind, id uuid.UUID) (*PrecheckResult, error) {
	m, err := s.machine(kind)
	if err != nil {
		return nil, err
	}
	return m.precheck(ctx, actor, id)
}

func (s *WizardService) Publish(ctx context.Context, actor model.Principal, kind model.WizardKind, id uuid.UUID) (*PublishResult, error) {
	m, err := s.machine(kind)
	if err != nil {
		return nil, err
	}
	return m.publish(ctx, actor, id)
}

// List returns the actor's own wizards of the kind, most recently updated first.
func (s *WizardService) List(ctx context.Context, actor model.Principal, kind model.WizardKind) ([]model.WizardSummary, error) {
	m, err := s.machine(kind)
	if err != nil {
		return nil, err
	}
	return m.list(ctx, actor)
}

func (s *WizardService) Get(ctx context.Context, actor model.Principal, kind model.WizardKind, id uuid.UUID) (*WizardView, error) {
	m, err := s.machine(kind)
	if err != nil {
		return nil, err
	}
	return m.get(ctx, actor, id)
}

type PredioElements struct {
	ElectricElements  []int64 `json:"elementos_electricos"`
	TelematicElements []int64 `json:"elementos_telematicos"`
}

func predioElements(d model.PredioDetail) *PredioElements {
	out := &PredioElements{ElectricElements: d.ElectricElements, TelematicElements: d.TelematicElements}
	if out.ElectricElements == nil {
		out.ElectricElements = []int64{}
	}
	if out.TelematicElements == nil {
		out.TelematicElements = []int64{}
	}
	return out
}

func (s *WizardService) GetPredioElements(ctx context.Context, actor model.Principal, id uuid.UUID) (*PredioElements, error) {
	w, err := s.predio.loadVisible(ctx, s.db.WithContext(ctx), actor, id, false)
	if err != nil {
		return nil, err
	}
	return predioElements(w.Detail.Data()), nil
}

// SavePredioElements replaces the element lists that were sent. It is not a
// numbered step, so it is not gated by step order.
func (s *WizardService) SavePredioElements(ctx context.Context, actor model.Principal, id uuid.UUID, in PredioElementsInput) (*PredioElements, error) {
	var result *PredioElements
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.predio.loadEditable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		detail, err := savePredioElements(ctx, s.predio.stepContext(tx, nil), w, &in)
		if err != nil {
			return err
		}
		result = predioElements(detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
