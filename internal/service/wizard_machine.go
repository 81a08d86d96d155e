package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/repository"
	"vot-service/internal/storage"
)

// wizardRecord is the row a flavor keeps its state in.
type wizardRecord interface {
	Ownership() model.Ownership
	Summary() model.WizardSummary
}

// stepContext carries the transaction-bound collaborators of one step write or
// publish call.
type stepContext struct {
	tx      *gorm.DB
	catalog CatalogLookup
	photos  *photoLedger
	now     time.Time
	log     zerolog.Logger
}

type stepOutcome struct {
	data   any
	photos *PhotoBatchResult
}

type stepDef[W wizardRecord] struct {
	number   int
	name     string
	newInput func() any
	save     func(ctx context.Context, sc *stepContext, w *W, in any) (stepOutcome, error)
}

func (d stepDef[W]) ref() StepRef {
	return StepRef{Number: d.number, Name: d.name}
}

// step binds a typed save function to its payload type.
func step[W wizardRecord, I any](number int, name string, save func(context.Context, *stepContext, *W, *I) (stepOutcome, error)) stepDef[W] {
	return stepDef[W]{
		number:   number,
		name:     name,
		newInput: func() any { return new(I) },
		save: func(ctx context.Context, sc *stepContext, w *W, in any) (stepOutcome, error) {
			typed, ok := in.(*I)
			if !ok {
				return stepOutcome{}, fmt.Errorf("%w: unexpected payload %T for step %d", ErrInvalidInput, in, number)
			}
			return save(ctx, sc, w, typed)
		},
	}
}

// flavor describes one kind of wizard: its steps, which of them publish
// requires, and how its rows are loaded, updated and materialized.
type flavor[W wizardRecord] struct {
	kind     model.WizardKind
	steps    []stepDef[W]
	required []int
	// progressive flavors move draft -> in_progress -> ready as steps land.
	progressive bool

	load     func(ctx context.Context, tx *gorm.DB, id uuid.UUID, lock bool) (*W, error)
	update   func(ctx context.Context, tx *gorm.DB, w *W, fields map[string]any) error
	presence func(ctx context.Context, tx *gorm.DB, w *W) (map[int]bool, error)
	list     func(ctx context.Context, db *gorm.DB, ownerID uuid.UUID) ([]W, error)
	publish  func(ctx context.Context, sc *stepContext, w *W) (*PublishResult, error)
	view     func(ctx context.Context, tx *gorm.DB, w *W) (any, error)
}

func (f *flavor[W]) stepByRef(raw string) (stepDef[W], bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		for _, s := range f.steps {
			if s.number == n {
				return s, true
			}
		}
		return stepDef[W]{}, false
	}
	for _, s := range f.steps {
		if strings.EqualFold(s.name, raw) {
			return s, true
		}
	}
	return stepDef[W]{}, false
}

func (f *flavor[W]) stepByNumber(n int) (stepDef[W], bool) {
	for _, s := range f.steps {
		if s.number == n {
			return s, true
		}
	}
	return stepDef[W]{}, false
}

// statusAfter returns the status a wizard has once the given steps exist.
func (f *flavor[W]) statusAfter(present map[int]bool) model.WizardStatus {
	if !f.progressive {
		return model.WizardStatusDraft
	}
	for _, s := range f.steps {
		if !present[s.number] {
			return model.WizardStatusInProgress
		}
	}
	return model.WizardStatusReady
}

func (f *flavor[W]) missingForPublish(present map[int]bool) []StepRef {
	var missing []StepRef
	for _, n := range f.required {
		if present[n] {
			continue
		}
		if s, ok := f.stepByNumber(n); ok {
			missing = append(missing, s.ref())
		}
	}
	return missing
}

// StepInput is a decoded, not yet validated step payload.
type StepInput struct {
	Step    StepRef
	Payload any
}

type StepResult struct {
	Wizard model.WizardSummary `json:"wizard"`
	Step   StepRef             `json:"step"`
	Data   any                 `json:"data"`
	Photos *PhotoBatchResult   `json:"fotos,omitempty"`
}

type StepStatus struct {
	StepRef
	Present bool `json:"presente"`
}

type PrecheckResult struct {
	WizardID          uuid.UUID          `json:"wizard_id"`
	Status            model.WizardStatus `json:"estado"`
	HasStep1          bool               `json:"has_step1"`
	HasStep2          bool               `json:"has_step2"`
	Steps             []StepStatus       `json:"steps"`
	NextStep          *StepRef           `json:"next_step"`
	CanPublish        bool               `json:"can_publish"`
	MissingForPublish []StepRef          `json:"missing_for_publish"`
}

type PublishResult struct {
	Wizard   model.WizardSummary `json:"wizard"`
	ReportID *uuid.UUID          `json:"reporte_id,omitempty"`
	Report   *model.Report       `json:"reporte,omitempty"`
}

type WizardView struct {
	model.WizardSummary
	Steps []StepStatus `json:"steps"`
	Data  any          `json:"data"`
}

// machine is the kind-agnostic face of an engine.
type machine interface {
	kind() model.WizardKind
	newInput(rawStep string) (StepInput, error)
	saveStep(ctx context.Context, actor model.Principal, id uuid.UUID, in StepInput) (*StepResult, error)
	precheck(ctx context.Context, actor model.Principal, id uuid.UUID) (*PrecheckResult, error)
	publish(ctx context.Context, actor model.Principal, id uuid.UUID) (*PublishResult, error)
	list(ctx context.Context, actor model.Principal) ([]model.WizardSummary, error)
	get(ctx context.Context, actor model.Principal, id uuid.UUID) (*WizardView, error)
}

type engine[W wizardRecord] struct {
	flavor *flavor[W]
	db     *gorm.DB
	blobs  storage.BlobStore
	log    zerolog.Logger
	now    func() time.Time
}

func newEngine[W wizardRecord](f *flavor[W], db *gorm.DB, blobs storage.BlobStore, log zerolog.Logger) *engine[W] {
	return &engine[W]{
		flavor: f,
		db:     db,
		blobs:  blobs,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (e *engine[W]) kind() model.WizardKind {
	return e.flavor.kind
}

func (e *engine[W]) newInput(rawStep string) (StepInput, error) {
	def, ok := e.flavor.stepByRef(rawStep)
	if !ok {
		return StepInput{}, ErrNotFound
	}
	return StepInput{Step: def.ref(), Payload: def.newInput()}, nil
}

func (e *engine[W]) stepContext(tx *gorm.DB, blobs *blobTracker) *stepContext {
	return &stepContext{
		tx:      tx,
		catalog: NewCatalogResolver(repository.NewCatalogRepository(tx)),
		photos:  newPhotoLedger(tx, blobs),
		now:     e.now(),
		log:     e.log,
	}
}

// loadVisible hides wizards of other actors behind ErrNotFound.
func (e *engine[W]) loadVisible(ctx context.Context, tx *gorm.DB, actor model.Principal, id uuid.UUID, lock bool) (*W, error) {
	w, err := e.flavor.load(ctx, tx, id, lock)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess((*w).Ownership()) {
		return nil, ErrNotFound
	}
	return w, nil
}

func (e *engine[W]) loadEditable(ctx context.Context, tx *gorm.DB, actor model.Principal, id uuid.UUID) (*W, error) {
	w, err := e.loadVisible(ctx, tx, actor, id, true)
	if err != nil {
		return nil, err
	}
	if !(*w).Summary().Status.IsActive() {
		return nil, ErrNotEditable
	}
	return w, nil
}

func (e *engine[W]) saveStep(ctx context.Context, actor model.Principal, id uuid.UUID, in StepInput) (*StepResult, error) {
	def, ok := e.flavor.stepByNumber(in.Step.Number)
	if !ok {
		return nil, ErrNotFound
	}

	blobs := newBlobTracker(e.blobs, e.log)
	var result *StepResult

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := e.loadEditable(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		present, err := e.flavor.presence(ctx, tx, w)
		if err != nil {
			return err
		}
		if prev, ok := e.flavor.stepByNumber(def.number - 1); ok && !present[prev.number] {
			return &NotReadyError{Step: def.ref(), Missing: prev.ref()}
		}

		sc := e.stepContext(tx, blobs)
		out, err := def.save(ctx, sc, w, in.Payload)
		if err != nil {
			return err
		}

		present[def.number] = true
		fields := map[string]any{"updated_at": sc.now}
		if e.flavor.progressive {
			fields["status"] = e.flavor.statusAfter(present)
		}
		if err := e.flavor.update(ctx, tx, w, fields); err != nil {
			return err
		}

		w, err = e.flavor.load(ctx, tx, id, false)
		if err != nil {
			return err
		}
		result = &StepResult{
			Wizard: (*w).Summary(),
			Step:   def.ref(),
			Data:   out.data,
			Photos: out.photos,
		}
		return nil
	})
	if err != nil {
		blobs.discard(ctx)
		return nil, err
	}

	e.log.Debug().
		Str("kind", string(e.flavor.kind)).
		Str("wizard_id", id.String()).
		Int("step", def.number).
		Msg("wizard step saved")
	return result, nil
}

func (e *engine[W]) precheck(ctx context.Context, actor model.Principal, id uuid.UUID) (*PrecheckResult, error) {
	db := e.db.WithContext(ctx)
	w, err := e.loadVisible(ctx, db, actor, id, false)
	if err != nil {
		return nil, err
	}
	present, err := e.flavor.presence(ctx, db, w)
	if err != nil {
		return nil, err
	}

	summary := (*w).Summary()
	result := &PrecheckResult{
		WizardID:          summary.ID,
		Status:            summary.Status,
		HasStep1:          present[1],
		HasStep2:          present[2],
		Steps:             e.stepStatuses(present),
		MissingForPublish: e.flavor.missingForPublish(present),
	}
	if result.MissingForPublish == nil {
		result.MissingForPublish = []StepRef{}
	}
	for _, s := range e.flavor.steps {
		if !present[s.number] {
			next := s.ref()
			result.NextStep = &next
			break
		}
	}
	result.CanPublish = summary.Status.IsActive() && len(result.MissingForPublish) == 0
	return result, nil
}

func (e *engine[W]) stepStatuses(present map[int]bool) []StepStatus {
	out := make([]StepStatus, 0, len(e.flavor.steps))
	for _, s := range e.flavor.steps {
		out = append(out, StepStatus{StepRef: s.ref(), Present: present[s.number]})
	}
	return out
}

func (e *engine[W]) publish(ctx context.Context, actor model.Principal, id uuid.UUID) (*PublishResult, error) {
	blobs := newBlobTracker(e.blobs, e.log)
	var result *PublishResult

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := e.loadEditable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		present, err := e.flavor.presence(ctx, tx, w)
		if err != nil {
			return err
		}
		if missing := e.flavor.missingForPublish(present); len(missing) > 0 {
			return &IncompleteError{Missing: missing}
		}

		result, err = e.flavor.publish(ctx, e.stepContext(tx, blobs), w)
		return err
	})
	if err != nil {
		blobs.discard(ctx)
		return nil, err
	}

	ev := e.log.Info().
		Str("kind", string(e.flavor.kind)).
		Str("wizard_id", id.String()).
		Str("actor_id", actor.UserID.String())
	if result.ReportID != nil {
		ev = ev.Str("report_id", result.ReportID.String())
	}
	ev.Msg("wizard published")
	return result, nil
}

func (e *engine[W]) list(ctx context.Context, actor model.Principal) ([]model.WizardSummary, error) {
	rows, err := e.flavor.list(ctx, e.db.WithContext(ctx), actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]model.WizardSummary, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.Summary())
	}
	return out, nil
}

func (e *engine[W]) get(ctx context.Context, actor model.Principal, id uuid.UUID) (*WizardView, error) {
	db := e.db.WithContext(ctx)
	w, err := e.loadVisible(ctx, db, actor, id, false)
	if err != nil {
		return nil, err
	}
	present, err := e.flavor.presence(ctx, db, w)
	if err != nil {
		return nil, err
	}
	data, err := e.flavor.view(ctx, db, w)
	if err != nil {
		return nil, err
	}
	return &WizardView{
		WizardSummary: (*w).Summary(),
		Steps:         e.stepStatuses(present),
		Data:          data,
	}, nil
}
