package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/testutil"
)

type fixture struct {
	db      *gorm.DB
	blobs   *testutil.MemoryBlobStore
	svc     *WizardService
	geo     testutil.Geo
	catalog testutil.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewDB(t)
	blobs := testutil.NewMemoryBlobStore()
	return &fixture{
		db:      database,
		blobs:   blobs,
		svc:     NewWizardService(database, blobs, zerolog.Nop()),
		geo:     testutil.SeedGeo(t, database),
		catalog: testutil.SeedCatalog(t, database),
	}
}

func (f *fixture) input(t *testing.T, kind model.WizardKind, step, body string, photos ...PhotoUpload) StepInput {
	t.Helper()
	in, err := f.svc.NewStepInput(kind, step)
	if err != nil {
		t.Fatalf("step %s of %s: %v", step, kind, err)
	}
	if err := json.Unmarshal([]byte(body), in.Payload); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if len(photos) > 0 {
		receiver, ok := in.Payload.(PhotoReceiver)
		if !ok {
			t.Fatalf("step %s of %s does not take photos", step, kind)
		}
		receiver.SetPhotos(photos)
	}
	return in
}

func (f *fixture) save(t *testing.T, actor model.Principal, kind model.WizardKind, id uuid.UUID, step, body string, photos ...PhotoUpload) (*StepResult, error) {
	t.Helper()
	return f.svc.SaveStep(context.Background(), actor, kind, id, f.input(t, kind, step, body, photos...))
}

func (f *fixture) mustSave(t *testing.T, actor model.Principal, kind model.WizardKind, id uuid.UUID, step, body string, photos ...PhotoUpload) *StepResult {
	t.Helper()
	res, err := f.save(t, actor, kind, id, step, body, photos...)
	if err != nil {
		t.Fatalf("save step %s: %v", step, err)
	}
	return res
}

func (f *fixture) startPole(t *testing.T, actor model.Principal, kind model.WizardKind) uuid.UUID {
	t.Helper()
	summary, err := f.svc.StartPole(context.Background(), actor, kind)
	if err != nil {
		t.Fatalf("start %s: %v", kind, err)
	}
	return summary.ID
}

// completePole saves the first n steps of a pole wizard.
func (f *fixture) completePole(t *testing.T, actor model.Principal, kind model.WizardKind, id uuid.UUID, n int) {
	t.Helper()
	bodies := []string{
		`{"cables_telematicos": 2, "codigo": "P-1"}`,
		`{"estructura_id": 1, "material_nombre": "metal"}`,
		`{"estado_poste_id": 1, "altura": 9.5}`,
		`{"latitud": -12.1, "longitud": -77.0}`,
	}
	for i := 0; i < n; i++ {
		f.mustSave(t, actor, kind, id, string(rune('1'+i)), bodies[i])
	}
}

func photoUpload(name string, size int) PhotoUpload {
	data := bytes.Repeat([]byte{0xff}, size)
	return PhotoUpload{
		Name:        name,
		Size:        int64(size),
		ContentType: "image/jpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestStepRequiresPreviousStep(t *testing.T) {
	f := newFixture(t)
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardElectricPole)

	for _, n := range []string{"2", "3", "4"} {
		_, err := f.save(t, actor, model.WizardElectricPole, id, n, `{}`)
		var notReady *NotReadyError
		if !errors.As(err, &notReady) {
			t.Fatalf("step %s: expected NotReadyError, got %v", n, err)
		}
		if !errors.Is(err, ErrNotReady) || errors.Is(err, ErrInvalidInput) {
			t.Fatalf("step %s: NotReadyError must not look like a validation error", n)
		}
	}

	f.mustSave(t, actor, model.WizardElectricPole, id, "1", `{"tension": "BT"}`)

	_, err := f.save(t, actor, model.WizardElectricPole, id, "3", `{}`)
	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if notReady.Step.Number != 3 || notReady.Missing.Number != 2 || notReady.Missing.Name != "caracteristicas" {
		t.Fatalf("unexpected refs %+v", notReady)
	}

	f.mustSave(t, actor, model.WizardElectricPole, id, "2", `{}`)
	f.mustSave(t, actor, model.WizardElectricPole, id, "3", `{}`)
	res := f.mustSave(t, actor, model.WizardElectricPole, id, "4", `{}`)
	if res.Wizard.Status != model.WizardStatusDraft {
		t.Fatalf("pole wizards stay in draft until published, got %s", res.Wizard.Status)
	}
}

func TestStepUpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardTelematicPole)
	f.completePole(t, actor, model.WizardTelematicPole, id, 1)

	body := `{"estructura_id": 1, "material_id": 2, "resistencia_valor": 80}`
	first := f.mustSave(t, actor, model.WizardTelematicPole, id, "2", body).Data.(*model.PoleCharacteristics)
	second := f.mustSave(t, actor, model.WizardTelematicPole, id, "2", body).Data.(*model.PoleCharacteristics)

	if first.ID != second.ID {
		t.Fatalf("expected the same row, got %s and %s", first.ID, second.ID)
	}
	if *second.StructureID != 1 || *second.MaterialID != 2 || *second.ResistanceValue != 80 || second.ResistanceID != nil {
		t.Fatalf("unexpected state %+v", second)
	}

	var count int64
	f.db.Model(&model.PoleCharacteristics{}).Where("wizard_id = ?", id).Count(&count)
	if count != 1 {
		t.Fatalf("expected one characteristics row, got %d", count)
	}

	// частичное обновление не трогает остальные поля
	third := f.mustSave(t, actor, model.WizardTelematicPole, id, "2", `{"zona_instalacion_nombre": "urbana"}`).Data.(*model.PoleCharacteristics)
	if third.StructureID == nil || *third.StructureID != 1 || *third.InstallationZoneID != 3 {
		t.Fatalf("partial update lost fields: %+v", third)
	}
}

func TestWizardHiddenFromOtherActors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := testutil.CompanyID()
	owner := testutil.Encargado(company)
	id := f.startPole(t, owner, model.WizardElectricPole)
	f.completePole(t, owner, model.WizardElectricPole, id, 2)

	stranger := testutil.Encargado(company)
	if _, err := f.save(t, stranger, model.WizardElectricPole, id, "1", `{"codigo": "HIJACK"}`); !errors.Is(err, ErrNotFound) {
		t.Fatalf("save: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Precheck(ctx, stranger, model.WizardElectricPole, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("precheck: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Publish(ctx, stranger, model.WizardElectricPole, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("publish: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Get(ctx, stranger, model.WizardElectricPole, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}

	var stored model.PoleWizard
	if err := f.db.First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Code == nil || *stored.Code != "P-1" {
		t.Fatalf("wizard was mutated by another actor: %v", stored.Code)
	}

	otherAdmin := testutil.Principal(model.RoleAdmin, testutil.CompanyID())
	if _, err := f.svc.Precheck(ctx, otherAdmin, model.WizardElectricPole, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("admin of another company: expected ErrNotFound, got %v", err)
	}
	for _, actor := range []model.Principal{
		testutil.Principal(model.RoleAdmin, company),
		testutil.Principal(model.RoleSuperadmin, nil),
	} {
		if _, err := f.svc.Precheck(ctx, actor, model.WizardElectricPole, id); err != nil {
			t.Fatalf("%s: unexpected error %v", actor.Role, err)
		}
	}

	if _, err := f.svc.Get(ctx, owner, model.WizardTelematicPole, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong kind: expected ErrNotFound, got %v", err)
	}
}

func TestPublishRequiresEveryStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardElectricPole)
	f.completePole(t, actor, model.WizardElectricPole, id, 3)

	_, err := f.svc.Publish(ctx, actor, model.WizardElectricPole, id)
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if len(incomplete.Missing) != 1 || incomplete.Missing[0].Name != "ubicacion" {
		t.Fatalf("expected ubicacion missing, got %+v", incomplete.Missing)
	}

	f.mustSave(t, actor, model.WizardElectricPole, id, "4", `{"latitud": -12.1, "longitud": -77.0}`)

	if err := f.db.Where("wizard_id = ?", id).Delete(&model.PoleCondition{}).Error; err != nil {
		t.Fatalf("delete condition: %v", err)
	}
	_, err = f.svc.Publish(ctx, actor, model.WizardElectricPole, id)
	if !errors.As(err, &incomplete) || len(incomplete.Missing) != 1 || incomplete.Missing[0].Number != 3 {
		t.Fatalf("expected step 3 missing, got %v", err)
	}

	f.mustSave(t, actor, model.WizardElectricPole, id, "condicion", `{"altura": 10}`)
	res, err := f.svc.Publish(ctx, actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.Wizard.Status != model.WizardStatusPublished || res.Wizard.PublishedAt == nil {
		t.Fatalf("unexpected summary %+v", res.Wizard)
	}
	if res.ReportID != nil {
		t.Fatalf("pole publish must not create a report")
	}
}

func TestPublishedWizardIsNotEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardTelematicPole)
	f.completePole(t, actor, model.WizardTelematicPole, id, 4)

	if _, err := f.svc.Publish(ctx, actor, model.WizardTelematicPole, id); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_, err := f.save(t, actor, model.WizardTelematicPole, id, "1", `{"codigo": "X"}`)
	if !errors.Is(err, ErrNotEditable) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
	if _, err := f.svc.Publish(ctx, actor, model.WizardTelematicPole, id); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("second publish: expected ErrNotEditable, got %v", err)
	}

	pre, err := f.svc.Precheck(ctx, actor, model.WizardTelematicPole, id)
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if pre.CanPublish {
		t.Fatalf("published wizard cannot be published again")
	}
}

func TestListIsMostRecentlyUpdatedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.Encargado(nil)

	first := f.startPole(t, actor, model.WizardElectricPole)
	second := f.startPole(t, actor, model.WizardElectricPole)
	f.startPole(t, actor, model.WizardTelematicPole)
	f.startPole(t, testutil.Encargado(nil), model.WizardElectricPole)

	f.completePole(t, actor, model.WizardElectricPole, first, 1)

	list, err := f.svc.List(ctx, actor, model.WizardElectricPole)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 electric wizards, got %d", len(list))
	}
	if list[0].ID != first || list[1].ID != second {
		t.Fatalf("unexpected order %s, %s", list[0].ID, list[1].ID)
	}
}

func TestPrecheckReportsPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardElectricPole)

	pre, err := f.svc.Precheck(ctx, actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if pre.HasStep1 || pre.HasStep2 || pre.CanPublish {
		t.Fatalf("unexpected precheck %+v", pre)
	}
	if pre.NextStep == nil || pre.NextStep.Number != 1 || len(pre.MissingForPublish) != 4 {
		t.Fatalf("unexpected next/missing %+v", pre)
	}

	f.completePole(t, actor, model.WizardElectricPole, id, 2)
	pre, err = f.svc.Precheck(ctx, actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if !pre.HasStep1 || !pre.HasStep2 || pre.NextStep.Number != 3 {
		t.Fatalf("unexpected precheck %+v", pre)
	}

	f.mustSave(t, actor, model.WizardElectricPole, id, "3", `{}`)
	f.mustSave(t, actor, model.WizardElectricPole, id, "4", `{}`)
	pre, err = f.svc.Precheck(ctx, actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if !pre.CanPublish || pre.NextStep != nil || len(pre.MissingForPublish) != 0 {
		t.Fatalf("expected publishable wizard, got %+v", pre)
	}
}

func TestStepAddressing(t *testing.T) {
	f := newFixture(t)

	in, err := f.svc.NewStepInput(model.WizardElectricPole, "Condicion")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if in.Step.Number != 3 {
		t.Fatalf("expected step 3, got %d", in.Step.Number)
	}
	if _, ok := in.Payload.(*PoleConditionInput); !ok {
		t.Fatalf("unexpected payload %T", in.Payload)
	}

	in, err = f.svc.NewStepInput(model.WizardPredio, "2")
	if err != nil || in.Step.Name != "coordenadas" {
		t.Fatalf("expected coordenadas, got %+v (%v)", in.Step, err)
	}

	if _, err := f.svc.NewStepInput(model.WizardPredio, "4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown step, got %v", err)
	}
	if _, err := f.svc.NewStepInput(model.WizardKind("agua"), "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown kind, got %v", err)
	}
}

func TestValidationFailureLeavesWizardUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardElectricPole)
	f.completePole(t, actor, model.WizardElectricPole, id, 1)

	_, err := f.save(t, actor, model.WizardElectricPole, id, "2", `{"estructura_id": 5}`)
	fields := validationFields(t, err)
	if _, ok := fields["estructura"]; !ok {
		t.Fatalf("retired structure must not resolve, got %v", fields)
	}

	pre, err := f.svc.Precheck(ctx, actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if pre.HasStep2 {
		t.Fatalf("failed step write must not create the step row")
	}
}

func TestGetReturnsStepData(t *testing.T) {
	f := newFixture(t)
	actor := testutil.Encargado(nil)
	id := f.startPole(t, actor, model.WizardElectricPole)
	f.completePole(t, actor, model.WizardElectricPole, id, 4)

	view, err := f.svc.Get(context.Background(), actor, model.WizardElectricPole, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data := view.Data.(poleView)
	if data.General == nil || *data.General.Code != "P-1" {
		t.Fatalf("unexpected general %+v", data.General)
	}
	if data.Condition == nil || !data.Condition.Height.Valid {
		t.Fatalf("unexpected condition %+v", data.Condition)
	}
	for _, s := range view.Steps {
		if !s.Present {
			t.Fatalf("expected step %d present", s.Number)
		}
	}
}
