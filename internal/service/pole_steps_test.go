package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"vot-service/internal/model"
	"vot-service/internal/patch"
)

type fakeLookup struct {
	entries  map[model.CatalogCategory][]model.CatalogEntry
	elements map[model.ElementType][]int64
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		entries: map[model.CatalogCategory][]model.CatalogEntry{
			model.CatalogStructure:        {{Category: model.CatalogStructure, ID: 1, Label: "Concreto"}},
			model.CatalogMaterial:         {{Category: model.CatalogMaterial, ID: 2, Label: "Metal"}},
			model.CatalogInstallationZone: {{Category: model.CatalogInstallationZone, ID: 3, Label: "Urbana"}},
			model.CatalogResistance:       {{Category: model.CatalogResistance, ID: 4, Label: "500 kg"}},
			model.CatalogPhysicalState:    {{Category: model.CatalogPhysicalState, ID: 1, Label: "Bueno"}},
			model.CatalogInclination:      {{Category: model.CatalogInclination, ID: 1, Label: "Vertical"}},
			model.CatalogOwner:            {{Category: model.CatalogOwner, ID: 1, Label: "ENEL"}},
		},
		elements: map[model.ElementType][]int64{
			model.ElementElectric:  {1, 2},
			model.ElementTelematic: {3},
		},
	}
}

func (f *fakeLookup) Resolve(_ context.Context, category model.CatalogCategory, ref CatalogRef) (*model.CatalogEntry, error) {
	for _, e := range f.entries[category] {
		if ref.ID != nil && e.ID == *ref.ID {
			entry := e
			return &entry, nil
		}
		if ref.ID == nil && ref.Name != nil && strings.EqualFold(e.Label, strings.TrimSpace(*ref.Name)) {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeLookup) MissingElements(_ context.Context, elementType model.ElementType, ids []int64) ([]int64, error) {
	known := map[int64]bool{}
	for _, id := range f.elements[elementType] {
		known[id] = true
	}
	var missing []int64
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func decode[T any](t *testing.T, body string) *T {
	t.Helper()
	in := new(T)
	if err := json.Unmarshal([]byte(body), in); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return in
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	return verr.Fields
}

func TestValidatePoleGeneralElectric(t *testing.T) {
	in := decode[PoleGeneralInput](t, `{
		"tension": "mt",
		"cables_electricos": 4,
		"cables_telematicos": "2",
		"codigo": "  EL-001 ",
		"elementos_electricos": [1, 2, 1]
	}`)

	changes, err := validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardElectricPole, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tension, ok := changes["tension"].(*model.TensionClass)
	if !ok || *tension != model.TensionMedium {
		t.Fatalf("expected tension MT, got %#v", changes["tension"])
	}
	if v := changes["electric_cables"].(*int); *v != 4 {
		t.Fatalf("expected 4 electric cables, got %d", *v)
	}
	if v := changes["telematic_cables"].(*int); *v != 2 {
		t.Fatalf("expected 2 telematic cables, got %d", *v)
	}
	if v := changes["code"].(*string); *v != "EL-001" {
		t.Fatalf("expected trimmed code, got %q", *v)
	}
	elements := changes["electric_elements"].(datatypes.JSONSlice[int64])
	if len(elements) != 2 {
		t.Fatalf("expected duplicates removed, got %v", elements)
	}
	if _, ok := changes["telematic_elements"]; ok {
		t.Fatalf("omitted list must not be touched")
	}
}

func TestValidatePoleGeneralRejectsFieldsOfOtherKind(t *testing.T) {
	in := decode[PoleGeneralInput](t, `{"tension": "BT", "cables_electricos": 1}`)
	_, err := validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardTelematicPole, in)
	fields := validationFields(t, err)
	if _, ok := fields["tension"]; !ok {
		t.Fatalf("expected tension error, got %v", fields)
	}
	if _, ok := fields["cables_electricos"]; !ok {
		t.Fatalf("expected cables_electricos error, got %v", fields)
	}

	in = decode[PoleGeneralInput](t, `{"cable_electrico": 1, "tension": "XT", "cables_electricos": -1}`)
	_, err = validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardElectricPole, in)
	fields = validationFields(t, err)
	for _, name := range []string{"cable_electrico", "tension", "cables_electricos"} {
		if _, ok := fields[name]; !ok {
			t.Fatalf("expected %s error, got %v", name, fields)
		}
	}
}

func TestValidatePoleGeneralReportsAllUnknownElements(t *testing.T) {
	in := decode[PoleGeneralInput](t, `{"elementos_telematicos": [3, 98, 99]}`)
	_, err := validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardTelematicPole, in)
	fields := validationFields(t, err)
	msgs := fields["elementos_telematicos"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "98") || !strings.Contains(msgs[0], "99") {
		t.Fatalf("expected one message naming 98 and 99, got %v", msgs)
	}
}

func TestNumericResistanceOverridesCatalog(t *testing.T) {
	cases := []string{
		`{"resistencia_id": 4, "resistencia_valor": 120}`,
		`{"resistencia_nombre": "500 kg", "resistencia_valor": "120"}`,
		`{"resistencia_valor": 120}`,
	}
	for _, body := range cases {
		in := decode[PoleCharacteristicsInput](t, body)
		changes, err := validatePoleCharacteristics(context.Background(), newFakeLookup(), in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if v, ok := changes["resistance_id"]; !ok || v != nil {
			t.Fatalf("%s: expected resistance_id forced to null, got %#v", body, v)
		}
		if v := changes["resistance_value"].(*int); *v != 120 {
			t.Fatalf("%s: expected resistance value 120, got %d", body, *v)
		}
	}
}

func TestOversizedIntegersAreRejected(t *testing.T) {
	huge := "18446744073709551621"

	in := decode[PoleGeneralInput](t, `{"cables_electricos": `+huge+`, "cables_telematicos": "`+huge+`"}`)
	_, err := validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardElectricPole, in)
	fields := validationFields(t, err)
	for _, name := range []string{"cables_electricos", "cables_telematicos"} {
		if len(fields[name]) != 1 || fields[name][0] != patch.ErrOutOfRange.Error() {
			t.Fatalf("%s: expected out of range error, got %v", name, fields[name])
		}
	}

	in = decode[PoleGeneralInput](t, `{"cable_electrico": `+huge+`}`)
	_, err = validatePoleGeneral(context.Background(), newFakeLookup(), model.WizardTelematicPole, in)
	if fields := validationFields(t, err); len(fields["cable_electrico"]) != 1 {
		t.Fatalf("expected cable_electrico error, got %v", fields)
	}

	chars := decode[PoleCharacteristicsInput](t, `{"resistencia_valor": `+huge+`}`)
	_, err = validatePoleCharacteristics(context.Background(), newFakeLookup(), chars)
	fields = validationFields(t, err)
	if len(fields["resistencia_valor"]) != 1 || fields["resistencia_valor"][0] != patch.ErrOutOfRange.Error() {
		t.Fatalf("expected resistencia_valor out of range, got %v", fields)
	}
}

func TestCharacteristicsCatalogSelection(t *testing.T) {
	in := decode[PoleCharacteristicsInput](t, `{
		"estructura_nombre": "concreto",
		"material_id": 2,
		"resistencia_id": 4
	}`)
	changes, err := validatePoleCharacteristics(context.Background(), newFakeLookup(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id := changes["structure_id"].(*uint); *id != 1 {
		t.Fatalf("expected structure 1, got %d", *id)
	}
	if id := changes["resistance_id"].(*uint); *id != 4 {
		t.Fatalf("expected resistance 4, got %d", *id)
	}
	if _, ok := changes["installation_zone_id"]; ok {
		t.Fatalf("omitted selection must not be touched")
	}

	in = decode[PoleCharacteristicsInput](t, `{
		"estructura_id": 99,
		"material_nombre": "Metal/Madera",
		"resistencia_valor": -3
	}`)
	_, err = validatePoleCharacteristics(context.Background(), newFakeLookup(), in)
	fields := validationFields(t, err)
	for _, name := range []string{"estructura", "material", "resistencia_valor"} {
		if _, ok := fields[name]; !ok {
			t.Fatalf("expected %s error, got %v", name, fields)
		}
	}
	if fields["material"][0] != "only one value is allowed" {
		t.Fatalf("unexpected material message %q", fields["material"][0])
	}
}

func TestValidateHeight(t *testing.T) {
	cases := []struct {
		name string
		kind model.WizardKind
		raw  string
		ok   bool
		msg  string
	}{
		{name: "electric zero", kind: model.WizardElectricPole, raw: "0", ok: true},
		{name: "electric max", kind: model.WizardElectricPole, raw: "100", ok: true},
		{name: "electric over", kind: model.WizardElectricPole, raw: "100.01", msg: "must be between 0 and 100"},
		{name: "electric negative", kind: model.WizardElectricPole, raw: "-1", msg: "must be between 0 and 100"},
		{name: "telematic zero", kind: model.WizardTelematicPole, raw: "0", msg: "must be greater than 0"},
		{name: "telematic max", kind: model.WizardTelematicPole, raw: "999.99", ok: true},
		{name: "telematic over", kind: model.WizardTelematicPole, raw: "1000", msg: "must be at most 999.99"},
		{name: "not a number", kind: model.WizardTelematicPole, raw: "alto", msg: "must be numeric"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := NewValidationError()
			_, ok := validateHeight(errs, tc.kind, patch.NumberOf(tc.raw))
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%v)", tc.ok, ok, errs.Fields)
			}
			if !tc.ok && errs.Fields["altura"][0] != tc.msg {
				t.Fatalf("expected %q, got %v", tc.msg, errs.Fields["altura"])
			}
		})
	}
}

func TestValidatePoleConditionRoundsHeight(t *testing.T) {
	in := decode[PoleConditionInput](t, `{"estado_poste": "bueno", "propietario": "ENEL", "altura": "12.345", "notas": " inclinado "}`)
	changes, err := validatePoleCondition(context.Background(), newFakeLookup(), model.WizardElectricPole, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	height := changes["height"].(decimal.NullDecimal)
	if !height.Valid || !height.Decimal.Equal(decimal.RequireFromString("12.35")) {
		t.Fatalf("expected 12.35, got %v", height)
	}
	if changes["notes"] != "inclinado" {
		t.Fatalf("expected trimmed notes, got %q", changes["notes"])
	}

	in = decode[PoleConditionInput](t, `{"inclinacion": "Torcido", "altura": null}`)
	_, err = validatePoleCondition(context.Background(), newFakeLookup(), model.WizardElectricPole, in)
	fields := validationFields(t, err)
	if _, ok := fields["inclinacion"]; !ok {
		t.Fatalf("expected inclinacion error, got %v", fields)
	}
}

func TestCoordinatesTravelTogether(t *testing.T) {
	in := decode[PoleLocationInput](t, `{"latitud": -12.1}`)
	_, err := validatePoleLocation(in)
	fields := validationFields(t, err)
	if _, ok := fields["longitud"]; !ok {
		t.Fatalf("expected longitud error, got %v", fields)
	}

	in = decode[PoleLocationInput](t, `{"latitud": -12.1, "longitud": -77.03}`)
	changes, err := validatePoleLocation(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat := changes["latitude"].(*float64); *lat != -12.1 {
		t.Fatalf("expected latitude -12.1, got %v", *lat)
	}

	in = decode[PoleLocationInput](t, `{"latitud": 91, "longitud": -181}`)
	_, err = validatePoleLocation(in)
	fields = validationFields(t, err)
	if _, ok := fields["latitud"]; !ok {
		t.Fatalf("expected latitud error, got %v", fields)
	}
	if _, ok := fields["longitud"]; !ok {
		t.Fatalf("expected longitud error, got %v", fields)
	}
}
