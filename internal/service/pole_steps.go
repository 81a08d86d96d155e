package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"vot-service/internal/model"
	"vot-service/internal/patch"
)

const (
	poleStepGeneral         = 1
	poleStepCharacteristics = 2
	poleStepCondition       = 3
	poleStepLocation        = 4
)

type PoleGeneralInput struct {
	Tension           patch.Field[string]  `json:"tension"`
	ElectricCables    patch.Number         `json:"cables_electricos"`
	TelematicCables   patch.Number         `json:"cables_telematicos"`
	ElectricCable     patch.Number         `json:"cable_electrico"`
	Code              patch.Field[string]  `json:"codigo"`
	ElectricElements  patch.Field[[]int64] `json:"elementos_electricos"`
	TelematicElements patch.Field[[]int64] `json:"elementos_telematicos"`
}

type PoleCharacteristicsInput struct {
	StructureID          patch.Field[uint]   `json:"estructura_id"`
	StructureName        patch.Field[string] `json:"estructura_nombre"`
	MaterialID           patch.Field[uint]   `json:"material_id"`
	MaterialName         patch.Field[string] `json:"material_nombre"`
	InstallationZoneID   patch.Field[uint]   `json:"zona_instalacion_id"`
	InstallationZoneName patch.Field[string] `json:"zona_instalacion_nombre"`
	ResistanceID         patch.Field[uint]   `json:"resistencia_id"`
	ResistanceName       patch.Field[string] `json:"resistencia_nombre"`
	ResistanceValue      patch.Number        `json:"resistencia_valor"`
}

type PoleConditionInput struct {
	PhysicalStateID   patch.Field[uint]   `json:"estado_poste_id"`
	PhysicalStateName patch.Field[string] `json:"estado_poste"`
	InclinationID     patch.Field[uint]   `json:"inclinacion_id"`
	InclinationName   patch.Field[string] `json:"inclinacion"`
	OwnerID           patch.Field[uint]   `json:"propietario_id"`
	OwnerName         patch.Field[string] `json:"propietario"`
	Height            patch.Number        `json:"altura"`
	Notes             patch.Field[string] `json:"notas"`
}

type PoleLocationInput struct {
	Latitude     patch.Number        `json:"latitud"`
	Longitude    patch.Number        `json:"longitud"`
	Observations patch.Field[string] `json:"observaciones"`

	photos []PhotoUpload
}

func (in *PoleLocationInput) SetPhotos(photos []PhotoUpload) {
	in.photos = photos
}

// validatePoleGeneral returns the pole_wizards columns to update.
func validatePoleGeneral(ctx context.Context, lookup CatalogLookup, kind model.WizardKind, in *PoleGeneralInput) (map[string]any, error) {
	errs := NewValidationError()
	changes := map[string]any{}

	if kind == model.WizardElectricPole {
		if in.Tension.Set {
			if in.Tension.Null {
				changes["tension"] = nil
			} else {
				tension := model.TensionClass(strings.ToUpper(strings.TrimSpace(in.Tension.Value)))
				if tension.Valid() {
					changes["tension"] = &tension
				} else {
					errs.Add("tension", "must be one of BT, MT, AT")
				}
			}
		}
		if in.ElectricCable.Set {
			errs.Add("cable_electrico", "not applicable to electric poles")
		}
		if v, ok := nonNegativeInt(errs, "cables_electricos", in.ElectricCables); ok {
			changes["electric_cables"] = v
		}
	} else {
		if in.Tension.Set {
			errs.Add("tension", "not applicable to telematic poles")
		}
		if in.ElectricCables.Set {
			errs.Add("cables_electricos", "not applicable to telematic poles")
		}
		if v, ok := nonNegativeInt(errs, "cable_electrico", in.ElectricCable); ok {
			changes["electric_cables"] = v
		}
	}

	if v, ok := nonNegativeInt(errs, "cables_telematicos", in.TelematicCables); ok {
		changes["telematic_cables"] = v
	}
	if v, ok := optionalText(errs, "codigo", in.Code, 50); ok {
		changes["code"] = v
	}

	electric, ok, err := validateElements(ctx, lookup, errs, "elementos_electricos", model.ElementElectric, in.ElectricElements)
	if err != nil {
		return nil, err
	}
	if ok {
		changes["electric_elements"] = datatypes.JSONSlice[int64](electric)
	}
	telematic, ok, err := validateElements(ctx, lookup, errs, "elementos_telematicos", model.ElementTelematic, in.TelematicElements)
	if err != nil {
		return nil, err
	}
	if ok {
		changes["telematic_elements"] = datatypes.JSONSlice[int64](telematic)
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return changes, nil
}

// validatePoleCharacteristics: a numeric resistencia_valor always wins over a
// catalog resistance, which is then stored as null.
func validatePoleCharacteristics(ctx context.Context, lookup CatalogLookup, in *PoleCharacteristicsInput) (map[string]any, error) {
	errs := NewValidationError()
	changes := map[string]any{}

	fields := []catalogField{
		{field: "estructura", column: "structure_id", category: model.CatalogStructure, id: in.StructureID, name: in.StructureName},
		{field: "material", column: "material_id", category: model.CatalogMaterial, id: in.MaterialID, name: in.MaterialName},
		{field: "zona_instalacion", column: "installation_zone_id", category: model.CatalogInstallationZone, id: in.InstallationZoneID, name: in.InstallationZoneName},
	}
	for _, f := range fields {
		id, touched, err := resolveCatalogField(ctx, lookup, errs, f)
		if err != nil {
			return nil, err
		}
		if touched {
			changes[f.column] = id
		}
	}

	if in.ResistanceValue.HasValue() {
		value, err := in.ResistanceValue.Int()
		switch {
		case err != nil:
			errs.Add("resistencia_valor", err.Error())
		case value < 0:
			errs.Add("resistencia_valor", msgNonNegative)
		default:
			changes["resistance_value"] = &value
			changes["resistance_id"] = nil
		}
	} else {
		resistance := catalogField{field: "resistencia", column: "resistance_id", category: model.CatalogResistance, id: in.ResistanceID, name: in.ResistanceName}
		id, touched, err := resolveCatalogField(ctx, lookup, errs, resistance)
		if err != nil {
			return nil, err
		}
		if touched {
			changes["resistance_id"] = id
			if id != nil {
				changes["resistance_value"] = nil
			}
		}
		if in.ResistanceValue.Set {
			changes["resistance_value"] = nil
		}
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return changes, nil
}

func validatePoleCondition(ctx context.Context, lookup CatalogLookup, kind model.WizardKind, in *PoleConditionInput) (map[string]any, error) {
	errs := NewValidationError()
	changes := map[string]any{}

	fields := []catalogField{
		{field: "estado_poste", column: "physical_state_id", category: model.CatalogPhysicalState, id: in.PhysicalStateID, name: in.PhysicalStateName},
		{field: "inclinacion", column: "inclination_id", category: model.CatalogInclination, id: in.InclinationID, name: in.InclinationName},
		{field: "propietario", column: "owner_entity_id", category: model.CatalogOwner, id: in.OwnerID, name: in.OwnerName},
	}
	for _, f := range fields {
		id, touched, err := resolveCatalogField(ctx, lookup, errs, f)
		if err != nil {
			return nil, err
		}
		if touched {
			changes[f.column] = id
		}
	}

	if in.Height.Set {
		if in.Height.Null {
			changes["height"] = decimal.NullDecimal{}
		} else if height, ok := validateHeight(errs, kind, in.Height); ok {
			changes["height"] = decimal.NewNullDecimal(height)
		}
	}

	if in.Notes.Set {
		changes["notes"] = strings.TrimSpace(in.Notes.Value)
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return changes, nil
}

var (
	maxElectricHeight  = decimal.NewFromInt(100)
	maxTelematicHeight = decimal.RequireFromString("999.99")
)

// validateHeight reports a value that is not a number separately from a value
// that is out of range.
func validateHeight(errs *ValidationError, kind model.WizardKind, n patch.Number) (decimal.Decimal, bool) {
	height, err := n.Decimal()
	if err != nil {
		errs.Add("altura", err.Error())
		return decimal.Zero, false
	}
	height = height.Round(2)

	if kind == model.WizardElectricPole {
		if height.IsNegative() || height.GreaterThan(maxElectricHeight) {
			errs.Add("altura", "must be between 0 and 100")
			return decimal.Zero, false
		}
		return height, true
	}

	if !height.IsPositive() {
		errs.Add("altura", "must be greater than 0")
		return decimal.Zero, false
	}
	if height.GreaterThan(maxTelematicHeight) {
		errs.Add("altura", fmt.Sprintf("must be at most %s", maxTelematicHeight))
		return decimal.Zero, false
	}
	return height, true
}

func validatePoleLocation(in *PoleLocationInput) (map[string]any, error) {
	errs := NewValidationError()
	changes := map[string]any{}

	if coords, touched := validateCoordinates(errs, in.Latitude, in.Longitude); touched {
		changes["latitude"] = coords.Latitude
		changes["longitude"] = coords.Longitude
	}
	if in.Observations.Set {
		changes["observations"] = strings.TrimSpace(in.Observations.Value)
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return changes, nil
}
