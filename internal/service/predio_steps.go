package service

import (
	"context"
	"strings"

	"vot-service/internal/model"
	"vot-service/internal/patch"
)

const (
	predioStepDetail = 1
	predioStepCoords = 2
	predioStepMedia  = 3
)

type StartPredioInput struct {
	DistrictID uint  `json:"distrito_id"`
	ZoneID     uint  `json:"zona_id"`
	SectorID   uint  `json:"sector_id"`
	ProjectID  *uint `json:"proyecto_id"`
}

type PredioDetailInput struct {
	SectorCode      patch.Field[string] `json:"codigo_sector"`
	ParcelCode      patch.Field[string] `json:"codigo_predio"`
	AccessRoad      patch.Field[string] `json:"via_acceso"`
	AccessRoadName  patch.Field[string] `json:"nombre_via_acceso"`
	MunicipalNumber patch.Field[string] `json:"numero_municipal"`
	Block           patch.Field[string] `json:"manzana"`
	Lot             patch.Field[int]    `json:"lote"`
	Urbanization    patch.Field[string] `json:"urbanizacion"`
	TownCenter      patch.Field[string] `json:"centro_poblado"`
	PropertyType    patch.Field[int]    `json:"caracteristicas_predio_tipo"`
	Land            patch.Field[string] `json:"terreno"`
	Denomination    patch.Field[string] `json:"denominacion"`
	InstitutionName patch.Field[string] `json:"nombre_institucion"`
	Commerce        patch.Field[int]    `json:"comercio"`
	Activity        patch.Field[string] `json:"actividad"`
	Housing         patch.Field[int]    `json:"vivienda"`
	Homepass        patch.Field[int]    `json:"homepass"`
	Corner          patch.Field[bool]   `json:"esquina"`
	RecordStatus    patch.Field[string] `json:"estado_registro"`
}

type PredioCoordinatesInput struct {
	Latitude  patch.Number `json:"latitud"`
	Longitude patch.Number `json:"longitud"`
}

type PredioMediaInput struct {
	Observations patch.Field[string] `json:"observaciones"`

	photos []PhotoUpload
}

func (in *PredioMediaInput) SetPhotos(photos []PhotoUpload) {
	in.photos = photos
}

type PredioElementsInput struct {
	ElectricElements  patch.Field[[]int64] `json:"elementos_electricos"`
	TelematicElements patch.Field[[]int64] `json:"elementos_telematicos"`
}

func setText(dst **string, f patch.Field[string]) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := strings.TrimSpace(f.Value)
	*dst = &v
}

func setValue[T any](dst **T, f patch.Field[T]) {
	if f.Set {
		*dst = f.Ptr()
	}
}

// mergePredioDetail applies the sent keys over the stored payload and then
// runs the property-type rules on the merged result.
func mergePredioDetail(prior model.PredioDetail, in *PredioDetailInput) (model.PredioDetail, error) {
	d := prior
	setText(&d.SectorCode, in.SectorCode)
	setText(&d.ParcelCode, in.ParcelCode)
	setText(&d.AccessRoad, in.AccessRoad)
	setText(&d.AccessRoadName, in.AccessRoadName)
	setText(&d.MunicipalNumber, in.MunicipalNumber)
	setText(&d.Block, in.Block)
	setValue(&d.Lot, in.Lot)
	setText(&d.Urbanization, in.Urbanization)
	setText(&d.TownCenter, in.TownCenter)
	setValue(&d.PropertyType, in.PropertyType)
	setText(&d.Land, in.Land)
	setText(&d.Denomination, in.Denomination)
	setText(&d.InstitutionName, in.InstitutionName)
	setValue(&d.Commerce, in.Commerce)
	setText(&d.Activity, in.Activity)
	setValue(&d.Housing, in.Housing)
	setValue(&d.Homepass, in.Homepass)
	setValue(&d.Corner, in.Corner)

	errs := NewValidationError()
	if in.RecordStatus.Set {
		if in.RecordStatus.Null {
			d.RecordStatus = nil
		} else {
			status := model.RecordStatus(strings.TrimSpace(in.RecordStatus.Value))
			if status.Valid() {
				d.RecordStatus = &status
			} else {
				errs.Add("estado_registro", "must be one of registrado, observado, pendiente")
			}
		}
	}

	applyPredioRules(&d, errs)

	if err := errs.OrNil(); err != nil {
		return model.PredioDetail{}, err
	}
	return d, nil
}

func applyPredioRules(d *model.PredioDetail, errs *ValidationError) {
	counters := []struct {
		field string
		value *int
	}{
		{"lote", d.Lot},
		{"comercio", d.Commerce},
		{"vivienda", d.Housing},
		{"homepass", d.Homepass},
	}
	for _, c := range counters {
		if c.value != nil && *c.value < 0 {
			errs.Add(c.field, msgNonNegative)
		}
	}

	// без коммерции вид деятельности не хранится
	if d.Commerce == nil || *d.Commerce == 0 {
		d.Activity = nil
	}

	if d.PropertyType == nil {
		return
	}
	switch *d.PropertyType {
	case 1:
		d.Block = nil
		d.Lot = nil
		d.Urbanization = nil
		d.TownCenter = nil
		d.Denomination = nil
		d.InstitutionName = nil
		d.Activity = nil
	case 3, 4, 5:
		if blank(d.Denomination) {
			errs.Add("denominacion", msgRequired)
		}
		d.InstitutionName = nil
	case 6:
		if blank(d.InstitutionName) {
			errs.Add("nombre_institucion", msgRequired)
		}
		d.Denomination = nil
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func validatePredioCoordinates(in *PredioCoordinatesInput) (coordinates, error) {
	errs := NewValidationError()
	if !in.Latitude.HasValue() && !in.Longitude.HasValue() {
		errs.Add("latitud", msgRequired)
		errs.Add("longitud", msgRequired)
		return coordinates{}, errs
	}
	coords, _ := validateCoordinates(errs, in.Latitude, in.Longitude)
	if err := errs.OrNil(); err != nil {
		return coordinates{}, err
	}
	return coords, nil
}

func validatePredioElements(ctx context.Context, lookup CatalogLookup, prior model.PredioDetail, in *PredioElementsInput) (model.PredioDetail, error) {
	errs := NewValidationError()
	d := prior

	electric, ok, err := validateElements(ctx, lookup, errs, "elementos_electricos", model.ElementElectric, in.ElectricElements)
	if err != nil {
		return d, err
	}
	if ok {
		d.ElectricElements = electric
	}
	telematic, ok, err := validateElements(ctx, lookup, errs, "elementos_telematicos", model.ElementTelematic, in.TelematicElements)
	if err != nil {
		return d, err
	}
	if ok {
		d.TelematicElements = telematic
	}

	if err := errs.OrNil(); err != nil {
		return prior, err
	}
	return d, nil
}
