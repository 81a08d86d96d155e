package service

import (
	"context"
	"fmt"
	"strings"

	"vot-service/internal/model"
	"vot-service/internal/patch"
	"vot-service/internal/utils"
)

const (
	msgRequired       = "this field is required"
	msgNonNegative    = "must be greater than or equal to 0"
	msgCoordsTogether = "latitud and longitud must be provided together"
)

// catalogField describes one id/name pair of a step payload.
type catalogField struct {
	field    string
	column   string
	category model.CatalogCategory
	id       patch.Field[uint]
	name     patch.Field[string]
}

// resolveCatalogField returns touched=false when neither key was sent. An
// explicit null or blank value clears the reference.
func resolveCatalogField(ctx context.Context, lookup CatalogLookup, errs *ValidationError, f catalogField) (*uint, bool, error) {
	if !f.id.Set && !f.name.Set {
		return nil, false, nil
	}
	ref := CatalogRef{ID: f.id.Ptr(), Name: f.name.Ptr()}
	if ref.Empty() {
		return nil, true, nil
	}
	if ref.ID == nil && utils.HasListSeparator(*ref.Name) {
		errs.Add(f.field, "only one value is allowed")
		return nil, false, nil
	}

	entry, err := lookup.Resolve(ctx, f.category, ref)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		errs.Add(f.field, fmt.Sprintf("no active %s matches the given value", f.category))
		return nil, false, nil
	}
	id := entry.ID
	return &id, true, nil
}

func nonNegativeInt(errs *ValidationError, field string, n patch.Number) (*int, bool) {
	if !n.Set {
		return nil, false
	}
	if n.Null {
		return nil, true
	}
	v, err := n.Int()
	if err != nil {
		errs.Add(field, err.Error())
		return nil, false
	}
	if v < 0 {
		errs.Add(field, msgNonNegative)
		return nil, false
	}
	return &v, true
}

// optionalText trims the value and turns blank into nil.
func optionalText(errs *ValidationError, field string, f patch.Field[string], maxLen int) (*string, bool) {
	if !f.Set {
		return nil, false
	}
	if f.Null {
		return nil, true
	}
	v := strings.TrimSpace(f.Value)
	if v == "" {
		return nil, true
	}
	if maxLen > 0 && len([]rune(v)) > maxLen {
		errs.Add(field, fmt.Sprintf("must be at most %d characters", maxLen))
		return nil, false
	}
	return &v, true
}

type coordinates struct {
	Latitude  *float64
	Longitude *float64
}

// validateCoordinates enforces that latitud and longitud travel together.
// touched is false when neither key was sent.
func validateCoordinates(errs *ValidationError, lat, lon patch.Number) (coordinates, bool) {
	if !lat.Set && !lon.Set {
		return coordinates{}, false
	}
	if lat.HasValue() != lon.HasValue() {
		if lat.HasValue() {
			errs.Add("longitud", msgCoordsTogether)
		} else {
			errs.Add("latitud", msgCoordsTogether)
		}
		return coordinates{}, false
	}
	if !lat.HasValue() {
		return coordinates{}, true
	}

	ok := true
	latitude, err := lat.Float64()
	if err != nil {
		errs.Add("latitud", err.Error())
		ok = false
	} else if latitude < -90 || latitude > 90 {
		errs.Add("latitud", "must be between -90 and 90")
		ok = false
	}
	longitude, err := lon.Float64()
	if err != nil {
		errs.Add("longitud", err.Error())
		ok = false
	} else if longitude < -180 || longitude > 180 {
		errs.Add("longitud", "must be between -180 and 180")
		ok = false
	}
	if !ok {
		return coordinates{}, false
	}
	return coordinates{Latitude: &latitude, Longitude: &longitude}, true
}

// validateElements reports every unknown id of the list at once.
func validateElements(ctx context.Context, lookup CatalogLookup, errs *ValidationError, field string, elementType model.ElementType, f patch.Field[[]int64]) ([]int64, bool, error) {
	if !f.Set {
		return nil, false, nil
	}
	if f.Null || len(f.Value) == 0 {
		return []int64{}, true, nil
	}
	missing, err := lookup.MissingElements(ctx, elementType, f.Value)
	if err != nil {
		return nil, false, err
	}
	if len(missing) > 0 {
		errs.Add(field, fmt.Sprintf("unknown %s elements: %v", elementType, missing))
		return nil, false, nil
	}
	return dedupeIDs(f.Value), true, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
