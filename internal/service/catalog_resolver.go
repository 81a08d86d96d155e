package service

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/repository"
	"vot-service/internal/utils"
)

// CatalogRef is a user selection: a catalog id, a free-text name, or neither.
type CatalogRef struct {
	ID   *uint
	Name *string
}

func (r CatalogRef) Empty() bool {
	return r.ID == nil && (r.Name == nil || utils.NormalizeCatalogName(*r.Name) == "")
}

type CatalogLookup interface {
	// Resolve returns nil without error when nothing matches.
	Resolve(ctx context.Context, category model.CatalogCategory, ref CatalogRef) (*model.CatalogEntry, error)
	// MissingElements returns the ids that are not active elements of the type.
	MissingElements(ctx context.Context, elementType model.ElementType, ids []int64) ([]int64, error)
}

type CatalogResolver struct {
	repo *repository.CatalogRepository
}

func NewCatalogResolver(repo *repository.CatalogRepository) *CatalogResolver {
	return &CatalogResolver{repo: repo}
}

func (r *CatalogResolver) Resolve(ctx context.Context, category model.CatalogCategory, ref CatalogRef) (*model.CatalogEntry, error) {
	var (
		entry *model.CatalogEntry
		err   error
	)
	switch {
	case ref.ID != nil:
		entry, err = r.repo.FindActiveByID(ctx, category, *ref.ID)
	case ref.Name != nil:
		name := utils.NormalizeCatalogName(*ref.Name)
		// "Bueno/Regular" и подобные списки не сопоставляем ни с одной записью
		if name == "" || utils.HasListSeparator(name) {
			return nil, nil
		}
		entry, err = r.repo.FindActiveByLabel(ctx, category, name)
	default:
		return nil, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CatalogResolver) MissingElements(ctx context.Context, elementType model.ElementType, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := r.repo.ExistingElementIDs(ctx, elementType, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}

	var missing []int64
	seen := map[int64]struct{}{}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}
