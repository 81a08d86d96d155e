package service

import (
	"context"
	"testing"

	"vot-service/internal/model"
	"vot-service/internal/repository"
	"vot-service/internal/testutil"
)

func TestCatalogResolver(t *testing.T) {
	database := testutil.NewDB(t)
	catalog := testutil.SeedCatalog(t, database)
	resolver := NewCatalogResolver(repository.NewCatalogRepository(database))
	ctx := context.Background()

	name := func(s string) CatalogRef { return CatalogRef{Name: &s} }
	id := func(v uint) CatalogRef { return CatalogRef{ID: &v} }

	cases := []struct {
		name     string
		category model.CatalogCategory
		ref      CatalogRef
		wantID   uint
	}{
		{name: "by id", category: model.CatalogStructure, ref: id(catalog.Structure.ID), wantID: 1},
		{name: "by name ignoring case", category: model.CatalogMaterial, ref: name("  METAL "), wantID: 2},
		{name: "physical state by description", category: model.CatalogPhysicalState, ref: name("bueno"), wantID: 1},
		{name: "owner by acronym", category: model.CatalogOwner, ref: name("enel"), wantID: 1},
		{name: "id of another category", category: model.CatalogMaterial, ref: id(catalog.Structure.ID)},
		{name: "inactive entry", category: model.CatalogStructure, ref: id(catalog.RetiredStructure.ID)},
		{name: "inactive entry by name", category: model.CatalogStructure, ref: name("Madera")},
		{name: "list of names", category: model.CatalogMaterial, ref: name("Metal, Concreto")},
		{name: "partial name", category: model.CatalogMaterial, ref: name("Met")},
		{name: "empty", category: model.CatalogMaterial, ref: CatalogRef{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := resolver.Resolve(ctx, tc.category, tc.ref)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if tc.wantID == 0 {
				if entry != nil {
					t.Fatalf("expected no match, got %+v", entry)
				}
				return
			}
			if entry == nil || entry.ID != tc.wantID {
				t.Fatalf("expected id %d, got %+v", tc.wantID, entry)
			}
		})
	}
}

func TestMissingElements(t *testing.T) {
	database := testutil.NewDB(t)
	testutil.SeedCatalog(t, database)
	resolver := NewCatalogResolver(repository.NewCatalogRepository(database))

	missing, err := resolver.MissingElements(context.Background(), model.ElementElectric, []int64{1, 3, 42, 3, 2})
	if err != nil {
		t.Fatalf("missing elements: %v", err)
	}
	if len(missing) != 2 || missing[0] != 3 || missing[1] != 42 {
		t.Fatalf("expected [3 42], got %v", missing)
	}
}
