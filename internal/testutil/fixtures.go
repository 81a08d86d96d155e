package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vot-service/internal/model"
)

// Geo ids follow the district 1 > zone 2 > sector 3 chain; the second chain
// (10 > 20 > 30) has a zone without a project.
type Geo struct {
	Project       model.Project
	District      model.District
	Zone          model.Zone
	Sector        model.Sector
	OtherDistrict model.District
	OrphanZone    model.Zone
	OrphanSector  model.Sector
}

func SeedGeo(t *testing.T, database *gorm.DB) Geo {
	t.Helper()

	projectID := uint(1)
	districtID := uint(1)
	otherDistrictID := uint(10)

	g := Geo{
		Project:       model.Project{ID: projectID, Name: "Proyecto Lima"},
		District:      model.District{ID: districtID, Name: "Miraflores"},
		Zone:          model.Zone{ID: 2, Name: "Zona A", ProjectID: &projectID, DistrictID: &districtID},
		Sector:        model.Sector{ID: 3, Name: "Sector 1", ZoneID: 2},
		OtherDistrict: model.District{ID: otherDistrictID, Name: "Surco"},
		OrphanZone:    model.Zone{ID: 20, Name: "Zona B", DistrictID: &otherDistrictID},
		OrphanSector:  model.Sector{ID: 30, Name: "Sector 9", ZoneID: 20},
	}

	mustCreate(t, database, &g.Project)
	mustCreate(t, database, &g.District)
	mustCreate(t, database, &g.OtherDistrict)
	mustCreate(t, database, &g.Zone)
	mustCreate(t, database, &g.OrphanZone)
	mustCreate(t, database, &g.Sector)
	mustCreate(t, database, &g.OrphanSector)
	return g
}

type Catalog struct {
	Structure        model.CatalogParameter
	Material         model.CatalogParameter
	InstallationZone model.CatalogParameter
	Resistance       model.CatalogParameter
	RetiredStructure model.CatalogParameter
	PhysicalState    model.PhysicalState
	Inclination      model.Inclination
	Owner            model.Owner
	ElectricElements []model.Element
	TelematicElement model.Element
}

func SeedCatalog(t *testing.T, database *gorm.DB) Catalog {
	t.Helper()

	c := Catalog{
		Structure:        model.CatalogParameter{ID: 1, Category: model.CatalogStructure, Name: "Concreto"},
		Material:         model.CatalogParameter{ID: 2, Category: model.CatalogMaterial, Name: "Metal"},
		InstallationZone: model.CatalogParameter{ID: 3, Category: model.CatalogInstallationZone, Name: "Urbana"},
		Resistance:       model.CatalogParameter{ID: 4, Category: model.CatalogResistance, Name: "500 kg"},
		RetiredStructure: model.CatalogParameter{ID: 5, Category: model.CatalogStructure, Name: "Madera"},
		PhysicalState:    model.PhysicalState{ID: 1, Description: "Bueno"},
		Inclination:      model.Inclination{ID: 1, Description: "Vertical"},
		Owner:            model.Owner{ID: 1, Acronym: "ENEL"},
		ElectricElements: []model.Element{
			{ID: 1, Type: model.ElementElectric, Name: "Transformador"},
			{ID: 2, Type: model.ElementElectric, Name: "Luminaria"},
		},
		TelematicElement: model.Element{ID: 3, Type: model.ElementTelematic, Name: "Caja NAP"},
	}

	mustCreate(t, database, &c.Structure)
	mustCreate(t, database, &c.Material)
	mustCreate(t, database, &c.InstallationZone)
	mustCreate(t, database, &c.Resistance)
	mustCreate(t, database, &c.RetiredStructure)
	mustCreate(t, database, &c.PhysicalState)
	mustCreate(t, database, &c.Inclination)
	mustCreate(t, database, &c.Owner)
	mustCreate(t, database, &c.ElectricElements)
	mustCreate(t, database, &c.TelematicElement)

	// default:true перекрывает false при вставке, поэтому отключаем отдельно
	if err := database.Model(&c.RetiredStructure).Update("active", false).Error; err != nil {
		t.Fatalf("retire structure: %v", err)
	}
	c.RetiredStructure.Active = false
	return c
}

func mustCreate(t *testing.T, database *gorm.DB, value any) {
	t.Helper()
	if err := database.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func Principal(role model.Role, companyID *uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), CompanyID: companyID, Role: role}
}

func Encargado(companyID *uuid.UUID) model.Principal {
	return Principal(model.RoleEncargado, companyID)
}

func CompanyID() *uuid.UUID {
	id := uuid.New()
	return &id
}
