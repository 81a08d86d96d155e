package model

type CatalogCategory string

const (
	CatalogStructure        CatalogCategory = "estructura"
	CatalogMaterial         CatalogCategory = "material"
	CatalogInstallationZone CatalogCategory = "zona_instalacion"
	CatalogResistance       CatalogCategory = "resistencia"
	CatalogPhysicalState    CatalogCategory = "estado_fisico"
	CatalogInclination      CatalogCategory = "inclinacion"
	CatalogOwner            CatalogCategory = "propietario"
)

// IsParameter reports whether entries of the category live in catalog_parameters.
func (c CatalogCategory) IsParameter() bool {
	switch c {
	case CatalogStructure, CatalogMaterial, CatalogInstallationZone, CatalogResistance:
		return true
	}
	return false
}

type CatalogParameter struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Category CatalogCategory `gorm:"type:varchar(32);not null;index" json:"categoria"`
	Name     string          `gorm:"type:varchar(64);not null" json:"nombre"`
	Position int             `gorm:"not null;default:0" json:"orden"`
	Active   bool            `gorm:"not null;default:true" json:"activo"`
}

func (CatalogParameter) TableName() string {
	return "catalog_parameters"
}

type PhysicalState struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Description string `gorm:"type:varchar(100);not null" json:"descripcion"`
	Active      bool   `gorm:"not null;default:true" json:"activo"`
}

func (PhysicalState) TableName() string {
	return "physical_states"
}

type Inclination struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Description string `gorm:"type:varchar(100);not null" json:"descripcion"`
	Active      bool   `gorm:"not null;default:true" json:"activo"`
}

func (Inclination) TableName() string {
	return "inclinations"
}

type Owner struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Acronym string `gorm:"type:varchar(10);not null" json:"siglas"`
	Active  bool   `gorm:"not null;default:true" json:"activo"`
}

func (Owner) TableName() string {
	return "owners"
}

type ElementType string

const (
	ElementElectric  ElementType = "electrico"
	ElementTelematic ElementType = "telematico"
)

type Element struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	Type   ElementType `gorm:"type:varchar(20);not null;index" json:"tipo"`
	Name   string      `gorm:"type:varchar(120);not null" json:"nombre"`
	Active bool        `gorm:"not null;default:true" json:"activo"`
}

func (Element) TableName() string {
	return "elements"
}

// CatalogEntry is a resolved catalog row, independent of the table it came from.
type CatalogEntry struct {
	Category CatalogCategory `json:"categoria"`
	ID       uint            `json:"id"`
	Label    string          `json:"nombre"`
}
