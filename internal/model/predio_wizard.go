package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecordStatus string

const (
	RecordRegistered RecordStatus = "registrado"
	RecordObserved   RecordStatus = "observado"
	RecordPending    RecordStatus = "pendiente"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case RecordRegistered, RecordObserved, RecordPending:
		return true
	}
	return false
}

// PredioDetail is the accumulated step-1 payload of a predio wizard. Nil means
// the value is unset or was cleared by the property-type rules.
type PredioDetail struct {
	SectorCode        *string       `json:"codigo_sector"`
	ParcelCode        *string       `json:"codigo_predio"`
	AccessRoad        *string       `json:"via_acceso"`
	AccessRoadName    *string       `json:"nombre_via_acceso"`
	MunicipalNumber   *string       `json:"numero_municipal"`
	Block             *string       `json:"manzana"`
	Lot               *int          `json:"lote"`
	Urbanization      *string       `json:"urbanizacion"`
	TownCenter        *string       `json:"centro_poblado"`
	PropertyType      *int          `json:"caracteristicas_predio_tipo"`
	Land              *string       `json:"terreno"`
	Denomination      *string       `json:"denominacion"`
	InstitutionName   *string       `json:"nombre_institucion"`
	Commerce          *int          `json:"comercio"`
	Activity          *string       `json:"actividad"`
	Housing           *int          `json:"vivienda"`
	Homepass          *int          `json:"homepass"`
	Corner            *bool         `json:"esquina"`
	RecordStatus      *RecordStatus `json:"estado_registro"`
	ElectricElements  []int64       `json:"elementos_electricos"`
	TelematicElements []int64       `json:"elementos_telematicos"`
}

type PredioWizard struct {
	ID               uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          uuid.UUID                        `gorm:"type:uuid;not null;index" json:"encargado_id"`
	OwnerCompanyID   *uuid.UUID                       `gorm:"type:uuid;index" json:"empresa_id"`
	ProjectID        *uint                            `gorm:"index" json:"proyecto_id"`
	DistrictID       uint                             `gorm:"not null;index" json:"distrito_id"`
	ZoneID           uint                             `gorm:"not null;index" json:"zona_id"`
	SectorID         uint                             `gorm:"not null;index" json:"sector_id"`
	Status           WizardStatus                     `gorm:"type:varchar(20);not null;default:draft" json:"estado"`
	Detail           datatypes.JSONType[PredioDetail] `json:"detalle"`
	DetailSavedAt    *time.Time                       `json:"detalle_saved_at"`
	Latitude         *float64                         `json:"latitud"`
	Longitude        *float64                         `json:"longitud"`
	CoordsCapturedAt *time.Time                       `json:"coords_captured_at"`
	Observations     string                           `gorm:"type:text;not null;default:''" json:"observaciones"`
	MediaSavedAt     *time.Time                       `json:"media_saved_at"`
	ReportID         *uuid.UUID                       `gorm:"type:uuid" json:"reporte_id"`
	PublishedAt      *time.Time                       `json:"published_at"`
	CreatedAt        time.Time                        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PredioWizard) TableName() string {
	return "predio_wizards"
}

func (w *PredioWizard) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w PredioWizard) Ownership() Ownership {
	return Ownership{OwnerID: w.OwnerID, CompanyID: w.OwnerCompanyID}
}

func (w PredioWizard) Summary() WizardSummary {
	return WizardSummary{
		ID:          w.ID,
		Kind:        WizardPredio,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		PublishedAt: w.PublishedAt,
	}
}

func (w PredioWizard) PhotoParent() PhotoParent {
	return PhotoParent{Kind: PhotoParentPredioWizard, ID: w.ID}
}
