package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TensionClass string

const (
	TensionLow    TensionClass = "BT"
	TensionMedium TensionClass = "MT"
	TensionHigh   TensionClass = "AT"
)

func (t TensionClass) Valid() bool {
	switch t {
	case TensionLow, TensionMedium, TensionHigh:
		return true
	}
	return false
}

// PoleWizard is both the draft and, once published, the permanent record of
// an electric or telematic pole. Step 1 is stored on the row itself.
type PoleWizard struct {
	ID                uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	Kind              WizardKind                `gorm:"type:varchar(20);not null;index" json:"kind"`
	OwnerID           uuid.UUID                 `gorm:"type:uuid;not null;index" json:"encargado_id"`
	OwnerCompanyID    *uuid.UUID                `gorm:"type:uuid;index" json:"empresa_id"`
	Status            WizardStatus              `gorm:"type:varchar(20);not null;default:draft" json:"estado"`
	Tension           *TensionClass             `gorm:"type:varchar(2)" json:"tension"`
	ElectricCables    *int                      `json:"cables_electricos"`
	TelematicCables   *int                      `json:"cables_telematicos"`
	Code              *string                   `gorm:"type:varchar(50)" json:"codigo"`
	ElectricElements  datatypes.JSONSlice[int64] `json:"elementos_electricos"`
	TelematicElements datatypes.JSONSlice[int64] `json:"elementos_telematicos"`
	GeneralSavedAt    *time.Time                `json:"general_saved_at"`
	PublishedAt       *time.Time                `json:"published_at"`
	CreatedAt         time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`

	Characteristics *PoleCharacteristics `gorm:"foreignKey:WizardID" json:"caracteristicas,omitempty"`
	Condition       *PoleCondition       `gorm:"foreignKey:WizardID" json:"condicion,omitempty"`
	Location        *PoleLocation        `gorm:"foreignKey:WizardID" json:"ubicacion,omitempty"`
}

func (PoleWizard) TableName() string {
	return "pole_wizards"
}

func (w *PoleWizard) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w PoleWizard) Ownership() Ownership {
	return Ownership{OwnerID: w.OwnerID, CompanyID: w.OwnerCompanyID}
}

func (w PoleWizard) Summary() WizardSummary {
	return WizardSummary{
		ID:          w.ID,
		Kind:        w.Kind,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		PublishedAt: w.PublishedAt,
	}
}

type PoleCharacteristics struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WizardID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"wizard_id"`
	StructureID        *uint     `json:"estructura_id"`
	MaterialID         *uint     `json:"material_id"`
	InstallationZoneID *uint     `json:"zona_instalacion_id"`
	ResistanceID       *uint     `json:"resistencia_id"`
	ResistanceValue    *int      `json:"resistencia_valor"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PoleCharacteristics) TableName() string {
	return "pole_characteristics"
}

func (c *PoleCharacteristics) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type PoleCondition struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	WizardID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"wizard_id"`
	PhysicalStateID *uint               `json:"estado_poste_id"`
	InclinationID   *uint               `json:"inclinacion_id"`
	OwnerEntityID   *uint               `json:"propietario_id"`
	Height          decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"altura"`
	Notes           string              `gorm:"type:text;not null;default:''" json:"notas"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PoleCondition) TableName() string {
	return "pole_conditions"
}

func (c *PoleCondition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type PoleLocation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WizardID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"wizard_id"`
	Latitude     *float64  `json:"latitud"`
	Longitude    *float64  `json:"longitud"`
	Observations string    `gorm:"type:text;not null;default:''" json:"observaciones"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PoleLocation) TableName() string {
	return "pole_locations"
}

func (l *PoleLocation) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l PoleLocation) PhotoParent() PhotoParent {
	return PhotoParent{Kind: PhotoParentPoleLocation, ID: l.ID}
}
