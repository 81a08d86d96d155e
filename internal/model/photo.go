package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PhotoParentKind string

const (
	PhotoParentPoleLocation PhotoParentKind = "pole_location"
	PhotoParentPredioWizard PhotoParentKind = "predio_wizard"
)

type PhotoParent struct {
	Kind PhotoParentKind
	ID   uuid.UUID
}

// WizardPhoto is one slot of a parent's photo ledger. Slots run from 1 to
// MaxPhotosPerParent and at most one photo per parent is primary.
type WizardPhoto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ParentKind   PhotoParentKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_wizard_photos_slot,priority:1" json:"-"`
	ParentID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wizard_photos_slot,priority:2" json:"-"`
	Position     int             `gorm:"not null;uniqueIndex:idx_wizard_photos_slot,priority:3" json:"orden"`
	IsPrimary    bool            `gorm:"not null;default:false" json:"is_principal"`
	URL          string          `gorm:"type:text;not null" json:"url"`
	StorageKey   string          `gorm:"type:text;not null" json:"-"`
	OriginalName string          `gorm:"type:varchar(255)" json:"nombre"`
	Size         int64           `gorm:"not null" json:"size"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (WizardPhoto) TableName() string {
	return "wizard_photos"
}

func (p *WizardPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
