package model

import (
	"time"

	"github.com/google/uuid"
)

type WizardKind string

const (
	WizardElectricPole  WizardKind = "electrico"
	WizardTelematicPole WizardKind = "telematico"
	WizardPredio        WizardKind = "predio"
)

func ParseWizardKind(raw string) (WizardKind, bool) {
	kind := WizardKind(raw)
	switch kind {
	case WizardElectricPole, WizardTelematicPole, WizardPredio:
		return kind, true
	}
	return "", false
}

func (k WizardKind) IsPole() bool {
	return k == WizardElectricPole || k == WizardTelematicPole
}

// WizardStatus is shared by every wizard kind. Pole wizards go straight from
// draft to published.
type WizardStatus string

const (
	WizardStatusDraft      WizardStatus = "draft"
	WizardStatusInProgress WizardStatus = "in_progress"
	WizardStatusReady      WizardStatus = "ready"
	WizardStatusPublished  WizardStatus = "published"
	WizardStatusExpired    WizardStatus = "expired"
)

var ActiveWizardStatuses = []WizardStatus{
	WizardStatusDraft,
	WizardStatusInProgress,
	WizardStatusReady,
}

func (s WizardStatus) IsActive() bool {
	for _, active := range ActiveWizardStatuses {
		if s == active {
			return true
		}
	}
	return false
}

type WizardSummary struct {
	ID          uuid.UUID    `json:"id"`
	Kind        WizardKind   `json:"kind"`
	Status      WizardStatus `json:"estado"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
}

const (
	MaxPhotosPerParent = 6
	MaxPhotoBytes      = 1_000_000
)
