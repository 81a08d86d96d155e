package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"nombre"`
	Active    bool       `gorm:"not null;default:true" json:"activo"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Project) TableName() string {
	return "projects"
}

type District struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"nombre"`
	Active    bool       `gorm:"not null;default:true" json:"activo"`
}

func (District) TableName() string {
	return "districts"
}

type Zone struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:varchar(100);not null" json:"nombre"`
	ProjectID  *uint  `gorm:"index" json:"proyecto_id"`
	DistrictID *uint  `gorm:"index" json:"distrito_id"`
}

func (Zone) TableName() string {
	return "zones"
}

type Sector struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"type:varchar(100);not null" json:"nombre"`
	ZoneID uint   `gorm:"not null;index" json:"zona_id"`
}

func (Sector) TableName() string {
	return "sectors"
}
