package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportType string

const (
	ReportElectric  ReportType = "electrico"
	ReportTelematic ReportType = "telematico"
	ReportPredio    ReportType = "predio"
)

type ReportStatus string

const (
	ReportPending    ReportStatus = "pendiente"
	ReportRegistered ReportStatus = "registrado"
	ReportObserved   ReportStatus = "observado"
)

// ReportDetail is implemented by exactly one detail table per report type.
// The report's type column is always taken from its detail.
type ReportDetail interface {
	ReportType() ReportType
	BindReport(reportID uuid.UUID)
}

type Report struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Type           ReportType   `gorm:"type:varchar(20);not null;index" json:"tipo"`
	OwnerID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"encargado_id"`
	OwnerCompanyID *uuid.UUID   `gorm:"type:uuid;index" json:"empresa_id"`
	ProjectID      uint         `gorm:"not null;index" json:"proyecto_id"`
	ZoneID         uint         `gorm:"not null;index" json:"zona_id"`
	SectorID       uint         `gorm:"not null;index" json:"sector_id"`
	Observations   *string      `gorm:"type:text" json:"observaciones"`
	Status         ReportStatus `gorm:"type:varchar(20);not null;default:pendiente" json:"estado"`
	Latitude       *float64     `json:"latitud"`
	Longitude      *float64     `json:"longitud"`
	SourceWizardID *uuid.UUID   `gorm:"type:uuid;index" json:"wizard_id"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"fecha_reporte"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Detail ReportDetail  `gorm:"-" json:"detalle"`
	Photos []ReportPhoto `gorm:"foreignKey:ReportID" json:"fotos"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r Report) Ownership() Ownership {
	return Ownership{OwnerID: r.OwnerID, CompanyID: r.OwnerCompanyID}
}

// Point returns the report location in lon/lat order.
func (r Report) Point() (orb.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*r.Longitude, *r.Latitude}, true
}

type ReportPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;index" json:"reporte_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Kind      string    `gorm:"type:varchar(50);not null;default:''" json:"tipo"`
	Latitude  *float64  `json:"latitud"`
	Longitude *float64  `json:"longitud"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_principal"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReportPhoto) TableName() string {
	return "report_photos"
}

func (p *ReportPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ReportElectricDetail struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"reporte_id"`
	Tension         TensionClass        `gorm:"type:varchar(10);not null" json:"tension"`
	Code            string              `gorm:"type:varchar(50);not null" json:"codigo"`
	ElectricCables  int                 `gorm:"not null;default:0" json:"cables_electricos"`
	TelematicCables int                 `gorm:"not null;default:0" json:"cables_telematicos"`
	StructureID     *uint               `json:"estructura_id"`
	MaterialID      *uint               `json:"material_id"`
	PhysicalStateID *uint               `json:"estado_fisico_id"`
	InclinationID   *uint               `json:"inclinacion_id"`
	OwnerEntityID   *uint               `json:"propietario_id"`
	Height          decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"altura"`
}

func (ReportElectricDetail) TableName() string {
	return "report_electric_details"
}

func (d *ReportElectricDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (*ReportElectricDetail) ReportType() ReportType { return ReportElectric }

func (d *ReportElectricDetail) BindReport(reportID uuid.UUID) { d.ReportID = reportID }

type ReportTelematicDetail struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"reporte_id"`
	Code            string              `gorm:"type:varchar(50);not null" json:"codigo"`
	TelematicCables int                 `gorm:"not null;default:0" json:"cables_telematicos"`
	ElectricCables  int                 `gorm:"not null;default:0" json:"cable_electrico"`
	StructureID     *uint               `json:"estructura_id"`
	MaterialID      *uint               `json:"material_id"`
	OwnerEntityID   *uint               `json:"propietario_id"`
	Height          decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"altura"`
}

func (ReportTelematicDetail) TableName() string {
	return "report_telematic_details"
}

func (d *ReportTelematicDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (*ReportTelematicDetail) ReportType() ReportType { return ReportTelematic }

func (d *ReportTelematicDetail) BindReport(reportID uuid.UUID) { d.ReportID = reportID }

type ReportPredioDetail struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"reporte_id"`
	SectorCode      string       `gorm:"type:varchar(50);not null;default:''" json:"codigo_sector"`
	ParcelCode      string       `gorm:"type:varchar(50);not null;default:'';index" json:"codigo_predio"`
	AccessRoad      string       `gorm:"type:varchar(100);not null;default:''" json:"via_acceso"`
	AccessRoadName  string       `gorm:"type:varchar(150);not null;default:''" json:"nombre_via_acceso"`
	MunicipalNumber string       `gorm:"type:varchar(50);not null;default:''" json:"numero_municipal"`
	Block           *string      `gorm:"type:varchar(20)" json:"manzana"`
	Lot             *int         `json:"lote"`
	Urbanization    *string      `gorm:"type:varchar(150)" json:"urbanizacion"`
	TownCenter      *string      `gorm:"type:varchar(150)" json:"centro_poblado"`
	PropertyType    *int         `gorm:"index" json:"caracteristicas_predio_tipo"`
	Land            string       `gorm:"type:varchar(50);not null;default:''" json:"terreno"`
	Denomination    *string      `gorm:"type:varchar(100)" json:"denominacion"`
	InstitutionName *string      `gorm:"type:varchar(150)" json:"nombre_institucion"`
	Commerce        int          `gorm:"not null;default:0" json:"comercio"`
	Activity        *string      `gorm:"type:varchar(100)" json:"actividad"`
	Housing         int          `gorm:"not null;default:0" json:"vivienda"`
	Homepass        int          `gorm:"not null;default:0" json:"homepass"`
	Corner          bool         `gorm:"not null;default:false" json:"esquina"`
	RecordStatus    RecordStatus `gorm:"type:varchar(20);not null;default:registrado" json:"estado_registro"`
}

func (ReportPredioDetail) TableName() string {
	return "report_predio_details"
}

func (d *ReportPredioDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (*ReportPredioDetail) ReportType() ReportType { return ReportPredio }

func (d *ReportPredioDetail) BindReport(reportID uuid.UUID) { d.ReportID = reportID }

// NewReportPredioDetail fills the permanent detail row from a wizard payload.
func NewReportPredioDetail(p PredioDetail) *ReportPredioDetail {
	d := &ReportPredioDetail{
		SectorCode:      deref(p.SectorCode),
		ParcelCode:      deref(p.ParcelCode),
		AccessRoad:      deref(p.AccessRoad),
		AccessRoadName:  deref(p.AccessRoadName),
		MunicipalNumber: deref(p.MunicipalNumber),
		Block:           p.Block,
		Lot:             p.Lot,
		Urbanization:    p.Urbanization,
		TownCenter:      p.TownCenter,
		PropertyType:    p.PropertyType,
		Land:            deref(p.Land),
		Denomination:    p.Denomination,
		InstitutionName: p.InstitutionName,
		Commerce:        deref(p.Commerce),
		Activity:        p.Activity,
		Housing:         deref(p.Housing),
		Homepass:        deref(p.Homepass),
		Corner:          deref(p.Corner),
		RecordStatus:    RecordRegistered,
	}
	if p.RecordStatus != nil {
		d.RecordStatus = *p.RecordStatus
	}
	return d
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
