package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestPrincipalCanAccess(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()
	owner := Ownership{OwnerID: uuid.New(), CompanyID: &companyA}

	cases := []struct {
		name      string
		principal Principal
		want      bool
	}{
		{name: "owner", principal: Principal{UserID: owner.OwnerID, Role: RoleEncargado}, want: true},
		{name: "other encargado", principal: Principal{UserID: uuid.New(), CompanyID: &companyA, Role: RoleEncargado}, want: false},
		{name: "supervisor same company", principal: Principal{UserID: uuid.New(), CompanyID: &companyA, Role: RoleSupervisor}, want: false},
		{name: "admin same company", principal: Principal{UserID: uuid.New(), CompanyID: &companyA, Role: RoleAdmin}, want: true},
		{name: "admin other company", principal: Principal{UserID: uuid.New(), CompanyID: &companyB, Role: RoleAdmin}, want: false},
		{name: "admin without company", principal: Principal{UserID: uuid.New(), Role: RoleAdmin}, want: false},
		{name: "superadmin", principal: Principal{UserID: uuid.New(), Role: RoleSuperadmin}, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.principal.CanAccess(owner); got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWizardStatusIsActive(t *testing.T) {
	for _, status := range []WizardStatus{WizardStatusDraft, WizardStatusInProgress, WizardStatusReady} {
		if !status.IsActive() {
			t.Fatalf("expected %s to be active", status)
		}
	}
	for _, status := range []WizardStatus{WizardStatusPublished, WizardStatusExpired} {
		if status.IsActive() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
}

func TestReportDetailCarriesType(t *testing.T) {
	details := map[ReportType]ReportDetail{
		ReportElectric:  &ReportElectricDetail{},
		ReportTelematic: &ReportTelematicDetail{},
		ReportPredio:    &ReportPredioDetail{},
	}
	for want, detail := range details {
		if got := detail.ReportType(); got != want {
			t.Fatalf("detail type = %s, want %s", got, want)
		}
	}
}

func TestNewReportPredioDetailDefaults(t *testing.T) {
	tipo := 6
	name := "Colegio X"
	observed := RecordObserved

	d := NewReportPredioDetail(PredioDetail{PropertyType: &tipo, InstitutionName: &name})
	if d.RecordStatus != RecordRegistered {
		t.Fatalf("expected default record status registrado, got %s", d.RecordStatus)
	}
	if d.Commerce != 0 || d.Corner {
		t.Fatalf("expected zero defaults, got commerce=%d corner=%v", d.Commerce, d.Corner)
	}
	if d.InstitutionName == nil || *d.InstitutionName != name {
		t.Fatalf("expected institution name to be copied")
	}

	d = NewReportPredioDetail(PredioDetail{RecordStatus: &observed})
	if d.RecordStatus != RecordObserved {
		t.Fatalf("expected observado, got %s", d.RecordStatus)
	}
}

func TestReportPoint(t *testing.T) {
	lat, lon := -12.05, -77.04
	r := Report{Latitude: &lat, Longitude: &lon}
	p, ok := r.Point()
	if !ok || p.Lon() != lon || p.Lat() != lat {
		t.Fatalf("unexpected point %v (%v)", p, ok)
	}
	if _, ok := (Report{Latitude: &lat}).Point(); ok {
		t.Fatalf("expected no point without longitude")
	}
}
