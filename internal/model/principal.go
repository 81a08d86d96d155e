package model

import "github.com/google/uuid"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEncargado  Role = "encargado"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleSupervisor, RoleEncargado:
		return true
	}
	return false
}

type Principal struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      Role
}

func (p Principal) IsSuperadmin() bool {
	return p.Role == RoleSuperadmin
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsEncargado() bool {
	return p.Role == RoleEncargado
}

// Ownership identifies who a wizard or report belongs to.
type Ownership struct {
	OwnerID   uuid.UUID
	CompanyID *uuid.UUID
}

// CanAccess: владелец видит свои записи, суперадмин видит всё,
// админ видит записи своей компании.
func (p Principal) CanAccess(o Ownership) bool {
	if p.UserID == o.OwnerID {
		return true
	}
	if p.IsSuperadmin() {
		return true
	}
	if p.IsAdmin() && p.CompanyID != nil && o.CompanyID != nil {
		return *p.CompanyID == *o.CompanyID
	}
	return false
}
