package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

// Kinds
const (
	KindGroup      = "group"
	KindDepartment = "department"
)

var Kinds = []string{KindGroup, KindDepartment}

// Group is a fellowship group or a serving department within an Org.
type Group struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	LeaderID    string    `json:"leader_id"` // member id; empty when unassigned
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (g *Group) SetActive(active bool) {
	g.IsActive = &active
}

func (g *Group) Active() bool {
	return g.IsActive != nil && *g.IsActive
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"omitempty,oneof=group department"`
	Description string `json:"description"`
	LeaderID    string `json:"leader_id" validate:"omitempty,uuid4"`
}

func (ng *NewGroup) Validate(validate *validator.Validate, svc ServiceInterface, orgID string) error {
	ng.Name = core.CleanString(ng.Name)
	if ng.Kind == "" {
		ng.Kind = KindGroup
	}
	if err := validate.Struct(ng); err != nil {
		return err
	}
	return svc.CheckUniqueness(orgID, ng.Name)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name        string `json:"name"`
	Kind        string `json:"kind" validate:"omitempty,oneof=group department"`
	Description string `json:"description"`
	LeaderID    string `json:"leader_id" validate:"omitempty,uuid4"`
	IsActive    *bool  `json:"is_active"`
}

func (ug *UpdateGroup) Validate(orig Group, validate *validator.Validate, svc ServiceInterface) error {
	if name := core.CleanString(ug.Name); name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	if ug.Kind == "" {
		ug.Kind = orig.Kind
	}
	if ug.Description == "" {
		ug.Description = orig.Description
	}
	if ug.LeaderID == "" {
		ug.LeaderID = orig.LeaderID
	}
	if err := validate.Struct(ug); err != nil {
		return err
	}
	if ug.Name != orig.Name {
		return svc.CheckUniqueness(orig.OrgID, ug.Name)
	}
	return nil
}

type QueryFilter struct {
	Search   string `query:"search"`
	Kind     string `query:"kind"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Kind == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
}
