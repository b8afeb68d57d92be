package org

import (
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

var (
	slugTag   = "slug"
	slugText  = "only lowercase letters, digits and hyphens are allowed"
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// InitValidators registers org-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, slugTag, slugText)
}

// Org is a tenant: a church or organization hosted on the platform.
// All domain data hangs off an Org.
type Org struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewOrg contains information needed to create a new Org.
type NewOrg struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required,min=3,slug"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

func (no *NewOrg) Validate(validate *validator.Validate, svc ServiceInterface) error {
	no.Name = core.CleanString(no.Name)
	no.Slug = core.CleanString(no.Slug, true /* lower */)
	no.Email = core.CleanString(no.Email, true /* lower */)

	if err := validate.Struct(no); err != nil {
		return err
	}
	return svc.CheckUniqueness(no.Slug)
}

// UpdateOrg defines what information may be provided to modify an existing Org.
type UpdateOrg struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

func (uo *UpdateOrg) Validate(orig Org, validate *validator.Validate) error {
	if name := core.CleanString(uo.Name); name != "" {
		uo.Name = name
	} else {
		uo.Name = orig.Name
	}
	if email := core.CleanString(uo.Email, true /* lower */); email != "" {
		uo.Email = email
	} else {
		uo.Email = orig.Email
	}
	if uo.Phone == "" {
		uo.Phone = orig.Phone
	}
	if uo.Address == "" {
		uo.Address = orig.Address
	}
	if uo.Timezone == "" {
		uo.Timezone = orig.Timezone
	}
	return validate.Struct(uo)
}
