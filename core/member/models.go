package member

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

// Statuses
const (
	StatusMember  = "member"
	StatusVisitor = "visitor"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Marital statuses
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalWidowed  = "widowed"
	MaritalDivorced = "divorced"
)

var (
	Statuses        = []string{StatusMember, StatusVisitor}
	Genders         = []string{GenderMale, GenderFemale}
	MaritalStatuses = []string{MaritalSingle, MaritalMarried, MaritalWidowed, MaritalDivorced}

	memberStatusTag  = "memberstatus"
	memberStatusText = "invalid status"
)

// InitValidators registers member-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(memberStatusTag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == StatusMember || s == StatusVisitor
	})
	core.RegisterCustomTranslation(validate, translator, memberStatusTag, memberStatusText)
}

// Member is a person known to the church: a registered member or a visitor
// (first-timer). Visitors carry Status == StatusVisitor until converted.
type Member struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Gender        string    `json:"gender"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	BirthDate     time.Time `json:"birth_date"` // date only; zero when unknown
	MaritalStatus string    `json:"marital_status"`
	Status        string    `json:"status"`
	JoinedAt      time.Time `json:"joined_at"` // date only; zero for visitors
	Occupation    string    `json:"occupation"`
	Notes         string    `json:"notes"`
	IsActive      *bool     `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

func (m *Member) SetActive(active bool) {
	m.IsActive = &active
}

func (m *Member) Active() bool {
	return m.IsActive != nil && *m.IsActive
}

func (m *Member) IsVisitor() bool {
	return m.Status == StatusVisitor
}

// NewMember contains information needed to create a new Member.
type NewMember struct {
	FirstName     string    `json:"first_name" validate:"required"`
	LastName      string    `json:"last_name" validate:"required"`
	Gender        string    `json:"gender" validate:"omitempty,oneof=male female"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	BirthDate     time.Time `json:"birth_date"`
	MaritalStatus string    `json:"marital_status" validate:"omitempty,oneof=single married widowed divorced"`
	Status        string    `json:"status" validate:"omitempty,memberstatus"`
	JoinedAt      time.Time `json:"joined_at"`
	Occupation    string    `json:"occupation"`
	Notes         string    `json:"notes"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.FirstName = core.CleanString(nm.FirstName)
	nm.LastName = core.CleanString(nm.LastName)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.Phone = core.CleanString(nm.Phone)
	if nm.Status == "" {
		nm.Status = StatusMember
	}
	return validate.Struct(nm)
}

// UpdateMember defines what information may be provided to modify an existing Member.
type UpdateMember struct {
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Gender        string    `json:"gender" validate:"omitempty,oneof=male female"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	BirthDate     time.Time `json:"birth_date"`
	MaritalStatus string    `json:"marital_status" validate:"omitempty,oneof=single married widowed divorced"`
	Status        string    `json:"status" validate:"omitempty,memberstatus"`
	JoinedAt      time.Time `json:"joined_at"`
	Occupation    string    `json:"occupation"`
	Notes         string    `json:"notes"`
	IsActive      *bool     `json:"is_active"`
}

func (um *UpdateMember) Validate(orig Member, validate *validator.Validate) error {
	if first := core.CleanString(um.FirstName); first != "" {
		um.FirstName = first
	} else {
		um.FirstName = orig.FirstName
	}
	if last := core.CleanString(um.LastName); last != "" {
		um.LastName = last
	} else {
		um.LastName = orig.LastName
	}
	if email := core.CleanString(um.Email, true /* lower */); email != "" {
		um.Email = email
	} else {
		um.Email = orig.Email
	}
	if um.Gender == "" {
		um.Gender = orig.Gender
	}
	if um.Phone == "" {
		um.Phone = orig.Phone
	}
	if um.Address == "" {
		um.Address = orig.Address
	}
	if um.BirthDate.IsZero() {
		um.BirthDate = orig.BirthDate
	}
	if um.MaritalStatus == "" {
		um.MaritalStatus = orig.MaritalStatus
	}
	if um.Status == "" {
		um.Status = orig.Status
	}
	if um.JoinedAt.IsZero() {
		um.JoinedAt = orig.JoinedAt
	}
	if um.Occupation == "" {
		um.Occupation = orig.Occupation
	}
	if um.Notes == "" {
		um.Notes = orig.Notes
	}
	return validate.Struct(um)
}

type QueryFilter struct {
	Search     string    `query:"search"` // name, email or phone
	Status     string    `query:"status"`
	Gender     string    `query:"gender"`
	GroupID    string    `query:"group"`
	IsActive   *bool     `query:"is_active"`
	JoinedFrom time.Time `query:"joined_from"`
	JoinedTo   time.Time `query:"joined_to"`

	// HasBirthDate restricts to members with a known birth date; used by
	// the birthday queries.
	HasBirthDate bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.Gender == "" && qf.GroupID == "" &&
		qf.IsActive == nil && qf.JoinedFrom.IsZero() && qf.JoinedTo.IsZero() && !qf.HasBirthDate
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Gender = core.CleanString(qf.Gender, true /* lower */)
}
