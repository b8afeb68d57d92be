package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

// Gathering kinds
const (
	KindSunday  = "sunday"
	KindMidweek = "midweek"
	KindSpecial = "special"
)

var Kinds = []string{KindSunday, KindMidweek, KindSpecial}

// Gathering is a church service or event attendance is taken for.
type Gathering struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	StartsAt      time.Time `json:"starts_at"` // UTC
	Notes         string    `json:"notes"`
	VisitorCount  int       `json:"visitor_count"`  // unregistered visitors headcount
	ChildrenCount int       `json:"children_count"` // children headcount
	CreatedAt     time.Time `json:"created_at"`     // UTC
	UpdatedAt     time.Time `json:"updated_at"`     // UTC
}

// Record is a member's attendance mark for a Gathering.
// There is at most one Record per (gathering, member).
type Record struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	GatheringID string    `json:"gathering_id"`
	MemberID    string    `json:"member_id"`
	Present     bool      `json:"present"`
	RecordedAt  time.Time `json:"recorded_at"` // UTC
}

// NewGathering contains information needed to create a new Gathering.
type NewGathering struct {
	Name          string    `json:"name" validate:"required"`
	Kind          string    `json:"kind" validate:"omitempty,oneof=sunday midweek special"`
	StartsAt      time.Time `json:"starts_at" validate:"required"`
	Notes         string    `json:"notes"`
	VisitorCount  int       `json:"visitor_count" validate:"min=0"`
	ChildrenCount int       `json:"children_count" validate:"min=0"`
}

func (ng *NewGathering) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	if ng.Kind == "" {
		ng.Kind = KindSunday
	}
	return validate.Struct(ng)
}

// UpdateGathering defines what information may be provided to modify an existing Gathering.
type UpdateGathering struct {
	Name          string    `json:"name"`
	Kind          string    `json:"kind" validate:"omitempty,oneof=sunday midweek special"`
	StartsAt      time.Time `json:"starts_at"`
	Notes         string    `json:"notes"`
	VisitorCount  *int      `json:"visitor_count" validate:"omitempty,min=0"`
	ChildrenCount *int      `json:"children_count" validate:"omitempty,min=0"`
}

func (ug *UpdateGathering) Validate(orig Gathering, validate *validator.Validate) error {
	if name := core.CleanString(ug.Name); name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	if ug.Kind == "" {
		ug.Kind = orig.Kind
	}
	if ug.StartsAt.IsZero() {
		ug.StartsAt = orig.StartsAt
	}
	if ug.Notes == "" {
		ug.Notes = orig.Notes
	}
	if ug.VisitorCount == nil {
		ug.VisitorCount = &orig.VisitorCount
	}
	if ug.ChildrenCount == nil {
		ug.ChildrenCount = &orig.ChildrenCount
	}
	return validate.Struct(ug)
}

// MarkAttendance is a single member's attendance mark in a bulk submission.
type MarkAttendance struct {
	MemberID string `json:"member_id" validate:"required,uuid4"`
	Present  bool   `json:"present"`
}

type RecordRequest struct {
	Marks []MarkAttendance `json:"marks" validate:"required,min=1,dive"`
}

func (rr *RecordRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}

type QueryFilter struct {
	Kind string    `query:"kind"`
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Kind == "" && qf.From.IsZero() && qf.To.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
}

// GatheringTotal is a per-gathering attendance rollup.
type GatheringTotal struct {
	GatheringID string    `json:"gathering_id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	StartsAt    time.Time `json:"starts_at"`
	Present     int       `json:"present"`
	Visitors    int       `json:"visitors"`
	Children    int       `json:"children"`
}

func (gt GatheringTotal) Total() int {
	return gt.Present + gt.Visitors + gt.Children
}

// Summary aggregates attendance over a date range for dashboards.
type Summary struct {
	Gatherings int              `json:"gatherings"`
	Present    int              `json:"present"`
	Visitors   int              `json:"visitors"`
	Children   int              `json:"children"`
	Average    float64          `json:"average"` // mean total per gathering
	Series     []GatheringTotal `json:"series"`  // chronological, for charts
}
