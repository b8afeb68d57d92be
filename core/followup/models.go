package followup

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

// Kinds
const (
	KindVisit   = "visit"
	KindCall    = "call"
	KindMessage = "message"
	KindPrayer  = "prayer"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

var (
	Kinds    = []string{KindVisit, KindCall, KindMessage, KindPrayer}
	Statuses = []string{StatusPending, StatusInProgress, StatusDone}
)

// FollowUp is a pastoral care task attached to a member or visitor,
// optionally assigned to a user.
type FollowUp struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	MemberID    string    `json:"member_id"`
	AssigneeID  string    `json:"assignee_id"` // user id; empty when unassigned
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	DueAt       time.Time `json:"due_at"` // zero when no due date
	Notes       string    `json:"notes"`
	CompletedAt time.Time `json:"completed_at"` // zero until done
	CreatedAt   time.Time `json:"created_at"`   // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

func (f *FollowUp) IsOpen() bool {
	return f.Status != StatusDone
}

func (f *FollowUp) IsOverdue(now time.Time) bool {
	return f.IsOpen() && !f.DueAt.IsZero() && f.DueAt.Before(now)
}

// NewFollowUp contains information needed to create a new FollowUp.
type NewFollowUp struct {
	MemberID   string    `json:"member_id" validate:"required,uuid4"`
	AssigneeID string    `json:"assignee_id" validate:"omitempty,uuid4"`
	Kind       string    `json:"kind" validate:"omitempty,oneof=visit call message prayer"`
	DueAt      time.Time `json:"due_at"`
	Notes      string    `json:"notes"`
}

func (nf *NewFollowUp) Validate(validate *validator.Validate) error {
	if nf.Kind == "" {
		nf.Kind = KindVisit
	}
	return validate.Struct(nf)
}

// UpdateFollowUp defines what information may be provided to modify an existing FollowUp.
type UpdateFollowUp struct {
	AssigneeID string    `json:"assignee_id" validate:"omitempty,uuid4"`
	Kind       string    `json:"kind" validate:"omitempty,oneof=visit call message prayer"`
	Status     string    `json:"status" validate:"omitempty,oneof=pending in_progress done"`
	DueAt      time.Time `json:"due_at"`
	Notes      string    `json:"notes"`
}

func (uf *UpdateFollowUp) Validate(orig FollowUp, validate *validator.Validate) error {
	if uf.AssigneeID == "" {
		uf.AssigneeID = orig.AssigneeID
	}
	if uf.Kind == "" {
		uf.Kind = orig.Kind
	}
	if uf.Status == "" {
		uf.Status = orig.Status
	}
	if uf.DueAt.IsZero() {
		uf.DueAt = orig.DueAt
	}
	if uf.Notes == "" {
		uf.Notes = orig.Notes
	}
	return validate.Struct(uf)
}

type QueryFilter struct {
	MemberID   string    `query:"member"`
	AssigneeID string    `query:"assignee"`
	Kind       string    `query:"kind"`
	Status     string    `query:"status"`
	DueFrom    time.Time `query:"due_from"`
	DueTo      time.Time `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.MemberID == "" && qf.AssigneeID == "" && qf.Kind == "" && qf.Status == "" &&
		qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
