package messaging

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kanisahq/kanisa/core"
)

// Message is a messaging blast sent to selected members and/or groups.
// Recipient selections are expanded to member emails at send time; the
// stored row keeps the selection and the resulting counts.
type Message struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"org_id"`
	SenderID       string    `json:"sender_id"` // user id
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	MemberIDs      []string  `json:"member_ids"`
	GroupIDs       []string  `json:"group_ids"`
	RecipientCount int       `json:"recipient_count"`
	SkippedCount   int       `json:"skipped_count"` // selected members without an email address
	SentAt         time.Time `json:"sent_at"`       // UTC
	CreatedAt      time.Time `json:"created_at"`    // UTC
}

// NewMessage contains information needed to send a new Message.
type NewMessage struct {
	Subject   string   `json:"subject" validate:"required"`
	Body      string   `json:"body" validate:"required"`
	MemberIDs []string `json:"member_ids" validate:"omitempty,dive,uuid4"`
	GroupIDs  []string `json:"group_ids" validate:"omitempty,dive,uuid4"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Subject = core.CleanString(nm.Subject)
	if err := validate.Struct(nm); err != nil {
		return err
	}
	if len(nm.MemberIDs) == 0 && len(nm.GroupIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{
			Field: "member_ids",
			Error: "at least one member or group must be selected",
		})
	}
	return nil
}

type QueryFilter struct {
	SentFrom time.Time `query:"sent_from"`
	SentTo   time.Time `query:"sent_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SentFrom.IsZero() && qf.SentTo.IsZero()
}
