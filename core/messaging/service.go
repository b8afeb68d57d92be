package messaging

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
)

var (
	// errors
	ErrNotFound = errors.New("message not found")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		QueryMessages(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Message, error)
		GetMessage(ctx context.Context, orgID, id string) (Message, error)
	}

	ServiceInterface interface {
		Send(ctx context.Context, orgID, senderID string, nm NewMessage) (Message, error)
		Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Message, error)
		GetByID(ctx context.Context, orgID, id string) (Message, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		mbrSvc  member.ServiceInterface
		grpSvc  group.ServiceInterface
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	mailSvc core.EmailService,
	mbrSvc member.ServiceInterface,
	grpSvc group.ServiceInterface,
	conf *core.Config,
) ServiceInterface {
	return &service{db: db, repo: repo, mailSvc: mailSvc, mbrSvc: mbrSvc, grpSvc: grpSvc, conf: conf}
}

// Send expands the recipient selection, dispatches the email blast (BCC) and
// records the message in the log. Members without an email address are
// skipped and counted.
func (svc *service) Send(ctx context.Context, orgID, senderID string, nm NewMessage) (Message, error) {
	recipients, skipped, err := svc.resolveRecipients(ctx, orgID, nm)
	if err != nil {
		return Message{}, err
	}

	if len(recipients) > 0 {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			Bcc:          recipients,
			Subject:      nm.Subject,
			TemplateName: "member-message",
			TemplateData: struct {
				Subject string
				Body    string
			}{nm.Subject, nm.Body},
		})
	}

	now := time.Now().UTC()
	msg := Message{
		OrgID:          orgID,
		SenderID:       senderID,
		Subject:        nm.Subject,
		Body:           nm.Body,
		MemberIDs:      nm.MemberIDs,
		GroupIDs:       nm.GroupIDs,
		RecipientCount: len(recipients),
		SkippedCount:   skipped,
		SentAt:         now,
		CreatedAt:      now,
	}
	return svc.repo.CreateMessage(ctx, msg)
}

func (svc *service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, orgID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, orgID, id string) (Message, error) {
	return svc.repo.GetMessage(ctx, orgID, id)
}

func (svc *service) resolveRecipients(ctx context.Context, orgID string, nm NewMessage) ([]mail.Address, int, error) {
	seen := make(map[string]member.Member)

	for _, id := range nm.MemberIDs {
		mbr, err := svc.mbrSvc.GetByID(ctx, orgID, id)
		if err != nil {
			if errors.Cause(err) == member.ErrNotFound {
				return nil, 0, core.NewValidationError(err, core.FieldError{Field: "member_ids", Error: "unknown member: " + id})
			}
			return nil, 0, errors.Wrap(err, "resolving member")
		}
		seen[mbr.ID] = mbr
	}

	for _, id := range nm.GroupIDs {
		grp, err := svc.grpSvc.GetByID(ctx, orgID, id)
		if err != nil {
			if errors.Cause(err) == group.ErrNotFound {
				return nil, 0, core.NewValidationError(err, core.FieldError{Field: "group_ids", Error: "unknown group: " + id})
			}
			return nil, 0, errors.Wrap(err, "resolving group")
		}
		mbrs, err := svc.grpSvc.Members(ctx, grp)
		if err != nil {
			return nil, 0, errors.Wrap(err, "resolving group members")
		}
		for _, mbr := range mbrs {
			seen[mbr.ID] = mbr
		}
	}

	var skipped int
	recipients := make([]mail.Address, 0, len(seen))
	for _, mbr := range seen {
		if mbr.Email == "" {
			skipped++
			continue
		}
		recipients = append(recipients, mail.Address{Name: mbr.FullName(), Address: mbr.Email})
	}
	return recipients, skipped, nil
}
