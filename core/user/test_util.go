package user

import (
	"context"

	"github.com/kanisahq/kanisa/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a ServiceInterface whose email side effects run
// synchronously, for deterministic tests.
func NewServiceMock(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &serviceMock{
		service: service{
			db:      db,
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	// same as the real thing; the mock email service it is wired with
	// sends synchronously
	return svc.service.RequestPasswordReset(ctx, email)
}
