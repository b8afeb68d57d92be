package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/messaging"
)

var messageOrderFields = []string{"subject", "sent_at"}

type messageApi struct {
	deps ServerDeps
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := messageApi{deps: deps}

	mg := g.Group("/messages", jwt, staffMiddleware())
	mg.POST("", api.send)
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
}

// Handlers

func (api *messageApi) send(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data messaging.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	msg, err := api.deps.MessagingSvc.Send(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messageApi) query(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(messaging.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []messaging.Message{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, messageOrderFields...)

	msgs, err := api.deps.MessagingSvc.Query(ctx.Request().Context(), orgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) retrieve(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	msg, err := api.deps.MessagingSvc.GetByID(ctx.Request().Context(), orgID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == messaging.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding message by ID")
	}
	return ctx.JSON(http.StatusOK, msg)
}
