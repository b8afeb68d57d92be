package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core/followup"
)

var (
	errFupNotFoundInCtx = errors.New("follow-up object not found in echo.Context")

	followUpOrderFields = []string{"kind", "status", "due_at", "created_at"}
)

type followUpApi struct {
	deps ServerDeps
}

func registerFollowUpAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := followUpApi{deps: deps}

	fg := g.Group("/follow-ups", jwt, staffMiddleware())
	fg.POST("", api.create)
	fg.GET("", api.query)
	fg.DELETE("", api.destroyMultiple, adminMiddleware())
	fg.GET("/overdue", api.overdue)

	dg := fg.Group("/:id", ctxFollowUpMiddleware(api.deps.FollowUpSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *followUpApi) create(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var data followup.NewFollowUp
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFollowUp")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	fup, err := api.deps.FollowUpSvc.Create(ctx.Request().Context(), orgID, data)
	if err != nil {
		return errors.Wrap(err, "creating follow-up")
	}
	return ctx.JSON(http.StatusCreated, fup)
}

func (api *followUpApi) query(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	filter := new(followup.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []followup.FollowUp{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, followUpOrderFields...)

	fups, err := api.deps.FollowUpSvc.Query(ctx.Request().Context(), orgID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying follow-ups")
	}
	if fups == nil {
		fups = []followup.FollowUp{}
	}
	return ctx.JSON(http.StatusOK, fups)
}

func (api *followUpApi) overdue(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	fups, err := api.deps.FollowUpSvc.Overdue(ctx.Request().Context(), orgID)
	if err != nil {
		return errors.Wrap(err, "querying overdue follow-ups")
	}
	if fups == nil {
		fups = []followup.FollowUp{}
	}
	return ctx.JSON(http.StatusOK, fups)
}

func (api *followUpApi) retrieve(ctx echo.Context) error {
	fup, ok := ctx.Get("object").(followup.FollowUp)
	if !ok {
		return errors.Wrap(errFupNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, fup)
}

func (api *followUpApi) update(ctx echo.Context) error {
	fup, ok := ctx.Get("object").(followup.FollowUp)
	if !ok {
		return errors.Wrap(errFupNotFoundInCtx, "retrieving object from context")
	}

	var data followup.UpdateFollowUp
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFollowUp")
	}
	if err := data.Validate(fup, api.deps.Validate); err != nil {
		return err
	}

	fup, err := api.deps.FollowUpSvc.Update(ctx.Request().Context(), fup, data)
	if err != nil {
		return errors.Wrap(err, "updating follow-up")
	}
	return ctx.JSON(http.StatusOK, fup)
}

func (api *followUpApi) destroy(ctx echo.Context) error {
	fup, ok := ctx.Get("object").(followup.FollowUp)
	if !ok {
		return errors.Wrap(errFupNotFoundInCtx, "retrieving object from context")
	}
	if err := api.deps.FollowUpSvc.Delete(ctx.Request().Context(), fup.OrgID, fup.ID); err != nil {
		return errors.Wrap(err, "deleting follow-up")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *followUpApi) destroyMultiple(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}

	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := query.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.FollowUpSvc.Delete(ctx.Request().Context(), orgID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting follow-ups")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxFollowUpMiddleware loads the target follow-up into the context as "object".
// Other orgs' follow-ups are a 404.
func ctxFollowUpMiddleware(svc followup.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			orgID, err := getContextOrgID(ctx)
			if err != nil {
				return err
			}

			fup, err := svc.GetByID(ctx.Request().Context(), orgID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == followup.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding follow-up by ID")
			}
			ctx.Set("object", fup)
			return next(ctx)
		}
	}
}
