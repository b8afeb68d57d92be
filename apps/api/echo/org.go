package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/org"
	"github.com/kanisahq/kanisa/core/user"
)

type orgApi struct {
	deps ServerDeps
}

func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := orgApi{deps: deps}

	og := g.Group("/orgs")

	// open sign-up: a new church and its owner account
	og.POST("/register", api.register)

	ag := og.Group("/current", jwt)
	ag.GET("", api.retrieve)
	ag.PUT("", api.update, adminMiddleware(user.RoleAdminOwner))
}

type (
	OrgRegistration struct {
		Org   org.NewOrg   `json:"org"`
		Owner user.NewUser `json:"owner"`
	}

	OrgRegistrationResponse struct {
		Org   org.Org   `json:"org"`
		Owner user.User `json:"owner"`
	}
)

func (api *orgApi) register(ctx echo.Context) error {
	var data OrgRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OrgRegistration")
	}
	if err := data.Org.Validate(api.deps.Validate, api.deps.OrgSvc); err != nil {
		return err
	}
	// the first account owns the org
	data.Owner.Roles = []string{user.RoleAdminOwner}
	if err := data.Owner.Validate(api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	// the org and its owner are created atomically; a failed owner insert
	// must not leave an orphan tenant behind
	reqCtx := ctx.Request().Context()
	var o org.Org
	var owner user.User
	err := core.InTx(reqCtx, api.deps.DB, func(tx core.DBTransactor) error {
		var err error
		if o, err = api.deps.OrgSvc.CreateTx(reqCtx, tx, data.Org); err != nil {
			return errors.Wrap(err, "creating org")
		}
		if owner, err = api.deps.UserSvc.CreateTx(reqCtx, tx, o.ID, data.Owner); err != nil {
			if tx == nil {
				_ = api.deps.OrgSvc.Delete(reqCtx, o.ID)
			}
			return errors.Wrap(err, "creating owner user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, OrgRegistrationResponse{Org: o, Owner: owner})
}

func (api *orgApi) retrieve(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}
	o, err := api.deps.OrgSvc.GetByID(ctx.Request().Context(), orgID)
	if err != nil {
		if errors.Cause(err) == org.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding org by ID")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) update(ctx echo.Context) error {
	orgID, err := getContextOrgID(ctx)
	if err != nil {
		return err
	}
	o, err := api.deps.OrgSvc.GetByID(ctx.Request().Context(), orgID)
	if err != nil {
		if errors.Cause(err) == org.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding org by ID")
	}

	var data org.UpdateOrg
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrg")
	}
	if err := data.Validate(o, api.deps.Validate); err != nil {
		return err
	}

	o, err = api.deps.OrgSvc.Update(ctx.Request().Context(), o, data)
	if err != nil {
		return errors.Wrap(err, "updating org")
	}
	return ctx.JSON(http.StatusOK, o)
}
